package mgmt

import (
	"testing"
	"time"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/stretchr/testify/require"
)

func TestCatalogPersistsSnapshotsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cat, err := OpenCatalog(dir)
	require.NoError(t, err)

	sc := NewSnapshotCatalog(cat)
	require.NoError(t, sc.AddSnapshot(SnapshotEntry{Name: "s1", CreatedAt: time.Now(), SizeBytes: 4096}))
	require.NoError(t, cat.Close())

	cat2, err := OpenCatalog(dir)
	require.NoError(t, err)
	defer cat2.Close()

	var got SnapshotEntry
	require.NoError(t, cat2.get(bucketSnapshots, "s1", &got))
	require.Equal(t, uint64(4096), got.SizeBytes)
}

func TestCatalogGetMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	cat, err := OpenCatalog(dir)
	require.NoError(t, err)
	defer cat.Close()

	var got SnapshotEntry
	err = cat.get(bucketSnapshots, "missing", &got)
	require.True(t, claudeerr.Is(err, claudeerr.DomainMgmt, claudeerr.KindNotFound))
}

func TestTenantManagerPersistsThroughCatalog(t *testing.T) {
	dir := t.TempDir()
	cat, err := OpenCatalog(dir)
	require.NoError(t, err)
	defer cat.Close()

	tm := NewTenantManager(cat)
	require.NoError(t, tm.AddTenant(TenantConfig{ID: "t1", Active: true, MaxInodes: 10, MaxBytes: 1000}))

	var got TenantConfig
	require.NoError(t, cat.get(bucketTenants, "t1", &got))
	require.True(t, got.Active)
}
