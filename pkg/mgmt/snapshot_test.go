package mgmt

import (
	"testing"
	"time"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCatalogAddGetList(t *testing.T) {
	c := NewSnapshotCatalog(nil)
	require.NoError(t, c.AddSnapshot(SnapshotEntry{Name: "daily-1", CreatedAt: time.Now()}))
	e, ok := c.GetSnapshot("daily-1")
	require.True(t, ok)
	require.Equal(t, "daily-1", e.Name)
	require.Len(t, c.ListSnapshots(), 1)
}

func TestDeleteSnapshotFailsWithNonTerminalRestore(t *testing.T) {
	c := NewSnapshotCatalog(nil)
	require.NoError(t, c.AddSnapshot(SnapshotEntry{Name: "s1"}))
	job, err := c.StartRestore("s1", "/mnt/restore", 1000, time.Now())
	require.NoError(t, err)

	err = c.DeleteSnapshot("s1")
	require.Error(t, err)
	require.True(t, claudeerr.Is(err, claudeerr.DomainMgmt, claudeerr.KindSnapshotInUse))

	require.NoError(t, c.CompleteRestore(job.ID))
	require.NoError(t, c.DeleteSnapshot("s1"))
}

func TestRestoreJobLifecycle(t *testing.T) {
	c := NewSnapshotCatalog(nil)
	require.NoError(t, c.AddSnapshot(SnapshotEntry{Name: "s1"}))
	job, err := c.StartRestore("s1", "/mnt", 1000, time.Now())
	require.NoError(t, err)
	require.Equal(t, RestoreRunning, job.State)
	require.False(t, job.State.Terminal())

	require.NoError(t, c.AdvanceRestore(job.ID, 500))
	got, _ := c.GetRestore(job.ID)
	require.Equal(t, uint64(500), got.RestoredBytes)

	require.NoError(t, c.FailRestore(job.ID, "disk full"))
	got, _ = c.GetRestore(job.ID)
	require.Equal(t, RestoreFailed, got.State)
	require.True(t, got.State.Terminal())
	require.Equal(t, "disk full", got.FailureReason)
}

func TestStartRestoreUnknownSnapshot(t *testing.T) {
	c := NewSnapshotCatalog(nil)
	_, err := c.StartRestore("nope", "/mnt", 0, time.Now())
	require.Error(t, err)
	require.True(t, claudeerr.Is(err, claudeerr.DomainMgmt, claudeerr.KindNotFound))
}
