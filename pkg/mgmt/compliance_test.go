package mgmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComplianceRecordStatusLadder(t *testing.T) {
	r := NewComplianceRegistry(nil)
	r.AddPolicy(CompliancePolicy{ID: "p1", RetentionDays: 30})
	now := time.Now()
	rec, err := r.CreateRecord("/data/a", "p1", now)
	require.NoError(t, err)
	require.Equal(t, RetentionActive, rec.Status(now))
	require.Equal(t, RetentionExpired, rec.Status(now.Add(31*24*time.Hour)))
}

func TestComplianceRecordWormAlwaysLocked(t *testing.T) {
	r := NewComplianceRegistry(nil)
	r.AddPolicy(CompliancePolicy{ID: "p2", RetentionDays: 1, WormEnabled: true})
	now := time.Now()
	rec, err := r.CreateRecord("/data/b", "p2", now)
	require.NoError(t, err)
	require.Equal(t, RetentionLocked, rec.Status(now.Add(1000*24*time.Hour)))
}

func TestComplianceRecordBoundaryExpiresAtIsExpired(t *testing.T) {
	r := NewComplianceRegistry(nil)
	r.AddPolicy(CompliancePolicy{ID: "p3", RetentionDays: 1})
	now := time.Now()
	rec, _ := r.CreateRecord("/data/c", "p3", now)
	require.Equal(t, RetentionExpired, rec.Status(rec.ExpiresAt))
}

func TestComplianceExpiredListing(t *testing.T) {
	r := NewComplianceRegistry(nil)
	r.AddPolicy(CompliancePolicy{ID: "p1", RetentionDays: 1})
	now := time.Now()
	r.CreateRecord("/a", "p1", now.Add(-48*time.Hour))
	r.CreateRecord("/b", "p1", now)
	expired := r.Expired(now)
	require.Len(t, expired, 1)
	require.Equal(t, "/a", expired[0].Path)
}
