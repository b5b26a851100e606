package replication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuditLogIDsMonotonic(t *testing.T) {
	l := NewAuditLog()
	e1 := l.Append(AuditSiteConnected, "site-a", time.Now(), "", nil)
	e2 := l.Append(AuditSiteConnected, "site-b", time.Now(), "", nil)
	require.Equal(t, uint64(1), e1.ID)
	require.Equal(t, uint64(2), e2.ID)
}

func TestAuditQueryConjunctiveFilter(t *testing.T) {
	l := NewAuditLog()
	base := time.Now()
	l.Append(AuditConflictDetected, "site-a", base, "first", nil)
	l.Append(AuditConflictResolved, "site-a", base.Add(time.Second), "second", nil)
	l.Append(AuditConflictDetected, "site-b", base.Add(2*time.Second), "third", nil)

	results := l.Query(AuditFilter{Kind: AuditConflictDetected, SiteID: "site-a"})
	require.Len(t, results, 1)
	require.Equal(t, "first", results[0].Details)
}

func TestAuditQueryTimeRange(t *testing.T) {
	l := NewAuditLog()
	base := time.Now()
	l.Append(AuditSiteConnected, "site-a", base, "e1", nil)
	l.Append(AuditSiteConnected, "site-a", base.Add(time.Minute), "e2", nil)
	l.Append(AuditSiteConnected, "site-a", base.Add(2*time.Minute), "e3", nil)

	results := l.Query(AuditFilter{Since: base.Add(30 * time.Second), Until: base.Add(90 * time.Second)})
	require.Len(t, results, 1)
	require.Equal(t, "e2", results[0].Details)
}

func TestAuditClearBefore(t *testing.T) {
	l := NewAuditLog()
	base := time.Now()
	l.Append(AuditSiteConnected, "site-a", base, "old", nil)
	l.Append(AuditSiteConnected, "site-a", base.Add(time.Minute), "new", nil)

	l.ClearBefore(base.Add(30 * time.Second))
	all := l.Query(AuditFilter{})
	require.Len(t, all, 1)
	require.Equal(t, "new", all[0].Details)
}

func TestAuditLatestN(t *testing.T) {
	l := NewAuditLog()
	base := time.Now()
	for i := 0; i < 5; i++ {
		l.Append(AuditSiteConnected, "site-a", base.Add(time.Duration(i)*time.Second), "", nil)
	}
	latest := l.LatestN(2)
	require.Len(t, latest, 2)
	require.Equal(t, uint64(4), latest[0].ID)
	require.Equal(t, uint64(5), latest[1].ID)

	require.Empty(t, l.LatestN(0))
	require.Len(t, l.LatestN(100), 5)
}
