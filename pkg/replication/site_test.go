package replication

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestActiveActiveConflictResolution reproduces the canonical
// conflicting-write scenario: site-a and site-b both start at logical
// time 0, each writes the same key concurrently (both stamp 1), and
// applying site-b's write at site-a must detect the conflict and pick
// the lexicographically lower site id as the winner.
func TestActiveActiveConflictResolution(t *testing.T) {
	a := NewSite("site-a")
	b := NewSite("site-b")

	recA := a.LocalWrite("k", []byte("va"))
	recB := b.LocalWrite("k", []byte("vb"))
	require.Equal(t, uint64(1), recA.LogicalTime)
	require.Equal(t, uint64(1), recB.LogicalTime)

	conflict, winner := a.ApplyRemote(recB)
	require.True(t, conflict)
	require.Equal(t, "site-a", winner.SiteID)
	require.Equal(t, uint64(1), a.ConflictsResolved())

	stored, ok := a.Get("k")
	require.True(t, ok)
	require.Equal(t, "site-a", stored.SiteID)
}

func TestApplyRemoteNoConflictAdvancesClock(t *testing.T) {
	a := NewSite("site-a")
	remote := Record{Key: "k", Value: []byte("v"), LogicalTime: 5, SiteID: "site-b"}

	conflict, winner := a.ApplyRemote(remote)
	require.False(t, conflict)
	require.Equal(t, remote, winner)
	require.Equal(t, uint64(5), a.LogicalClock())
}

func TestApplyRemoteStaleIsIgnored(t *testing.T) {
	a := NewSite("site-a")
	a.LocalWrite("k", []byte("fresh"))
	a.LocalWrite("k", []byte("fresher"))

	stale := Record{Key: "k", Value: []byte("old"), LogicalTime: 1, SiteID: "site-b"}
	conflict, winner := a.ApplyRemote(stale)
	require.False(t, conflict)
	require.Equal(t, []byte("fresher"), winner.Value)
}

func TestPendingForwardsDrain(t *testing.T) {
	a := NewSite("site-a")
	a.LocalWrite("k1", []byte("v1"))
	a.LocalWrite("k2", []byte("v2"))

	forwards := a.PendingForwards()
	require.Len(t, forwards, 2)
	require.Empty(t, a.PendingForwards())
}

func TestLinkStatusFlapCounting(t *testing.T) {
	a := NewSite("site-a")
	require.Equal(t, uint64(0), a.FlapCount())

	a.SetLinkStatus(LinkUp)
	require.Equal(t, uint64(1), a.FlapCount())

	a.SetLinkStatus(LinkUp)
	require.Equal(t, uint64(1), a.FlapCount(), "no flap while staying up")

	a.SetLinkStatus(LinkDegraded)
	a.SetLinkStatus(LinkUp)
	require.Equal(t, uint64(2), a.FlapCount())
}
