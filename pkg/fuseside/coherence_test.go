package fuseside

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoherenceGrantAndIsCoherent(t *testing.T) {
	m := NewCoherenceManager(CloseToOpen)
	require.False(t, m.IsCoherent(1))

	m.GrantLease(1, "client-a", time.Now().Add(time.Hour))
	require.True(t, m.IsCoherent(1))
}

func TestCoherenceRevokeLease(t *testing.T) {
	m := NewCoherenceManager(Strict)
	m.GrantLease(1, "client-a", time.Now().Add(time.Hour))

	inv := m.RevokeLease(1, 7)
	require.Equal(t, InvalidationRevoke, inv.Reason)
	require.False(t, m.IsCoherent(1))
}

func TestCoherenceExpireStaleLeases(t *testing.T) {
	m := NewCoherenceManager(SessionBased)
	now := time.Now()
	m.GrantLease(1, "client-a", now.Add(-time.Minute))

	n := m.ExpireStaleLeases(now)
	require.Equal(t, 1, n)
	require.False(t, m.IsCoherent(1))
}

func TestCoherenceDrainInvalidations(t *testing.T) {
	m := NewCoherenceManager(CloseToOpen)
	m.Invalidate(1, InvalidationWrite, 1)
	m.Invalidate(2, InvalidationWrite, 2)

	drained := m.DrainInvalidations()
	require.Len(t, drained, 2)
	require.Empty(t, m.DrainInvalidations())
}
