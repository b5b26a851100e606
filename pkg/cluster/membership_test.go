package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func defaultParams() Params {
	return Params{
		ProbeInterval:    100 * time.Millisecond,
		ProbeTimeout:     50 * time.Millisecond,
		SuspicionTimeout: 200 * time.Millisecond,
		IndirectProbes:   3,
		GossipInterval:   time.Second,
		GossipFanout:     3,
	}
}

func TestMarkAliveAfterSuspectedReturnsToAlive(t *testing.T) {
	m := NewMembership("self", defaultParams())
	now := time.Now()
	m.Join("n1", "addr1", nil, now)

	ok, err := m.MarkSuspected("n1", now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.MarkSuspected("n1", now)
	require.NoError(t, err)
	require.False(t, ok, "second suspicion while already suspected is a no-op")

	require.NoError(t, m.MarkAlive("n1", 1, now))
	mem, _ := m.Get("n1")
	require.Equal(t, Alive, mem.State)

	ok, err = m.MarkSuspected("n1", now)
	require.NoError(t, err)
	require.True(t, ok, "suspected again after recovery")
}

func TestMarkAliveRejectsStaleIncarnation(t *testing.T) {
	m := NewMembership("self", defaultParams())
	now := time.Now()
	m.Join("n1", "addr1", nil, now)
	require.NoError(t, m.MarkAlive("n1", 5, now))

	_, err := m.MarkSuspected("n1", now)
	require.NoError(t, err)

	err = m.MarkAlive("n1", 5, now)
	require.Error(t, err)
}

func TestMarkDeadRequiresSuspicionTimeout(t *testing.T) {
	m := NewMembership("self", defaultParams())
	now := time.Now()
	m.Join("n1", "addr1", nil, now)
	m.MarkSuspected("n1", now)

	require.NoError(t, m.MarkDead("n1", now.Add(10*time.Millisecond)))
	mem, _ := m.Get("n1")
	require.Equal(t, Suspected, mem.State, "too soon to be marked dead")

	require.NoError(t, m.MarkDead("n1", now.Add(250*time.Millisecond)))
	mem, _ = m.Get("n1")
	require.Equal(t, Dead, mem.State)
}

func TestIncarnationMonotonicNonDecreasing(t *testing.T) {
	m := NewMembership("self", defaultParams())
	now := time.Now()
	m.Join("n1", "addr1", nil, now)

	var last uint64
	for i := uint64(1); i <= 5; i++ {
		m.MarkSuspected("n1", now)
		require.NoError(t, m.MarkAlive("n1", i, now))
		mem, _ := m.Get("n1")
		require.GreaterOrEqual(t, mem.Incarnation, last)
		last = mem.Incarnation
	}
}

func TestListenersFireSynchronouslyInOrder(t *testing.T) {
	m := NewMembership("self", defaultParams())
	now := time.Now()
	var kinds []EventKind
	m.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	m.Join("n1", "addr1", nil, now)
	m.MarkSuspected("n1", now)
	m.MarkAlive("n1", 1, now)

	require.Equal(t, []EventKind{EventJoined, EventSuspected, EventRecovered}, kinds)
}

func TestUnknownMemberOperationsError(t *testing.T) {
	m := NewMembership("self", defaultParams())
	_, err := m.MarkSuspected("ghost", time.Now())
	require.Error(t, err)
}
