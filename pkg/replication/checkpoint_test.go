package replication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckpointManagerRollingWindow(t *testing.T) {
	cm := NewCheckpointManager(2)
	cursors := NewCursorSet()
	now := time.Now()

	cursors.Advance("site-a", "shard-0", 1)
	cm.Snapshot(cursors, now)
	cursors.Advance("site-a", "shard-0", 2)
	cm.Snapshot(cursors, now)
	cursors.Advance("site-a", "shard-0", 3)
	cm.Snapshot(cursors, now)

	cps := cm.Checkpoints()
	require.Len(t, cps, 2)
	require.Equal(t, uint64(2), cps[0].ID)
	require.Equal(t, uint64(3), cps[1].ID)
}

func TestCheckpointIDsMonotonic(t *testing.T) {
	cm := NewCheckpointManager(0)
	cursors := NewCursorSet()
	now := time.Now()
	for i := 1; i <= 5; i++ {
		cp := cm.Snapshot(cursors, now)
		require.Equal(t, uint64(i), cp.ID)
	}
}

func TestCheckpointLatest(t *testing.T) {
	cm := NewCheckpointManager(3)
	_, ok := cm.Latest()
	require.False(t, ok)

	cursors := NewCursorSet()
	cp := cm.Snapshot(cursors, time.Now())
	latest, ok := cm.Latest()
	require.True(t, ok)
	require.Equal(t, cp.ID, latest.ID)
}
