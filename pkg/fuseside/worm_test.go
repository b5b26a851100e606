package fuseside

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWormImmutableBlocksAll(t *testing.T) {
	r := NewWormRegistry()
	r.SetMode(1, WormMode{Kind: WormImmutable})
	now := time.Now()

	_, blocked := r.IsWriteBlocked(1, now)
	require.True(t, blocked)
	_, blocked = r.IsDeleteBlocked(1, now)
	require.True(t, blocked)
	_, blocked = r.IsTruncateBlocked(1, now)
	require.True(t, blocked)
}

func TestWormAppendOnlyAllowsAppendOnly(t *testing.T) {
	r := NewWormRegistry()
	r.SetMode(1, WormMode{Kind: WormAppendOnly})
	now := time.Now()

	_, blocked := r.IsWriteBlocked(1, now)
	require.True(t, blocked)
	require.True(t, r.IsAppendAllowed(1, now))
}

func TestWormRetentionBoundary(t *testing.T) {
	r := NewWormRegistry()
	now := time.Now()
	expires := now.Add(time.Hour)
	r.SetMode(1, WormMode{Kind: WormRetention, ExpiresAt: expires})

	_, blocked := r.IsWriteBlocked(1, now)
	require.True(t, blocked, "strictly before expiry blocks")

	_, blocked = r.IsWriteBlocked(1, expires)
	require.False(t, blocked, "at expiry writes are allowed")
}

func TestWormLegalHoldSaveRestore(t *testing.T) {
	r := NewWormRegistry()
	r.SetMode(1, WormMode{Kind: WormAppendOnly})

	r.PlaceLegalHold("hold-1", []uint64{1, 2})
	mode := r.Mode(1)
	require.Equal(t, WormLegalHold, mode.Kind)
	require.Equal(t, "hold-1", mode.HoldID)

	r.LiftLegalHold([]uint64{1, 2})
	require.Equal(t, WormAppendOnly, r.Mode(1).Kind)
	require.Equal(t, WormNone, r.Mode(2).Kind)
}

func TestExpiredRetention(t *testing.T) {
	r := NewWormRegistry()
	now := time.Now()
	r.SetMode(1, WormMode{Kind: WormRetention, ExpiresAt: now.Add(-time.Hour)})
	r.SetMode(2, WormMode{Kind: WormRetention, ExpiresAt: now.Add(time.Hour)})

	expired := r.ExpiredRetention(now)
	require.Equal(t, []uint64{1}, expired)
}
