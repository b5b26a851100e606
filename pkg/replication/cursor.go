package replication

import (
	"sync"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

// CursorKey identifies one replication stream.
type CursorKey struct {
	SiteID  string
	ShardID string
}

// Cursor is a point-in-time (site, shard, seq) tuple.
type Cursor struct {
	SiteID  string
	ShardID string
	LastSeq uint64
}

// CursorSet tracks last_seq per (site_id, shard_id), advanced
// monotonically.
type CursorSet struct {
	mu      sync.RWMutex
	cursors map[CursorKey]uint64
}

func NewCursorSet() *CursorSet {
	return &CursorSet{cursors: make(map[CursorKey]uint64)}
}

// Advance bumps a cursor to seq; seq must be >= the current value.
func (c *CursorSet) Advance(siteID, shardID string, seq uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := CursorKey{SiteID: siteID, ShardID: shardID}
	if cur, ok := c.cursors[key]; ok && seq < cur {
		log.WithShard(shardID).Warn().Str("site_id", siteID).Uint64("current", cur).Uint64("attempted", seq).Msg("cursor advance rejected, would regress")
		return claudeerr.New(claudeerr.DomainReplication, claudeerr.KindCursorRegression, "cursor advance would regress last_seq")
	}
	c.cursors[key] = seq
	return nil
}

// Get returns the last_seq for (siteID, shardID), if known.
func (c *CursorSet) Get(siteID, shardID string) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cursors[CursorKey{SiteID: siteID, ShardID: shardID}]
	return v, ok
}

// All returns every cursor as a sorted-by-nothing-in-particular slice;
// callers that need determinism sort by (site_id, shard_id) themselves
// (see Checkpoint.Fingerprint).
func (c *CursorSet) All() []Cursor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Cursor, 0, len(c.cursors))
	for k, v := range c.cursors {
		out = append(out, Cursor{SiteID: k.SiteID, ShardID: k.ShardID, LastSeq: v})
	}
	return out
}

// maxSeq returns the greatest last_seq across every tracked cursor.
func (c *CursorSet) maxSeq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var max uint64
	for _, v := range c.cursors {
		if v > max {
			max = v
		}
	}
	return max
}

// LagVs reports how far ahead self is of other, saturating at 0.
func (c *CursorSet) LagVs(other *CursorSet) uint64 {
	selfMax := c.maxSeq()
	otherMax := other.maxSeq()
	if selfMax <= otherMax {
		return 0
	}
	return selfMax - otherMax
}
