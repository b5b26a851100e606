package replication

import (
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Checkpoint is a point-in-time snapshot of a CursorSet.
type Checkpoint struct {
	ID          uint64
	CreatedAt   time.Time
	Cursors     []Cursor
	Fingerprint uint64
}

// CheckpointManager keeps a rolling window of the last max_checkpoints
// snapshots, each with a monotonically increasing id.
type CheckpointManager struct {
	maxCheckpoints int
	nextID         uint64
	checkpoints    []Checkpoint
}

func NewCheckpointManager(maxCheckpoints int) *CheckpointManager {
	return &CheckpointManager{maxCheckpoints: maxCheckpoints}
}

// Snapshot records the current state of cursors as a new checkpoint,
// evicting the oldest entry once the window is full.
func (m *CheckpointManager) Snapshot(cursors *CursorSet, now time.Time) Checkpoint {
	m.nextID++
	snap := cursors.All()
	cp := Checkpoint{
		ID:          m.nextID,
		CreatedAt:   now,
		Cursors:     snap,
		Fingerprint: fingerprint(snap),
	}
	m.checkpoints = append(m.checkpoints, cp)
	if m.maxCheckpoints > 0 && len(m.checkpoints) > m.maxCheckpoints {
		m.checkpoints = m.checkpoints[len(m.checkpoints)-m.maxCheckpoints:]
	}
	return cp
}

// Checkpoints returns all retained checkpoints, oldest first.
func (m *CheckpointManager) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(m.checkpoints))
	copy(out, m.checkpoints)
	return out
}

// Latest returns the most recently taken checkpoint, if any.
func (m *CheckpointManager) Latest() (Checkpoint, bool) {
	if len(m.checkpoints) == 0 {
		return Checkpoint{}, false
	}
	return m.checkpoints[len(m.checkpoints)-1], true
}

// fingerprint hashes a cursor set deterministically regardless of the
// order it was collected in: cursors are sorted by (site_id, shard_id)
// before hashing.
func fingerprint(cursors []Cursor) uint64 {
	sorted := make([]Cursor, len(cursors))
	copy(sorted, cursors)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SiteID != sorted[j].SiteID {
			return sorted[i].SiteID < sorted[j].SiteID
		}
		return sorted[i].ShardID < sorted[j].ShardID
	})

	h := xxhash.New()
	var buf [8]byte
	for _, c := range sorted {
		h.WriteString(c.SiteID)
		h.Write([]byte{0})
		h.WriteString(c.ShardID)
		h.Write([]byte{0})
		putUint64(buf[:], c.LastSeq)
		h.Write(buf[:])
	}
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
