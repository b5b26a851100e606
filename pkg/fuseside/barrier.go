package fuseside

import (
	"sync"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// BarrierId identifies one fsync barrier.
type BarrierId uint64

// BarrierState is the lifecycle of an fsync barrier.
type BarrierState int

const (
	BarrierPending BarrierState = iota
	BarrierFlushing
	BarrierCommitted
	BarrierFailed
)

// BarrierKind distinguishes the operation a barrier guards.
type BarrierKind int

const (
	BarrierFsync BarrierKind = iota
	BarrierFdatasync
)

type barrier struct {
	id     BarrierId
	inode  uint64
	kind   BarrierKind
	state  BarrierState
	reason string
}

// BarrierManager tracks the lifecycle of outstanding fsync barriers.
type BarrierManager struct {
	mu       sync.Mutex
	nextID   uint64
	barriers map[BarrierId]*barrier

	pending   int
	committed int
	failed    int
}

func NewBarrierManager() *BarrierManager {
	return &BarrierManager{barriers: make(map[BarrierId]*barrier)}
}

func (m *BarrierManager) CreateBarrier(inode uint64, kind BarrierKind) BarrierId {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := BarrierId(m.nextID)
	m.barriers[id] = &barrier{id: id, inode: inode, kind: kind, state: BarrierPending}
	m.pending++
	return id
}

func (m *BarrierManager) get(id BarrierId) (*barrier, error) {
	b, ok := m.barriers[id]
	if !ok {
		return nil, claudeerr.New(claudeerr.DomainFuse, claudeerr.KindInvalidArgument, "unknown barrier id")
	}
	return b, nil
}

func (m *BarrierManager) FlushBarrier(id BarrierId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return err
	}
	if b.state != BarrierPending {
		return claudeerr.New(claudeerr.DomainFuse, claudeerr.KindInvalidStateTransition, "flush_barrier requires Pending state")
	}
	b.state = BarrierFlushing
	return nil
}

func (m *BarrierManager) CommitBarrier(id BarrierId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return err
	}
	if b.state != BarrierFlushing && b.state != BarrierPending {
		return claudeerr.New(claudeerr.DomainFuse, claudeerr.KindInvalidStateTransition, "commit_barrier requires Pending or Flushing state")
	}
	m.pending--
	b.state = BarrierCommitted
	m.committed++
	return nil
}

func (m *BarrierManager) FailBarrier(id BarrierId, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.get(id)
	if err != nil {
		return err
	}
	if b.state == BarrierCommitted || b.state == BarrierFailed {
		return claudeerr.New(claudeerr.DomainFuse, claudeerr.KindInvalidStateTransition, "fail_barrier requires a non-terminal state")
	}
	m.pending--
	b.state = BarrierFailed
	b.reason = reason
	m.failed++
	return nil
}

func (m *BarrierManager) Counts() (pending, committed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending, m.committed, m.failed
}

// FsyncMode selects how writes are flushed to the journal.
type FsyncMode int

const (
	FsyncSync FsyncMode = iota
	FsyncAsync
	FsyncOrdered
)

// DefaultOrderedDelayMs is the default flush delay budget for Ordered
// mode.
const DefaultOrderedDelayMs = 100

type journalEntry struct {
	id      uint64
	inode   uint64
	op      string
	version uint64
}

// Journal is an append-only log of pending filesystem operations,
// bounded by max_entries.
type Journal struct {
	mu         sync.Mutex
	maxEntries int
	nextID     uint64
	entries    []journalEntry
}

func NewJournal(maxEntries int) *Journal {
	return &Journal{maxEntries: maxEntries}
}

// Append adds an entry, returning its monotonic id, or JournalFull if
// the journal is at capacity.
func (j *Journal) Append(inode uint64, op string, version uint64) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) >= j.maxEntries {
		return 0, claudeerr.New(claudeerr.DomainFuse, claudeerr.KindJournalFull, "journal is at max_entries capacity")
	}
	j.nextID++
	j.entries = append(j.entries, journalEntry{id: j.nextID, inode: inode, op: op, version: version})
	return j.nextID, nil
}

// CommitUpTo drops every entry with id <= id.
func (j *Journal) CommitUpTo(id uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	kept := j.entries[:0]
	for _, e := range j.entries {
		if e.id > id {
			kept = append(kept, e)
		}
	}
	j.entries = kept
}

func (j *Journal) PendingCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
