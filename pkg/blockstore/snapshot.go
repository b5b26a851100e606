package blockstore

import (
	"sync"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// SnapshotId is a monotonic, strictly increasing identifier.
type SnapshotId uint64

// SnapshotState is the lifecycle stage of a snapshot.
type SnapshotState uint8

const (
	SnapshotActive   SnapshotState = 0
	SnapshotDeleting SnapshotState = 1
	SnapshotDeleted  SnapshotState = 2
)

// Snapshot is a node in the snapshot DAG, identified by ID with an
// optional parent.
type Snapshot struct {
	ID        SnapshotId
	Name      string
	ParentID  *SnapshotId
	CreatedAt uint64
	State     SnapshotState
}

type cowKey struct {
	snapshot SnapshotId
	original BlockId
}

// SnapshotManager owns the CoW mapping and block reference counts for
// a device or partition; callers outside this package reference
// blocks and snapshots only by id.
type SnapshotManager struct {
	mu        sync.RWMutex
	snapshots map[SnapshotId]*Snapshot
	nextID    uint64
	cow       map[cowKey]BlockId
	refcounts map[BlockId]uint64
}

func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{
		snapshots: make(map[SnapshotId]*Snapshot),
		nextID:    1,
		cow:       make(map[cowKey]BlockId),
		refcounts: make(map[BlockId]uint64),
	}
}

// CreateSnapshot allocates a strictly increasing id and records the
// snapshot as Active. parent may be nil for a root snapshot.
func (m *SnapshotManager) CreateSnapshot(name string, parent *SnapshotId, nowSecs uint64) SnapshotId {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := SnapshotId(m.nextID)
	m.nextID++
	m.snapshots[id] = &Snapshot{
		ID:        id,
		Name:      name,
		ParentID:  parent,
		CreatedAt: nowSecs,
		State:     SnapshotActive,
	}
	return id
}

// DeleteSnapshot transitions the snapshot to Deleting; it becomes a GC
// candidate once every block it references reaches refcount 0.
func (m *SnapshotManager) DeleteSnapshot(id SnapshotId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindSnapshotNotFound, "snapshot not found")
	}
	s.State = SnapshotDeleting
	return nil
}

// CowBlock records a copy-on-write mapping; only permitted while the
// snapshot is Active.
func (m *SnapshotManager) CowBlock(id SnapshotId, original, copy BlockId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindSnapshotNotFound, "snapshot not found")
	}
	if s.State != SnapshotActive {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindInvalidSnapshotState, "cow_block requires an active snapshot")
	}
	m.cow[cowKey{snapshot: id, original: original}] = copy
	return nil
}

// ResolveBlock returns the CoW copy for (snapshot, block) if one
// exists, else the original block unchanged.
func (m *SnapshotManager) ResolveBlock(id SnapshotId, block BlockId) BlockId {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if copy, ok := m.cow[cowKey{snapshot: id, original: block}]; ok {
		return copy
	}
	return block
}

// IncrementRef bumps a block's reference count.
func (m *SnapshotManager) IncrementRef(block BlockId) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refcounts[block]++
	return m.refcounts[block]
}

// DecrementRef decrements a block's reference count, saturating at 0.
func (m *SnapshotManager) DecrementRef(block BlockId) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refcounts[block] == 0 {
		return 0
	}
	m.refcounts[block]--
	return m.refcounts[block]
}

// RefCount returns the current reference count of block.
func (m *SnapshotManager) RefCount(block BlockId) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refcounts[block]
}

// GCCandidates returns snapshots in Deleting state whose every
// referenced block has refcount 0.
func (m *SnapshotManager) GCCandidates() []SnapshotId {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SnapshotId
	for id, s := range m.snapshots {
		if s.State != SnapshotDeleting {
			continue
		}
		if m.allBlocksFree(id) {
			out = append(out, id)
		}
	}
	return out
}

func (m *SnapshotManager) allBlocksFree(id SnapshotId) bool {
	for k, copy := range m.cow {
		if k.snapshot != id {
			continue
		}
		if m.refcounts[k.original] != 0 || m.refcounts[copy] != 0 {
			return false
		}
	}
	return true
}
