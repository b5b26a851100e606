package fuseside

import (
	"sync"
	"time"

	"github.com/claudefs/claudefs/pkg/log"
)

// CoherenceProtocol selects the lease/invalidation discipline.
type CoherenceProtocol int

const (
	CloseToOpen CoherenceProtocol = iota
	SessionBased
	Strict
)

// LeaseState is the lifecycle of a cache lease.
type LeaseState int

const (
	LeaseActive LeaseState = iota
	LeaseExpired
	LeaseRevoked
	LeaseRenewing
)

// LeaseID identifies one lease.
type LeaseID uint64

// Lease grants a client exclusive cache validity over an inode until
// expiresAt.
type Lease struct {
	ID        LeaseID
	Inode     uint64
	Client    string
	ExpiresAt time.Time
	State     LeaseState
}

// InvalidationReason classifies why a lease was invalidated.
type InvalidationReason int

const (
	InvalidationWrite InvalidationReason = iota
	InvalidationRevoke
	InvalidationExpire
)

// Invalidation records one cache invalidation event pending delivery
// to clients.
type Invalidation struct {
	Inode   uint64
	Reason  InvalidationReason
	Version uint64
}

// CoherenceManager grants, revokes, and expires leases and buffers
// pending invalidations for drain.
type CoherenceManager struct {
	mu       sync.Mutex
	protocol CoherenceProtocol
	nextID   uint64
	leases   map[LeaseID]*Lease
	byInode  map[uint64][]LeaseID

	pending []Invalidation
}

func NewCoherenceManager(protocol CoherenceProtocol) *CoherenceManager {
	return &CoherenceManager{
		protocol: protocol,
		leases:   make(map[LeaseID]*Lease),
		byInode:  make(map[uint64][]LeaseID),
	}
}

func (m *CoherenceManager) GrantLease(inode uint64, client string, expiresAt time.Time) LeaseID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := LeaseID(m.nextID)
	m.leases[id] = &Lease{ID: id, Inode: inode, Client: client, ExpiresAt: expiresAt, State: LeaseActive}
	m.byInode[inode] = append(m.byInode[inode], id)
	return id
}

// RevokeLease revokes every active lease on inode and returns the
// resulting invalidation.
func (m *CoherenceManager) RevokeLease(inode uint64, version uint64) Invalidation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.byInode[inode] {
		if l, ok := m.leases[id]; ok && l.State == LeaseActive {
			l.State = LeaseRevoked
		}
	}
	inv := Invalidation{Inode: inode, Reason: InvalidationRevoke, Version: version}
	m.pending = append(m.pending, inv)
	log.WithInode(inode).Info().Uint64("version", version).Msg("cache leases revoked")
	return inv
}

// ExpireStaleLeases transitions every active lease whose expiry has
// passed to Expired.
func (m *CoherenceManager) ExpireStaleLeases(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.leases {
		if l.State == LeaseActive && !now.Before(l.ExpiresAt) {
			l.State = LeaseExpired
			n++
		}
	}
	return n
}

func (m *CoherenceManager) Invalidate(inode uint64, reason InvalidationReason, version uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, Invalidation{Inode: inode, Reason: reason, Version: version})
}

// DrainInvalidations returns and clears the pending invalidation
// queue.
func (m *CoherenceManager) DrainInvalidations() []Invalidation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}

// IsCoherent reports whether inode has a valid active lease.
func (m *CoherenceManager) IsCoherent(inode uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.byInode[inode] {
		if l, ok := m.leases[id]; ok && l.State == LeaseActive {
			return true
		}
	}
	return false
}
