package replication

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/claudefs/claudefs/pkg/log"
)

// Record is a single replicated write, stamped with the logical time
// of the site that produced it.
type Record struct {
	Key         string
	Value       []byte
	LogicalTime uint64
	SiteID      string
}

// LinkStatus describes the health of the link to a peer site.
type LinkStatus int

const (
	LinkDown LinkStatus = iota
	LinkDegraded
	LinkUp
)

// Site tracks one site's logical clock, active-active conflict
// resolution bookkeeping, and link health to its peers.
type Site struct {
	mu sync.Mutex

	ID                string
	logicalClock      uint64
	conflictsResolved uint64
	pendingForwards   []Record
	store             map[string]Record

	linkStatus LinkStatus
	flapCount  uint64

	logger zerolog.Logger
}

func NewSite(id string) *Site {
	return &Site{ID: id, linkStatus: LinkDown, store: make(map[string]Record), logger: log.WithSite(id)}
}

// LocalWrite stamps a local write with the next logical time, applies
// it to the local store, and queues it for forwarding to peer sites.
func (s *Site) LocalWrite(key string, value []byte) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logicalClock++
	rec := Record{Key: key, Value: value, LogicalTime: s.logicalClock, SiteID: s.ID}
	s.store[key] = rec
	s.pendingForwards = append(s.pendingForwards, rec)
	return rec
}

// PendingForwards drains the queue of local writes awaiting forwarding.
func (s *Site) PendingForwards() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pendingForwards
	s.pendingForwards = nil
	return out
}

// Get returns the currently resolved value for key.
func (s *Site) Get(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store[key]
	return rec, ok
}

// ApplyRemote applies a record received from a peer site. If the key
// has a locally-held record whose logical time equals the remote
// record's, the two were written concurrently and the conflict is
// broken by comparing site ids lexicographically: the lower id wins.
// Otherwise the record with the greater logical time wins.
func (s *Site) ApplyRemote(remote Record) (conflict bool, winner Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, hasLocal := s.store[remote.Key]

	switch {
	case hasLocal && local.LogicalTime == remote.LogicalTime && local.SiteID != remote.SiteID:
		conflict = true
		s.conflictsResolved++
		if local.SiteID < remote.SiteID {
			winner = local
		} else {
			winner = remote
		}
		s.logger.Warn().Str("key", remote.Key).Str("winner_site", winner.SiteID).Msg("replication conflict resolved")
	case hasLocal && local.LogicalTime > remote.LogicalTime:
		winner = local
	default:
		winner = remote
	}

	s.store[remote.Key] = winner
	if remote.LogicalTime >= s.logicalClock {
		s.logicalClock = remote.LogicalTime
	}
	return conflict, winner
}

// LogicalClock returns the site's current logical time.
func (s *Site) LogicalClock() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logicalClock
}

// ConflictsResolved returns the number of write-write conflicts this
// site has resolved, whether or not its own write won.
func (s *Site) ConflictsResolved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflictsResolved
}

// SetLinkStatus transitions link health, bumping the flap counter
// whenever the link recovers to Up from a non-Up state.
func (s *Site) SetLinkStatus(status LinkStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == LinkUp && s.linkStatus != LinkUp {
		s.flapCount++
		s.logger.Info().Uint64("flap_count", s.flapCount).Msg("replication link recovered")
	}
	s.linkStatus = status
}

func (s *Site) LinkStatus() LinkStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkStatus
}

func (s *Site) FlapCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flapCount
}
