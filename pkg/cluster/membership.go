package cluster

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

// MemberState is a node's locally observed lifecycle stage.
type MemberState int

const (
	Alive MemberState = iota
	Suspected
	Dead
	Left
)

// Member is one entry in the local membership view.
type Member struct {
	NodeID      string
	Address     string
	State       MemberState
	Incarnation uint64
	LastSeen    time.Time
	Metadata    map[string]string
}

// EventKind distinguishes the membership transitions listeners observe.
type EventKind int

const (
	EventJoined EventKind = iota
	EventLeft
	EventSuspected
	EventFailed
	EventRecovered
)

// Event is published synchronously to every listener on each
// transition.
type Event struct {
	Kind   EventKind
	Member Member
}

// Listener MUST NOT call back into the Membership it was registered
// on: listeners run synchronously under the member-map lock so events
// fire in transition order, and a reentrant call would deadlock.
type Listener func(Event)

// Params tunes SWIM timing. probe/gossip intervals are driven by a
// caller-owned ticker; this type holds no timers of its own.
type Params struct {
	ProbeInterval     time.Duration
	ProbeTimeout      time.Duration
	SuspicionTimeout  time.Duration
	IndirectProbes    int
	GossipInterval    time.Duration
	GossipFanout      int
}

// Membership is the local SWIM view: one member map guarded by a
// single lock, with listeners invoked synchronously inside it.
type Membership struct {
	params Params
	selfID string

	mu          sync.Mutex
	members     map[string]*Member
	incarnation uint64
	listeners   []Listener

	logger zerolog.Logger
}

func NewMembership(selfID string, params Params) *Membership {
	return &Membership{
		params:  params,
		selfID:  selfID,
		members: make(map[string]*Member),
		logger:  log.WithComponent("cluster"),
	}
}

func (m *Membership) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Membership) publish(ev Event) {
	for _, l := range m.listeners {
		l(ev)
	}
}

// Join registers a new member as Alive.
func (m *Membership) Join(nodeID, address string, metadata map[string]string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := &Member{NodeID: nodeID, Address: address, State: Alive, Incarnation: 0, LastSeen: now, Metadata: metadata}
	m.members[nodeID] = mem
	m.publish(Event{Kind: EventJoined, Member: *mem})
}

// Get returns a copy of the member record, if known.
func (m *Membership) Get(nodeID string) (Member, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[nodeID]
	if !ok {
		return Member{}, false
	}
	return *mem, true
}

// Members returns a snapshot of every known member.
func (m *Membership) Members() []Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Member, 0, len(m.members))
	for _, mem := range m.members {
		out = append(out, *mem)
	}
	return out
}

// MarkSuspected transitions Alive→Suspected on probe timeout. Returns
// true only the first time a given member is suspected (subsequent
// calls while already Suspected are no-ops, returning false).
func (m *Membership) MarkSuspected(nodeID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[nodeID]
	if !ok {
		return false, claudeerr.New(claudeerr.DomainCluster, claudeerr.KindUnknownMember, "unknown member")
	}
	if mem.State != Alive {
		return false, nil
	}
	mem.State = Suspected
	mem.LastSeen = now
	m.logger.Warn().Str("node_id", nodeID).Msg("member suspected")
	m.publish(Event{Kind: EventSuspected, Member: *mem})
	return true, nil
}

// MarkDead transitions Suspected→Dead once suspicion_timeout has
// elapsed without a refutation.
func (m *Membership) MarkDead(nodeID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[nodeID]
	if !ok {
		return claudeerr.New(claudeerr.DomainCluster, claudeerr.KindUnknownMember, "unknown member")
	}
	if mem.State != Suspected {
		return nil
	}
	if now.Sub(mem.LastSeen) < m.params.SuspicionTimeout {
		return nil
	}
	mem.State = Dead
	mem.LastSeen = now
	m.logger.Warn().Str("node_id", nodeID).Msg("member marked dead")
	m.publish(Event{Kind: EventFailed, Member: *mem})
	return nil
}

// MarkAlive refutes a stale suspicion/death. The incoming incarnation
// must be strictly greater than the member's current one, else the
// refutation is rejected as stale.
func (m *Membership) MarkAlive(nodeID string, incarnation uint64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[nodeID]
	if !ok {
		return claudeerr.New(claudeerr.DomainCluster, claudeerr.KindUnknownMember, "unknown member")
	}
	if mem.State != Alive && incarnation <= mem.Incarnation {
		return claudeerr.New(claudeerr.DomainCluster, claudeerr.KindStaleIncarnation, "refutation incarnation not strictly greater")
	}
	wasAlive := mem.State == Alive
	mem.State = Alive
	mem.Incarnation = incarnation
	mem.LastSeen = now
	if !wasAlive {
		m.logger.Info().Str("node_id", nodeID).Msg("member recovered")
		m.publish(Event{Kind: EventRecovered, Member: *mem})
	}
	return nil
}

// RefuteSelf bumps this node's own incarnation to refute a suspicion
// raised about it: refutation bumps the member's incarnation to the
// local incarnation counter.
func (m *Membership) RefuteSelf(now time.Time) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incarnation++
	if mem, ok := m.members[m.selfID]; ok {
		mem.State = Alive
		mem.Incarnation = m.incarnation
		mem.LastSeen = now
	}
	return m.incarnation
}

// Leave transitions a member to Left.
func (m *Membership) Leave(nodeID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[nodeID]
	if !ok {
		return claudeerr.New(claudeerr.DomainCluster, claudeerr.KindUnknownMember, "unknown member")
	}
	mem.State = Left
	mem.LastSeen = now
	m.publish(Event{Kind: EventLeft, Member: *mem})
	return nil
}
