package fuseside

import (
	"sync"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// IOSize classifies a single I/O request by transfer size.
type IOSize int

const (
	SizeSmall IOSize = iota
	SizeMedium
	SizeLarge
	SizeHuge
)

func classifySize(n uint64) IOSize {
	switch {
	case n < 4*1024:
		return SizeSmall
	case n < 128*1024:
		return SizeMedium
	case n < 1024*1024:
		return SizeLarge
	default:
		return SizeHuge
	}
}

// AccessPattern is the detected access pattern for an inode.
type AccessPattern int

const (
	PatternMixed AccessPattern = iota
	PatternSequential
	PatternRandom
)

type accessHistory struct {
	lastOffset uint64
	count      uint64
	run        uint64
}

func (h *accessHistory) observe(offset uint64, size uint64) {
	if h.count > 0 && offset == h.lastOffset {
		h.run++
	} else {
		h.run = 1
	}
	h.lastOffset = offset + size
	h.count++
}

func (h *accessHistory) pattern() AccessPattern {
	switch {
	case h.count >= 5 && h.run >= 5:
		return PatternSequential
	case h.count >= 3 && h.run <= 2:
		return PatternRandom
	default:
		return PatternMixed
	}
}

// Route is the routing decision for one I/O request.
type Route int

const (
	RouteStandard Route = iota
	RoutePassthrough
	RouteZeroCopy
	RouteReadahead
)

// RouteDecision carries the chosen route plus any route-specific data.
type RouteDecision struct {
	Route         Route
	PrefetchBytes uint64
}

// PassthroughState is whether the passthrough data path is active.
type PassthroughState int

const (
	PassthroughInactive PassthroughState = iota
	PassthroughActive
)

// RouterConfig holds the thresholds driving routing decisions.
type RouterConfig struct {
	ZeroCopyThreshold uint64
	LargeIOThreshold  uint64
	ReadaheadEnabled  bool
	InflightCapacity  int
}

// Router classifies I/O requests and routes them to the appropriate
// data path, tracking per-inode access history and in-flight request
// ids.
type Router struct {
	cfg RouterConfig

	mu      sync.Mutex
	history map[uint64]*accessHistory
	inflight map[uint64]bool

	passthrough PassthroughState
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		cfg:      cfg,
		history:  make(map[uint64]*accessHistory),
		inflight: make(map[uint64]bool),
	}
}

func (r *Router) SetPassthrough(state PassthroughState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passthrough = state
}

// Submit claims an inflight slot for requestID, failing with Busy
// beyond capacity.
func (r *Router) Submit(requestID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[requestID] {
		return nil
	}
	if len(r.inflight) >= r.cfg.InflightCapacity {
		return claudeerr.New(claudeerr.DomainFuse, claudeerr.KindBusy, "inflight tracker is at capacity")
	}
	r.inflight[requestID] = true
	return nil
}

func (r *Router) Complete(requestID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, requestID)
}

// Route decides how to service a request, updating access history
// for the inode as a side effect (except for already in-flight
// re-routes, which do not perturb history).
func (r *Router) Route(requestID, inode uint64, offset, size uint64, isRead bool) RouteDecision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inflight[requestID] {
		return RouteDecision{Route: RouteStandard}
	}

	h, ok := r.history[inode]
	if !ok {
		h = &accessHistory{}
		r.history[inode] = h
	}
	h.observe(offset, size)

	if r.passthrough == PassthroughActive && size > r.cfg.ZeroCopyThreshold {
		return RouteDecision{Route: RoutePassthrough}
	}
	if size > r.cfg.LargeIOThreshold {
		return RouteDecision{Route: RouteZeroCopy}
	}
	if isRead && r.cfg.ReadaheadEnabled && h.pattern() == PatternSequential {
		return RouteDecision{Route: RouteReadahead, PrefetchBytes: 2 * size}
	}
	return RouteDecision{Route: RouteStandard}
}

// ClassifySize reports the IOSize bucket for a transfer of n bytes.
func ClassifySize(n uint64) IOSize {
	return classifySize(n)
}

func (r *Router) Pattern(inode uint64) AccessPattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.history[inode]
	if !ok {
		return PatternMixed
	}
	return h.pattern()
}

func (r *Router) InflightCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}
