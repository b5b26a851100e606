package transport

import (
	"sync"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// DrainState is a connection's lifecycle stage during graceful
// shutdown or scaling events.
type DrainState int32

const (
	Active DrainState = iota
	Draining
	Drained
	ForceClosed
)

// DrainListener is invoked synchronously on every state transition.
type DrainListener func(from, to DrainState)

// DrainController tracks in-flight request count against a lifecycle
// state, so a connection can be taken out of rotation without
// dropping requests already underway.
type DrainController struct {
	mu        sync.Mutex
	state     DrainState
	inFlight  int
	listeners []DrainListener
}

func NewDrainController() *DrainController {
	return &DrainController{state: Active}
}

func (d *DrainController) State() DrainState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DrainController) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

func (d *DrainController) AddListener(l DrainListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Handle is a scoped in-flight slot; Release must be called exactly
// once.
type Handle struct {
	d        *DrainController
	released bool
}

// Release decrements the in-flight counter. Safe to call once.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.d.mu.Lock()
	h.d.inFlight--
	h.d.mu.Unlock()
}

// TryAcquire returns a scoped handle only while Active.
func (d *DrainController) TryAcquire() (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Active {
		return nil, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindExhausted, "connection is not active")
	}
	d.inFlight++
	return &Handle{d: d}, nil
}

func (d *DrainController) transition(to DrainState) {
	from := d.state
	d.state = to
	listeners := append([]DrainListener(nil), d.listeners...)
	for _, l := range listeners {
		l(from, to)
	}
}

// BeginDrain transitions Active→Draining and rejects new acquisitions.
func (d *DrainController) BeginDrain() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Active {
		return
	}
	d.transition(Draining)
}

// CheckDrained transitions Draining→Drained iff in-flight is 0,
// returning whether the connection is now drained.
func (d *DrainController) CheckDrained() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Drained {
		return true
	}
	if d.state == Draining && d.inFlight == 0 {
		d.transition(Drained)
		return true
	}
	return false
}

// ForceClose moves any state to ForceClosed.
func (d *DrainController) ForceClose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transition(ForceClosed)
}

// Reset returns to Active with in-flight 0.
func (d *DrainController) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = 0
	d.transition(Active)
}
