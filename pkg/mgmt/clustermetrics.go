package mgmt

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// HistogramBuckets is the fixed bucket layout for cluster metrics
// histograms. Kept as a hand-rolled type rather than
// client_golang's prometheus.Histogram because that type does not
// guarantee this exact bucket set bit-for-bit across library versions.
var HistogramBuckets = []float64{100, 500, 1000, 5000, 10000, 50000}

// Counter is a monotonic, lock-free u64 counter.
type Counter struct {
	v uint64
}

func (c *Counter) Inc()              { atomic.AddUint64(&c.v, 1) }
func (c *Counter) Add(delta uint64)  { atomic.AddUint64(&c.v, delta) }
func (c *Counter) Value() uint64     { return atomic.LoadUint64(&c.v) }

// Gauge is an f64 value updatable via inc/dec/add/sub/set, implemented
// with an atomic bit-pattern (math.Float64bits) rather than a mutex.
type Gauge struct {
	bits uint64
}

func (g *Gauge) Set(v float64) { atomic.StoreUint64(&g.bits, math.Float64bits(v)) }
func (g *Gauge) Value() float64 { return math.Float64frombits(atomic.LoadUint64(&g.bits)) }

func (g *Gauge) apply(delta float64) {
	for {
		old := atomic.LoadUint64(&g.bits)
		newV := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(&g.bits, old, math.Float64bits(newV)) {
			return
		}
	}
}

func (g *Gauge) Inc()          { g.apply(1) }
func (g *Gauge) Dec()          { g.apply(-1) }
func (g *Gauge) Add(v float64) { g.apply(v) }
func (g *Gauge) Sub(v float64) { g.apply(-v) }

// Histogram tracks observations against the fixed bucket boundaries in
// HistogramBuckets, plus total count and sum.
type Histogram struct {
	mu      sync.Mutex
	buckets []uint64 // one per boundary, cumulative-free (per-bucket count)
	count   uint64
	sum     float64
}

func NewHistogram() *Histogram {
	return &Histogram{buckets: make([]uint64, len(HistogramBuckets))}
}

func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	idx := sort.SearchFloat64s(HistogramBuckets, v)
	if idx < len(h.buckets) {
		h.buckets[idx]++
	}
}

// CumulativeBuckets returns (boundary, cumulative count) pairs
// matching Prometheus's le-bucket semantics, plus the +Inf bucket.
func (h *Histogram) CumulativeBuckets() ([]float64, []uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bounds := append([]float64{}, HistogramBuckets...)
	bounds = append(bounds, math.Inf(1))
	counts := make([]uint64, len(bounds))
	var running uint64
	for i := range HistogramBuckets {
		running += h.buckets[i]
		counts[i] = running
	}
	counts[len(counts)-1] = h.count
	return bounds, counts
}

func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Registry holds a named set of counters, gauges, and histograms and
// renders them in Prometheus text exposition format.
type Registry struct {
	mu         sync.Mutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Gauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = &Gauge{}
		r.gauges[name] = g
	}
	return g
}

func (r *Registry) Histogram(name string) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.histograms[name]
	if !ok {
		h = NewHistogram()
		r.histograms[name] = h
	}
	return h
}

// Render produces Prometheus text exposition format for every
// registered metric.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	names := make([]string, 0, len(r.counters))
	for n := range r.counters {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&b, "# TYPE %s counter\n%s %d\n", n, n, r.counters[n].Value())
	}

	names = names[:0]
	for n := range r.gauges {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&b, "# TYPE %s gauge\n%s %g\n", n, n, r.gauges[n].Value())
	}

	names = names[:0]
	for n := range r.histograms {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		h := r.histograms[n]
		bounds, counts := h.CumulativeBuckets()
		fmt.Fprintf(&b, "# TYPE %s histogram\n", n)
		for i, bound := range bounds {
			label := fmt.Sprintf("%g", bound)
			if math.IsInf(bound, 1) {
				label = "+Inf"
			}
			fmt.Fprintf(&b, "%s_bucket{le=\"%s\"} %d\n", n, label, counts[i])
		}
		fmt.Fprintf(&b, "%s_sum %g\n", n, h.Sum())
		fmt.Fprintf(&b, "%s_count %d\n", n, h.Count())
	}

	return b.String()
}
