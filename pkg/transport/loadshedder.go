package transport

import (
	"math"
	"sync/atomic"
)

// ShedSignal configures one contributing factor to the shed decision:
// a threshold and the multiplier applied to the base shed fraction
// once that threshold is crossed.
type ShedSignal struct {
	Threshold  float64
	Multiplier float64
}

// LoadShedderConfig parameterizes LoadShedder.
type LoadShedderConfig struct {
	Enabled        bool
	BaseFraction   float64
	LatencyEWMAAlpha float64
	Latency        ShedSignal // milliseconds
	QueueDepth     ShedSignal
	CPUPercent     ShedSignal
	ConnCount      ShedSignal // concurrent connections, fed by DosPolicy
}

// LoadShedder tracks EWMA latency, queue depth, CPU percentage, and
// concurrent connection count, and deterministically sheds a fraction
// of requests once any signal crosses its threshold.
type LoadShedder struct {
	cfg LoadShedderConfig

	latencyEWMABits atomic.Uint64
	queueDepth      atomic.Int64
	cpuPercentBits  atomic.Uint64
	connCount       atomic.Int64
	counter         atomic.Uint64
}

func NewLoadShedder(cfg LoadShedderConfig) *LoadShedder {
	return &LoadShedder{cfg: cfg}
}

// ObserveLatency folds a new latency sample (ms) into the EWMA.
func (s *LoadShedder) ObserveLatency(ms float64) {
	for {
		old := s.latencyEWMABits.Load()
		oldV := math.Float64frombits(old)
		var next float64
		if oldV == 0 {
			next = ms
		} else {
			a := s.cfg.LatencyEWMAAlpha
			next = a*ms + (1-a)*oldV
		}
		if s.latencyEWMABits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

func (s *LoadShedder) LatencyEWMA() float64 {
	return math.Float64frombits(s.latencyEWMABits.Load())
}

func (s *LoadShedder) SetQueueDepth(depth int64) { s.queueDepth.Store(depth) }
func (s *LoadShedder) QueueDepth() int64         { return s.queueDepth.Load() }

func (s *LoadShedder) SetCPUPercent(pct float64) {
	s.cpuPercentBits.Store(math.Float64bits(pct))
}
func (s *LoadShedder) CPUPercent() float64 {
	return math.Float64frombits(s.cpuPercentBits.Load())
}

// SetConnCount records the current concurrent connection count, as
// reported by a DosPolicy, for ShouldShed's ConnCount signal.
func (s *LoadShedder) SetConnCount(n int64) { s.connCount.Store(n) }
func (s *LoadShedder) ConnCount() int64     { return s.connCount.Load() }

// ShouldShed deterministically shed-samples a fraction of requests
// when any signal crosses its threshold. Sampling uses a counter mod
// 100 compared against probability*100, so the decision sequence is
// reproducible for a given call sequence.
func (s *LoadShedder) ShouldShed() bool {
	if !s.cfg.Enabled {
		return false
	}
	fraction := s.cfg.BaseFraction
	if m := s.signalMultiplier(s.LatencyEWMA(), s.cfg.Latency); m > 1 {
		fraction *= m
	}
	if m := s.signalMultiplier(float64(s.QueueDepth()), s.cfg.QueueDepth); m > 1 {
		fraction *= m
	}
	if m := s.signalMultiplier(s.CPUPercent(), s.cfg.CPUPercent); m > 1 {
		fraction *= m
	}
	if m := s.signalMultiplier(float64(s.ConnCount()), s.cfg.ConnCount); m > 1 {
		fraction *= m
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	n := s.counter.Add(1)
	bucket := n % 100
	return bucket < uint64(fraction*100)
}

func (s *LoadShedder) signalMultiplier(value float64, sig ShedSignal) float64 {
	if sig.Threshold <= 0 || value < sig.Threshold {
		return 1
	}
	return sig.Multiplier
}
