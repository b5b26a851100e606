package mgmt

import (
	"math"
	"sync"
	"time"
)

// Sample is one point in the capacity planner's ring buffer.
type Sample struct {
	Timestamp  time.Time
	UsedBytes  uint64
	TotalBytes uint64
	InodeCount uint64
}

// Trend is the result of a least-squares linear regression of
// used_bytes against time, in seconds-since-first-sample units.
type Trend struct {
	Slope     float64 // bytes/second
	Intercept float64
	RSquared  float64
}

// Recommendation is the capacity-planner's action ladder verdict.
type Recommendation int

const (
	RecommendationSufficient Recommendation = iota
	RecommendationPlanExpansion
	RecommendationOrderImmediately
	RecommendationEmergency
)

// Projection summarizes what Trend implies about time-to-exhaustion.
type Projection struct {
	DaysUntilFull  float64 // +Inf if slope <= 0
	DaysUntil80Pct float64
	Projected7Day  uint64
	Projected30Day uint64
	Projected90Day uint64
	UsagePercent   float64
	Recommendation Recommendation
}

// CapacityPlanner holds a bounded ring buffer of usage samples per
// volume/pool and derives trend projections from it.
type CapacityPlanner struct {
	mu      sync.Mutex
	samples []Sample
	maxLen  int
}

func NewCapacityPlanner(maxLen int) *CapacityPlanner {
	if maxLen <= 0 {
		maxLen = 1
	}
	return &CapacityPlanner{maxLen: maxLen}
}

// Record appends a new sample, evicting the oldest once the ring
// buffer is full.
func (p *CapacityPlanner) Record(s Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, s)
	if len(p.samples) > p.maxLen {
		p.samples = p.samples[len(p.samples)-p.maxLen:]
	}
}

func (p *CapacityPlanner) Samples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

// ComputeTrend performs a least-squares linear regression of
// used_bytes (y) against elapsed seconds since the first sample (x).
// Returns the zero Trend when fewer than two samples are present.
func (p *CapacityPlanner) ComputeTrend() Trend {
	p.mu.Lock()
	samples := make([]Sample, len(p.samples))
	copy(samples, p.samples)
	p.mu.Unlock()

	if len(samples) < 2 {
		return Trend{}
	}

	t0 := samples[0].Timestamp
	n := float64(len(samples))
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x := s.Timestamp.Sub(t0).Seconds()
		y := float64(s.UsedBytes)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Trend{Intercept: sumY / n}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	// R^2 via sum of squared residuals vs total variance.
	var ssRes, ssTot float64
	meanY := sumY / n
	for _, s := range samples {
		x := s.Timestamp.Sub(t0).Seconds()
		y := float64(s.UsedBytes)
		pred := slope*x + intercept
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - meanY) * (y - meanY)
	}
	rSquared := 1.0
	if ssTot != 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return Trend{Slope: slope, Intercept: intercept, RSquared: rSquared}
}

// Project derives a full Projection from the current trend and the
// most recent sample.
func (p *CapacityPlanner) Project() Projection {
	p.mu.Lock()
	var latest Sample
	hasSamples := len(p.samples) > 0
	if hasSamples {
		latest = p.samples[len(p.samples)-1]
	}
	p.mu.Unlock()

	if !hasSamples || latest.TotalBytes == 0 {
		return Projection{DaysUntilFull: math.Inf(1), DaysUntil80Pct: math.Inf(1), Recommendation: RecommendationSufficient}
	}

	trend := p.ComputeTrend()
	usagePct := float64(latest.UsedBytes) / float64(latest.TotalBytes) * 100

	daysUntilFull := math.Inf(1)
	daysUntil80 := math.Inf(1)
	if trend.Slope > 0 {
		remaining := float64(latest.TotalBytes) - float64(latest.UsedBytes)
		daysUntilFull = remaining / trend.Slope / 86400

		eightyTarget := float64(latest.TotalBytes) * 0.8
		if eightyTarget > float64(latest.UsedBytes) {
			daysUntil80 = (eightyTarget - float64(latest.UsedBytes)) / trend.Slope / 86400
		} else {
			daysUntil80 = 0
		}
	}

	proj := func(days float64) uint64 {
		delta := trend.Slope * days * 86400
		v := float64(latest.UsedBytes) + delta
		if v < 0 {
			v = 0
		}
		return uint64(v)
	}

	rec := recommend(daysUntilFull, usagePct, trend.Slope)

	return Projection{
		DaysUntilFull:  daysUntilFull,
		DaysUntil80Pct: daysUntil80,
		Projected7Day:  proj(7),
		Projected30Day: proj(30),
		Projected90Day: proj(90),
		UsagePercent:   usagePct,
		Recommendation: rec,
	}
}

func recommend(daysUntilFull, usagePct, slope float64) Recommendation {
	switch {
	case daysUntilFull < 7 || usagePct >= 95:
		return RecommendationEmergency
	case daysUntilFull < 30:
		return RecommendationOrderImmediately
	case daysUntilFull < 90:
		return RecommendationPlanExpansion
	case slope <= 0 && usagePct >= 90:
		return RecommendationOrderImmediately
	default:
		return RecommendationSufficient
	}
}
