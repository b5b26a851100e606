package mgmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterMonotonic(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("ops_total")
	c.Inc()
	c.Add(4)
	require.Equal(t, uint64(5), c.Value())
}

func TestGaugeIncDecAddSub(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("cache_hit_rate")
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(5)
	g.Sub(2)
	require.Equal(t, 13.0, g.Value())
}

func TestHistogramBucketPlacement(t *testing.T) {
	h := NewHistogram()
	h.Observe(50)
	h.Observe(400)
	h.Observe(60000)
	bounds, counts := h.CumulativeBuckets()
	require.Equal(t, []float64{100, 500, 1000, 5000, 10000, 50000}, bounds[:6])
	require.True(t, bounds[6] > 1e300) // +Inf
	// cumulative: 50 falls in [..,100) bucket -> counted from 100 onward
	require.Equal(t, uint64(1), counts[0]) // <=100: the 50
	require.Equal(t, uint64(2), counts[1]) // <=500: 50,400
	require.Equal(t, uint64(2), counts[5]) // <=50000: 60000 overflows past the last finite bucket
	require.Equal(t, uint64(3), counts[6]) // +Inf: every observation
	require.Equal(t, uint64(3), h.Count())
	require.Equal(t, 60450.0, h.Sum())
}

func TestRegistryRenderPrometheusFormat(t *testing.T) {
	r := NewRegistry()
	r.Counter("blocks_written_total").Add(3)
	r.Gauge("replication_lag_seconds").Set(1.5)
	r.Histogram("raft_apply_latency_us").Observe(200)

	out := r.Render()
	require.Contains(t, out, "# TYPE blocks_written_total counter")
	require.Contains(t, out, "blocks_written_total 3")
	require.Contains(t, out, "# TYPE replication_lag_seconds gauge")
	require.Contains(t, out, "replication_lag_seconds 1.5")
	require.Contains(t, out, `raft_apply_latency_us_bucket{le="+Inf"}`)
	require.True(t, strings.Contains(out, "raft_apply_latency_us_sum"))
	require.True(t, strings.Contains(out, "raft_apply_latency_us_count 1"))
}
