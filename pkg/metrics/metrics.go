package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "claudefs_nodes_total",
			Help: "Total number of cluster members by role and SWIM status",
		},
		[]string{"role", "status"},
	)

	RingSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudefs_ring_nodes_total",
			Help: "Total number of physical nodes placed on the consistent hash ring",
		},
	)

	TenantsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudefs_tenants_total",
			Help: "Total number of configured tenants",
		},
	)

	// Raft log overlay metrics (pkg/raftlog)
	RaftLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudefs_raftlog_log_index",
			Help: "Current raft.LogStore last index",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudefs_raftlog_applied_index",
			Help: "Last raft log index applied to the KV engine",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claudefs_raftlog_apply_duration_seconds",
			Help:    "Time taken to apply a raft log entry to the KV store",
			Buckets: prometheus.DefBuckets,
		},
	)

	// KV / WAL metrics (pkg/kv)
	WALWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claudefs_kv_wal_write_duration_seconds",
			Help:    "Time taken for a WAL append to reach the fsync barrier",
			Buckets: prometheus.DefBuckets,
		},
	)

	KVCheckpointDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claudefs_kv_checkpoint_duration_seconds",
			Help:    "Time taken to complete a KV checkpoint",
			Buckets: prometheus.DefBuckets,
		},
	)

	KVEntriesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudefs_kv_entries_total",
			Help: "Total number of live keys in the KV store",
		},
	)

	// Blockstore metrics (pkg/blockstore)
	BlocksWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_blocks_written_total",
			Help: "Total number of data blocks written",
		},
	)

	ChecksumMismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_checksum_mismatches_total",
			Help: "Total number of block checksum verification failures by algorithm",
		},
		[]string{"algorithm"},
	)

	SnapshotCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claudefs_snapshot_create_duration_seconds",
			Help:    "Time taken to create a block-level snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	TieringPromotionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_tiering_moves_total",
			Help: "Total number of blocks moved between storage tiers",
		},
		[]string{"direction"}, // "promote" (cold->hot) or "demote" (hot->cold)
	)

	// Transport metrics (pkg/transport)
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_transport_frames_total",
			Help: "Total number of wire frames sent or received by type",
		},
		[]string{"direction", "type"},
	)

	CircuitBreakerTripsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_circuit_breaker_trips_total",
			Help: "Total number of times a peer circuit breaker tripped open",
		},
		[]string{"peer"},
	)

	RateLimiterRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_rate_limiter_rejections_total",
			Help: "Total number of requests rejected by the transport rate limiter",
		},
	)

	LoadSheddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_load_shed_total",
			Help: "Total number of requests dropped by the load shedder",
		},
	)

	// Replication metrics (pkg/replication)
	ReplicationLagSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "claudefs_replication_lag_seconds",
			Help: "Replication lag between a site's WAL cursor and the source",
		},
		[]string{"site"},
	)

	ReplicationConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_replication_conflicts_total",
			Help: "Total number of replication conflicts by resolution outcome",
		},
		[]string{"resolution"},
	)

	ReplicationCheckpointDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claudefs_replication_checkpoint_duration_seconds",
			Help:    "Time taken to persist a replication cursor checkpoint",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FUSE-side cache and coherence metrics (pkg/fuseside)
	DataCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_datacache_hits_total",
			Help: "Total number of client data cache hits",
		},
	)

	DataCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_datacache_misses_total",
			Help: "Total number of client data cache misses",
		},
	)

	CoherenceInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_coherence_invalidations_total",
			Help: "Total number of cache invalidations sent due to lease revocation",
		},
	)

	WORMBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_worm_blocks_total",
			Help: "Total number of writes rejected by WORM retention enforcement",
		},
	)

	HotPathPromotionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claudefs_hotpath_promotions_total",
			Help: "Total number of inodes promoted to the hot request path",
		},
	)

	// Management plane metrics (pkg/mgmt)
	BudgetAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_budget_alerts_total",
			Help: "Total number of cost alerts fired by category",
		},
		[]string{"category"},
	)

	TenantQuotaRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_tenant_quota_rejections_total",
			Help: "Total number of operations rejected due to tenant quota or authorization",
		},
		[]string{"tenant", "reason"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudefs_api_requests_total",
			Help: "Total number of management API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claudefs_api_request_duration_seconds",
			Help:    "Management API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(RingSize)
	prometheus.MustRegister(TenantsTotal)
	prometheus.MustRegister(RaftLogIndex)
	prometheus.MustRegister(RaftAppliedIndex)
	prometheus.MustRegister(RaftApplyDuration)
	prometheus.MustRegister(WALWriteDuration)
	prometheus.MustRegister(KVCheckpointDuration)
	prometheus.MustRegister(KVEntriesTotal)
	prometheus.MustRegister(BlocksWrittenTotal)
	prometheus.MustRegister(ChecksumMismatchesTotal)
	prometheus.MustRegister(SnapshotCreateDuration)
	prometheus.MustRegister(TieringPromotionsTotal)
	prometheus.MustRegister(FramesTotal)
	prometheus.MustRegister(CircuitBreakerTripsTotal)
	prometheus.MustRegister(RateLimiterRejectionsTotal)
	prometheus.MustRegister(LoadSheddedTotal)
	prometheus.MustRegister(ReplicationLagSeconds)
	prometheus.MustRegister(ReplicationConflictsTotal)
	prometheus.MustRegister(ReplicationCheckpointDuration)
	prometheus.MustRegister(DataCacheHitsTotal)
	prometheus.MustRegister(DataCacheMissesTotal)
	prometheus.MustRegister(CoherenceInvalidationsTotal)
	prometheus.MustRegister(WORMBlocksTotal)
	prometheus.MustRegister(HotPathPromotionsTotal)
	prometheus.MustRegister(BudgetAlertsTotal)
	prometheus.MustRegister(TenantQuotaRejectionsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
