/*
Package metrics provides Prometheus metrics collection and exposition for
ClaudeFS.

The metrics package defines and registers all ClaudeFS metrics using the
Prometheus client library, providing observability into cluster membership,
block storage, replication, client-side caching, and the management plane.
Metrics are exposed via an HTTP endpoint for scraping by Prometheus servers.
A separate fixed-bucket histogram type, used where the management plane
needs a guaranteed bucket layout across versions, lives in pkg/mgmt rather
than here.

# Architecture

ClaudeFS's metrics system follows Prometheus best practices with
instrumentation across every subsystem:

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  │  - Automatic Go runtime metrics             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (node count)         │          │
	│  │  Counter: Monotonic increases (requests)    │          │
	│  │  Histogram: Distributions (latency)         │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Cluster: membership, hash ring, tenants    │          │
	│  │  Raft log: log index, applied index         │          │
	│  │  KV/WAL: write latency, checkpoint duration │          │
	│  │  Blockstore: writes, checksums, tiering     │          │
	│  │  Transport: frames, breakers, rate limits   │          │
	│  │  Replication: lag, conflicts, checkpoints   │          │
	│  │  FUSE-side: cache hit rate, WORM blocks     │          │
	│  │  Management: budget alerts, quota rejects   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Prometheus Server                   │          │
	│  │  - Scrapes /metrics every 15s               │          │
	│  │  - Stores time series data                  │          │
	│  │  - Provides PromQL query interface          │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Automatic collection of Go runtime metrics
  - Thread-safe for concurrent updates

Gauge Metrics:
  - Instant value that can go up or down
  - Examples: node count, ring size, replication lag
  - Operations: Set, Inc, Dec, Add, Sub

Counter Metrics:
  - Monotonically increasing value
  - Examples: blocks written, cache hits, WORM blocks
  - Operations: Inc, Add (cannot decrease)

Histogram Metrics:
  - Distribution of observed values
  - Buckets for latency percentiles (p50, p95, p99)
  - Examples: WAL write duration, raft apply duration
  - Includes: sum, count, buckets

Collector:
  - Periodically samples gauges from live cluster state
  - Polls pkg/cluster's Membership and Ring, pkg/raftlog's Overlay,
    and pkg/mgmt's TenantManager
  - Counters and histograms are updated inline by their owning code,
    not by the collector

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Cluster Metrics:

claudefs_nodes_total{role, status}:
  - Type: Gauge
  - Description: Cluster members by metadata role and SWIM status
    (alive/suspected/dead/left)
  - Labels: role, status
  - Example: claudefs_nodes_total{role="storage",status="alive"} 5

claudefs_ring_nodes_total:
  - Type: Gauge
  - Description: Physical nodes placed on the consistent hash ring
  - Example: claudefs_ring_nodes_total 8

claudefs_tenants_total:
  - Type: Gauge
  - Description: Total number of configured tenants
  - Example: claudefs_tenants_total 12

Raft Log Overlay Metrics:

claudefs_raftlog_log_index:
  - Type: Gauge
  - Description: Current raft.LogStore last index
  - Example: claudefs_raftlog_log_index 1543

claudefs_raftlog_applied_index:
  - Type: Gauge
  - Description: Last raft log index applied to the KV engine
  - Example: claudefs_raftlog_applied_index 1543

claudefs_raftlog_apply_duration_seconds:
  - Type: Histogram
  - Description: Time to apply a raft log entry to the KV store

KV / WAL Metrics:

claudefs_kv_wal_write_duration_seconds:
  - Type: Histogram
  - Description: Time for a WAL append to reach the fsync barrier

claudefs_kv_checkpoint_duration_seconds:
  - Type: Histogram
  - Description: Time to complete a KV checkpoint

claudefs_kv_entries_total:
  - Type: Gauge
  - Description: Live keys in the KV store

Blockstore Metrics:

claudefs_blocks_written_total:
  - Type: Counter
  - Description: Data blocks written

claudefs_checksum_mismatches_total{algorithm}:
  - Type: Counter
  - Description: Block checksum verification failures by algorithm
    (crc32c, xxhash64)

claudefs_snapshot_create_duration_seconds:
  - Type: Histogram
  - Description: Time to create a block-level snapshot

claudefs_tiering_moves_total{direction}:
  - Type: Counter
  - Description: Blocks moved between storage tiers ("promote" or "demote")

Transport Metrics:

claudefs_transport_frames_total{direction, type}:
  - Type: Counter
  - Description: Wire frames sent or received by frame type

claudefs_circuit_breaker_trips_total{peer}:
  - Type: Counter
  - Description: Times a peer's circuit breaker tripped open

claudefs_rate_limiter_rejections_total:
  - Type: Counter
  - Description: Requests rejected by the transport rate limiter

claudefs_load_shed_total:
  - Type: Counter
  - Description: Requests dropped by the load shedder

Replication Metrics:

claudefs_replication_lag_seconds{site}:
  - Type: Gauge
  - Description: Lag between a remote site's WAL cursor and the source

claudefs_replication_conflicts_total{resolution}:
  - Type: Counter
  - Description: Replication conflicts by resolution outcome

claudefs_replication_checkpoint_duration_seconds:
  - Type: Histogram
  - Description: Time to persist a replication cursor checkpoint

FUSE-side Metrics:

claudefs_datacache_hits_total / claudefs_datacache_misses_total:
  - Type: Counter
  - Description: Client-side data cache hit/miss counts

claudefs_coherence_invalidations_total:
  - Type: Counter
  - Description: Cache invalidations sent due to lease revocation

claudefs_worm_blocks_total:
  - Type: Counter
  - Description: Writes rejected by WORM retention enforcement

claudefs_hotpath_promotions_total:
  - Type: Counter
  - Description: Inodes promoted to the hot request path

Management Metrics:

claudefs_budget_alerts_total{category}:
  - Type: Counter
  - Description: Cost alerts fired by category

claudefs_tenant_quota_rejections_total{tenant, reason}:
  - Type: Counter
  - Description: Operations rejected due to tenant quota or authorization

API Metrics:

claudefs_api_requests_total{method, status}:
  - Type: Counter
  - Description: Management API requests by method and status

claudefs_api_request_duration_seconds{method}:
  - Type: Histogram
  - Description: Management API request duration in seconds

# Usage

Updating Gauge Metrics:

	import "github.com/claudefs/claudefs/pkg/metrics"

	metrics.NodesTotal.WithLabelValues("storage", "alive").Set(5)
	metrics.TenantsTotal.Inc()
	metrics.TenantsTotal.Dec()

Updating Counter Metrics:

	metrics.BlocksWrittenTotal.Inc()
	metrics.APIRequestsTotal.WithLabelValues("CreateSnapshot", "200").Add(1)

Recording Histogram Observations:

	metrics.RaftApplyDuration.Observe(0.012)

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.WALWriteDuration)

Using Timer with Labels:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.APIRequestDuration, "CreateSnapshot")

Running the Collector:

	collector := metrics.NewCollector(membership, ring, raftLog, tenants)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/cluster: Membership and ring state feed NodesTotal/RingSize
  - pkg/raftlog: Log/applied index feed the raft log gauges
  - pkg/blockstore: Block writes, checksums, tiering, snapshots
  - pkg/transport: Frame counts, breaker trips, rate limiting
  - pkg/replication: Lag, conflicts, checkpoint duration
  - pkg/fuseside: Cache hit rate, WORM blocks, hot path promotions
  - pkg/mgmt: Budget alerts, tenant quota rejections, tenant count
  - Prometheus: Scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()
  - No runtime registration needed

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels
  - Avoid high-cardinality labels (inode numbers, timestamps)
  - Keep label count low (< 5 per metric)

Timer Pattern:
  - Create timer at operation start
  - Defer or explicitly call ObserveDuration
  - Automatically calculates elapsed time
  - Supports both simple and vector histograms

Global Metrics:
  - Package-level variables for all metrics
  - Accessible from any ClaudeFS package
  - Thread-safe concurrent updates

# Performance Characteristics

Metric Update Overhead:
  - Gauge set/inc: ~50ns per operation
  - Counter inc: ~50ns per operation
  - Histogram observe: ~200ns per operation
  - Labels: +100ns per label value
  - Negligible impact on the data path

Memory Usage:
  - Per metric: ~1KB baseline
  - Per label combination: ~100 bytes
  - Histogram buckets: ~50 bytes each
  - Total: ~1-5MB for a typical ClaudeFS cluster

Scrape Performance:
  - Metrics gathering: ~1-5ms for full scrape
  - Recommendation: Scrape interval ≥ 15s
  - Concurrent scrapes: Safe (read-only)

Cardinality Management:
  - Low cardinality: role, status, direction (< 10 values)
  - Medium cardinality: method, site, peer (< 100 values)
  - Avoid: inode numbers, block IDs, timestamps (unbounded)

# Troubleshooting

Missing Metrics:
  - Symptom: Metric not appearing in /metrics output
  - Check: Metric registered in init() function
  - Check: MustRegister called (panics if duplicate)
  - Solution: Verify metric variable is exported

High Cardinality:
  - Symptom: Prometheus memory usage grows
  - Cause: Using IDs or unbounded values as labels
  - Solution: Remove high-cardinality labels, aggregate differently

Histogram Bucket Mismatch:
  - Symptom: No data in desired percentiles
  - Cause: Buckets don't cover observed value range
  - Solution: Customize buckets for the value range

Stale Collector Gauges:
  - Symptom: NodesTotal/RingSize/tenant gauges not updating
  - Cause: Collector never started, or given nil components
  - Solution: Confirm NewCollector was passed live components and Start
    was called

# Monitoring

Prometheus Queries (PromQL):

Cluster Health:
  - Total nodes: sum(claudefs_nodes_total)
  - Alive storage nodes: claudefs_nodes_total{role="storage",status="alive"}
  - Dead nodes: claudefs_nodes_total{status="dead"}

Replication Health:
  - Worst lag: max(claudefs_replication_lag_seconds)
  - Conflict rate: rate(claudefs_replication_conflicts_total[5m])

Cache Effectiveness:
  - Hit rate: rate(claudefs_datacache_hits_total[5m]) /
    (rate(claudefs_datacache_hits_total[5m]) + rate(claudefs_datacache_misses_total[5m]))

API Performance:
  - Request rate: rate(claudefs_api_requests_total[1m])
  - Error rate: rate(claudefs_api_requests_total{status=~"5.."}[1m])
  - p95 latency: histogram_quantile(0.95, claudefs_api_request_duration_seconds_bucket)

Raft Log Health:
  - Apply lag: claudefs_raftlog_log_index - claudefs_raftlog_applied_index

# Alerting Rules

Recommended Prometheus alerts:

High Checksum Mismatch Rate:
  - Alert: rate(claudefs_checksum_mismatches_total[5m]) > 0
  - Description: Blocks are failing integrity verification
  - Action: Check disk health, scrub affected storage nodes

Replication Falling Behind:
  - Alert: max(claudefs_replication_lag_seconds) > 300
  - Description: A site is more than 5 minutes behind the source
  - Action: Check network path and site health

Circuit Breakers Tripping:
  - Alert: increase(claudefs_circuit_breaker_trips_total[10m]) > 5
  - Description: A peer is repeatedly failing and being isolated
  - Action: Check peer node health and network connectivity

High API Latency:
  - Alert: histogram_quantile(0.95, claudefs_api_request_duration_seconds_bucket) > 1
  - Description: p95 API latency > 1 second
  - Action: Check KV/raft apply latency, catalog size

# Grafana Dashboards

Recommended dashboard panels:

Cluster Overview:
  - Gauge: Total nodes by role and status
  - Gauge: Ring node count
  - Time series: Tenant count over time

Replication:
  - Time series: Lag per site
  - Time series: Conflict rate by resolution

Cache & FUSE:
  - Time series: Cache hit rate
  - Time series: WORM blocks, coherence invalidations

API Performance:
  - Time series: Request rate by method
  - Time series: p95 and p99 latency
  - Time series: Error rate (5xx responses)

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
  - PromQL tutorial: https://prometheus.io/docs/prometheus/latest/querying/basics/
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
