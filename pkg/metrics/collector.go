package metrics

import (
	"time"

	"github.com/claudefs/claudefs/pkg/cluster"
	"github.com/claudefs/claudefs/pkg/mgmt"
	"github.com/claudefs/claudefs/pkg/raftlog"
)

// Collector periodically samples gauges from live cluster state:
// membership, the hash ring, the raft log overlay, and tenant count.
// Counters and histograms are updated inline by their owning packages
// and are not touched here.
type Collector struct {
	membership *cluster.Membership
	ring       *cluster.Ring
	log        *raftlog.Overlay
	tenants    *mgmt.TenantManager
	stopCh     chan struct{}
}

// NewCollector creates a metrics collector over the given cluster
// components. Any of them may be nil, in which case the corresponding
// metrics are left untouched.
func NewCollector(membership *cluster.Membership, ring *cluster.Ring, log *raftlog.Overlay, tenants *mgmt.TenantManager) *Collector {
	return &Collector{
		membership: membership,
		ring:       ring,
		log:        log,
		tenants:    tenants,
		stopCh:     make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectMembershipMetrics()
	c.collectRingMetrics()
	c.collectRaftLogMetrics()
	c.collectTenantMetrics()
}

func (c *Collector) collectMembershipMetrics() {
	if c.membership == nil {
		return
	}

	counts := make(map[string]map[string]int)
	for _, member := range c.membership.Members() {
		role := member.Metadata["role"]
		if role == "" {
			role = "unknown"
		}
		status := memberStateString(member.State)

		if counts[role] == nil {
			counts[role] = make(map[string]int)
		}
		counts[role][status]++
	}

	for role, statuses := range counts {
		for status, count := range statuses {
			NodesTotal.WithLabelValues(role, status).Set(float64(count))
		}
	}
}

func memberStateString(s cluster.MemberState) string {
	switch s {
	case cluster.Alive:
		return "alive"
	case cluster.Suspected:
		return "suspected"
	case cluster.Dead:
		return "dead"
	case cluster.Left:
		return "left"
	default:
		return "unknown"
	}
}

func (c *Collector) collectRingMetrics() {
	if c.ring == nil {
		return
	}
	RingSize.Set(float64(c.ring.NodeCount()))
}

func (c *Collector) collectRaftLogMetrics() {
	if c.log == nil {
		return
	}

	lastIndex, err := c.log.LastIndex()
	if err == nil {
		RaftLogIndex.Set(float64(lastIndex))
	}

	if commitIndex, ok := c.log.LoadCommitIndex(); ok {
		RaftAppliedIndex.Set(float64(commitIndex))
	}
}

func (c *Collector) collectTenantMetrics() {
	if c.tenants == nil {
		return
	}
	TenantsTotal.Set(float64(c.tenants.Count()))
}
