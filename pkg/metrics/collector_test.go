package metrics

import (
	"testing"
	"time"

	"github.com/claudefs/claudefs/pkg/cluster"
	"github.com/claudefs/claudefs/pkg/kv"
	"github.com/claudefs/claudefs/pkg/mgmt"
	"github.com/claudefs/claudefs/pkg/raftlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCollectMembershipMetrics(t *testing.T) {
	m := cluster.NewMembership("self", cluster.Params{})
	m.Join("self", "127.0.0.1:7000", map[string]string{"role": "metadata"}, time.Now())
	m.Join("peer-1", "127.0.0.1:7001", map[string]string{"role": "storage"}, time.Now())

	c := NewCollector(m, nil, nil, nil)
	c.collectMembershipMetrics()

	if got := testutil.ToFloat64(NodesTotal.WithLabelValues("metadata", "alive")); got != 1 {
		t.Errorf("expected 1 alive metadata node, got %v", got)
	}
	if got := testutil.ToFloat64(NodesTotal.WithLabelValues("storage", "alive")); got != 1 {
		t.Errorf("expected 1 alive storage node, got %v", got)
	}
}

func TestCollectorCollectRingMetrics(t *testing.T) {
	r := cluster.NewRing(4)
	r.AddNode("node-a")
	r.AddNode("node-b")

	c := NewCollector(nil, r, nil, nil)
	c.collectRingMetrics()

	if got := testutil.ToFloat64(RingSize); got != 2 {
		t.Errorf("expected ring size 2, got %v", got)
	}
}

func TestCollectorCollectRaftLogMetrics(t *testing.T) {
	dir := t.TempDir()
	store, err := kv.Open(dir)
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}
	defer store.Close()

	overlay := raftlog.New(store)
	if err := overlay.AppendEntry(raftlog.Entry{Index: 1, Term: 1, Data: []byte("a")}); err != nil {
		t.Fatalf("append entry: %v", err)
	}
	if err := overlay.SaveCommitIndex(1); err != nil {
		t.Fatalf("save commit index: %v", err)
	}

	c := NewCollector(nil, nil, overlay, nil)
	c.collectRaftLogMetrics()

	if got := testutil.ToFloat64(RaftLogIndex); got != 1 {
		t.Errorf("expected raft log index 1, got %v", got)
	}
	if got := testutil.ToFloat64(RaftAppliedIndex); got != 1 {
		t.Errorf("expected raft applied index 1, got %v", got)
	}
}

func TestCollectorCollectTenantMetrics(t *testing.T) {
	dir := t.TempDir()
	cat, err := mgmt.OpenCatalog(dir)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	defer cat.Close()

	tm := mgmt.NewTenantManager(cat)
	if err := tm.AddTenant(mgmt.TenantConfig{ID: "tenant-a", Active: true, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("add tenant: %v", err)
	}

	c := NewCollector(nil, nil, nil, tm)
	c.collectTenantMetrics()

	if got := testutil.ToFloat64(TenantsTotal); got != 1 {
		t.Errorf("expected 1 tenant, got %v", got)
	}
}

func TestCollectorStartStop(t *testing.T) {
	c := NewCollector(nil, nil, nil, nil)
	c.Start()
	c.Stop()
}
