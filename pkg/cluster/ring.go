package cluster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

type vnode struct {
	hash uint64
	node string
}

// Ring is a consistent hash ring: each physical node contributes
// vnodes virtual points, placed by hashing (node_id, vnode_index).
// Lookup is a pure function of the ring's current contents.
type Ring struct {
	mu     sync.RWMutex
	vnodes int
	points []vnode
	nodes  map[string]bool
}

func NewRing(vnodesPerNode int) *Ring {
	return &Ring{vnodes: vnodesPerNode, nodes: make(map[string]bool)}
}

func hashKey(s string) uint64 {
	return xxhash.Sum64String(s)
}

// AddNode places vnodesPerNode virtual points for node on the ring.
func (r *Ring) AddNode(node string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nodes[node] {
		return
	}
	r.nodes[node] = true
	for i := 0; i < r.vnodes; i++ {
		h := hashKey(fmt.Sprintf("%s#%d", node, i))
		r.points = append(r.points, vnode{hash: h, node: node})
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i].hash < r.points[j].hash })
}

// RemoveNode removes every virtual point belonging to node.
func (r *Ring) RemoveNode(node string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.nodes[node] {
		return
	}
	delete(r.nodes, node)
	filtered := r.points[:0]
	for _, v := range r.points {
		if v.node != node {
			filtered = append(filtered, v)
		}
	}
	r.points = filtered
}

// Lookup hashes key and walks clockwise to the first vnode,
// returning its physical node.
func (r *Ring) Lookup(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.points) == 0 {
		return "", false
	}
	h := hashKey(key)
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i].hash >= h })
	if idx == len(r.points) {
		idx = 0
	}
	return r.points[idx].node, true
}

// LookupN returns up to n distinct physical nodes by continuing
// clockwise from key's position, skipping duplicates.
func (r *Ring) LookupN(key string, n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.points) == 0 || n <= 0 {
		return nil
	}
	h := hashKey(key)
	start := sort.Search(len(r.points), func(i int) bool { return r.points[i].hash >= h })
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < len(r.points) && len(out) < n; i++ {
		v := r.points[(start+i)%len(r.points)]
		if seen[v.node] {
			continue
		}
		seen[v.node] = true
		out = append(out, v.node)
	}
	return out
}

// NodeCount returns the number of distinct physical nodes on the ring.
func (r *Ring) NodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
