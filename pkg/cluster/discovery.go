package cluster

import "time"

// Seed is a statically configured bootstrap peer.
type Seed struct {
	NodeID  string
	Address string
}

// Discovery seeds a Membership view from a fixed list of peers known
// in advance, rather than any dynamic registry. Background gossip
// eventually discovers the rest of the cluster; discovery only gets
// the first probe targets into the member map.
type Discovery struct {
	seeds []Seed
}

func NewDiscovery(seeds []Seed) *Discovery {
	return &Discovery{seeds: seeds}
}

// Bootstrap joins every configured seed into m as Alive, skipping any
// seed already known.
func (d *Discovery) Bootstrap(m *Membership, now time.Time) {
	for _, s := range d.seeds {
		if _, ok := m.Get(s.NodeID); ok {
			continue
		}
		m.Join(s.NodeID, s.Address, nil, now)
	}
}

// Seeds returns the configured seed list.
func (d *Discovery) Seeds() []Seed {
	return append([]Seed(nil), d.seeds...)
}
