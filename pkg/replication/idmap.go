package replication

import "sync"

type idKey struct {
	site string
	id   uint32
}

// IDMapper translates uid/gid values between sites. A freshly created
// mapper is passthrough: unknown ids (and, before any explicit entry
// is added, all ids) pass through unchanged. Adding the first explicit
// mapping flips the mapper to table-based; ids with no entry still
// pass through unchanged.
type IDMapper struct {
	mu         sync.RWMutex
	passthrough bool
	uids       map[idKey]uint32
	gids       map[idKey]uint32
}

func NewIDMapper() *IDMapper {
	return &IDMapper{
		passthrough: true,
		uids:        make(map[idKey]uint32),
		gids:        make(map[idKey]uint32),
	}
}

func (m *IDMapper) AddUIDMapping(sourceSite string, sourceUID, destUID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passthrough = false
	m.uids[idKey{sourceSite, sourceUID}] = destUID
}

func (m *IDMapper) RemoveUIDMapping(sourceSite string, sourceUID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uids, idKey{sourceSite, sourceUID})
}

func (m *IDMapper) AddGIDMapping(sourceSite string, sourceGID, destGID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passthrough = false
	m.gids[idKey{sourceSite, sourceGID}] = destGID
}

func (m *IDMapper) RemoveGIDMapping(sourceSite string, sourceGID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gids, idKey{sourceSite, sourceGID})
}

func (m *IDMapper) MapUID(sourceSite string, sourceUID uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.uids[idKey{sourceSite, sourceUID}]; ok {
		return v
	}
	return sourceUID
}

func (m *IDMapper) MapGID(sourceSite string, sourceGID uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.gids[idKey{sourceSite, sourceGID}]; ok {
		return v
	}
	return sourceGID
}

// IsPassthrough reports whether no explicit mapping has ever been added.
func (m *IDMapper) IsPassthrough() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.passthrough
}
