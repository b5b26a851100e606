package mgmt

import (
	"math"
	"sync"
	"time"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

const unlimited = math.MaxUint64

// TenantConfig is a tenant's static configuration.
type TenantConfig struct {
	ID          string
	RootInode   uint64
	MaxInodes   uint64 // math.MaxUint64 means unlimited
	MaxBytes    uint64
	AllowedUIDs []uint32
	AllowedGIDs []uint32
	Active      bool
	CreatedAt   time.Time
}

type tenantUsage struct {
	inodes uint64
	bytes  uint64
}

// TenantManager enforces multi-tenant inode/byte quotas and UID/GID
// authorization.
type TenantManager struct {
	mu      sync.Mutex
	catalog *Catalog
	configs map[string]TenantConfig
	usage   map[string]*tenantUsage
	owner   map[uint64]string // inode -> tenant id
}

func NewTenantManager(catalog *Catalog) *TenantManager {
	return &TenantManager{
		catalog: catalog,
		configs: make(map[string]TenantConfig),
		usage:   make(map[string]*tenantUsage),
		owner:   make(map[uint64]string),
	}
}

func (m *TenantManager) AddTenant(cfg TenantConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = cfg
	if _, ok := m.usage[cfg.ID]; !ok {
		m.usage[cfg.ID] = &tenantUsage{}
	}
	if m.catalog != nil {
		return m.catalog.put(bucketTenants, cfg.ID, cfg)
	}
	return nil
}

func (m *TenantManager) GetTenant(id string) (TenantConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[id]
	return c, ok
}

// AssignInode binds inode to tenantID. Fails if the tenant is missing,
// inactive, or already at its inode quota.
func (m *TenantManager) AssignInode(tenantID string, inode uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[tenantID]
	if !ok {
		return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, tenantID)
	}
	if !cfg.Active {
		return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindTenantInactive, tenantID)
	}
	u := m.usage[tenantID]
	if cfg.MaxInodes != unlimited && u.inodes >= cfg.MaxInodes {
		return claudeerr.New(claudeerr.DomainFuse, claudeerr.KindQuotaExceeded, tenantID)
	}
	u.inodes++
	m.owner[inode] = tenantID
	return nil
}

// CheckTenantQuota reports whether adding deltaInodes/deltaBytes would
// keep tenantID within both quota dimensions. u64::MAX limits are
// treated as unlimited.
func (m *TenantManager) CheckTenantQuota(tenantID string, deltaInodes, deltaBytes uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[tenantID]
	if !ok {
		return false
	}
	u := m.usage[tenantID]
	if cfg.MaxInodes != unlimited && u.inodes+deltaInodes > cfg.MaxInodes {
		return false
	}
	if cfg.MaxBytes != unlimited && u.bytes+deltaBytes > cfg.MaxBytes {
		return false
	}
	return true
}

// IsAuthorized reports whether uid/gid may access tenantID: the
// tenant must be active, and either both allow-lists are empty or uid
// or gid appears in its respective list.
func (m *TenantManager) IsAuthorized(tenantID string, uid, gid uint32) bool {
	m.mu.Lock()
	cfg, ok := m.configs[tenantID]
	m.mu.Unlock()
	if !ok || !cfg.Active {
		return false
	}
	if len(cfg.AllowedUIDs) == 0 && len(cfg.AllowedGIDs) == 0 {
		return true
	}
	for _, u := range cfg.AllowedUIDs {
		if u == uid {
			return true
		}
	}
	for _, g := range cfg.AllowedGIDs {
		if g == gid {
			return true
		}
	}
	return false
}

func (m *TenantManager) TenantOf(inode uint64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.owner[inode]
	return id, ok
}

// Count returns the number of configured tenants.
func (m *TenantManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs)
}
