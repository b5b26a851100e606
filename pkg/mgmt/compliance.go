package mgmt

import (
	"sync"
	"time"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/google/uuid"
)

// RetentionStatus is the derived status of a compliance record at a
// point in time.
type RetentionStatus int

const (
	RetentionActive RetentionStatus = iota
	RetentionExpired
	RetentionLocked
)

// RetentionRecord binds a filesystem path to a retention policy.
type RetentionRecord struct {
	RecordID    string
	Path        string
	PolicyID    string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	WormEnabled bool
}

// Status derives the record's status at now. WORM-enabled records are
// always Locked; otherwise Expired once now has reached expires_at,
// else Active.
func (r RetentionRecord) Status(now time.Time) RetentionStatus {
	if r.WormEnabled {
		return RetentionLocked
	}
	if !now.Before(r.ExpiresAt) {
		return RetentionExpired
	}
	return RetentionActive
}

// CompliancePolicy is the retention duration a record is created
// under.
type CompliancePolicy struct {
	ID             string
	RetentionDays  int
	WormEnabled    bool
}

// ComplianceRegistry tracks retention policies and the records bound
// to them.
type ComplianceRegistry struct {
	mu       sync.Mutex
	catalog  *Catalog
	policies map[string]CompliancePolicy
	records  map[string]RetentionRecord
}

func NewComplianceRegistry(catalog *Catalog) *ComplianceRegistry {
	return &ComplianceRegistry{
		catalog:  catalog,
		policies: make(map[string]CompliancePolicy),
		records:  make(map[string]RetentionRecord),
	}
}

func (r *ComplianceRegistry) AddPolicy(p CompliancePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.ID] = p
}

// CreateRecord stamps a new retention record against policyID, using
// the policy's retention_days to compute expires_at.
func (r *ComplianceRegistry) CreateRecord(path, policyID string, now time.Time) (RetentionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy, ok := r.policies[policyID]
	if !ok {
		return RetentionRecord{}, claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, policyID)
	}
	rec := RetentionRecord{
		RecordID:    uuid.NewString(),
		Path:        path,
		PolicyID:    policyID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(policy.RetentionDays) * 24 * time.Hour),
		WormEnabled: policy.WormEnabled,
	}
	r.records[rec.RecordID] = rec
	if r.catalog != nil {
		if err := r.catalog.put(bucketCompliance, rec.RecordID, rec); err != nil {
			return RetentionRecord{}, err
		}
	}
	return rec, nil
}

func (r *ComplianceRegistry) GetRecord(id string) (RetentionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

func (r *ComplianceRegistry) ListRecords() []RetentionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RetentionRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}

// Expired returns every non-WORM record whose status is Expired at now.
func (r *ComplianceRegistry) Expired(now time.Time) []RetentionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RetentionRecord
	for _, rec := range r.records {
		if rec.Status(now) == RetentionExpired {
			out = append(out, rec)
		}
	}
	return out
}
