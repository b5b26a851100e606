package mgmt

import (
	"sync"
	"time"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/google/uuid"
)

// RestoreState is the lifecycle state of a restore job.
type RestoreState int

const (
	RestoreRunning RestoreState = iota
	RestoreComplete
	RestoreFailed
)

func (s RestoreState) Terminal() bool {
	return s == RestoreComplete || s == RestoreFailed
}

// RestoreJob tracks an in-flight or completed snapshot restore.
type RestoreJob struct {
	ID            string
	SnapshotName  string
	TargetPath    string
	StartedAt     time.Time
	TotalBytes    uint64
	RestoredBytes uint64
	State         RestoreState
	FailureReason string
}

// SnapshotEntry is a catalog record for a named snapshot.
type SnapshotEntry struct {
	Name      string
	CreatedAt time.Time
	SizeBytes uint64
}

// SnapshotCatalog tracks known snapshots and the restore jobs
// referencing them. Delete fails while a non-terminal restore job
// references the snapshot.
type SnapshotCatalog struct {
	mu        sync.Mutex
	catalog   *Catalog
	snapshots map[string]SnapshotEntry
	restores  map[string]*RestoreJob
}

func NewSnapshotCatalog(catalog *Catalog) *SnapshotCatalog {
	return &SnapshotCatalog{
		catalog:   catalog,
		snapshots: make(map[string]SnapshotEntry),
		restores:  make(map[string]*RestoreJob),
	}
}

func (c *SnapshotCatalog) AddSnapshot(entry SnapshotEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[entry.Name] = entry
	if c.catalog != nil {
		return c.catalog.put(bucketSnapshots, entry.Name, entry)
	}
	return nil
}

func (c *SnapshotCatalog) GetSnapshot(name string) (SnapshotEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.snapshots[name]
	return e, ok
}

// DeleteSnapshot fails with KindSnapshotInUse if any non-terminal
// restore job still references name.
func (c *SnapshotCatalog) DeleteSnapshot(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, job := range c.restores {
		if job.SnapshotName == name && !job.State.Terminal() {
			return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindSnapshotInUse, name)
		}
	}
	delete(c.snapshots, name)
	if c.catalog != nil {
		return c.catalog.delete(bucketSnapshots, name)
	}
	return nil
}

func (c *SnapshotCatalog) ListSnapshots() []SnapshotEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SnapshotEntry, 0, len(c.snapshots))
	for _, e := range c.snapshots {
		out = append(out, e)
	}
	return out
}

// StartRestore creates a new Running restore job for snapshotName.
func (c *SnapshotCatalog) StartRestore(snapshotName, targetPath string, totalBytes uint64, now time.Time) (*RestoreJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.snapshots[snapshotName]; !ok {
		return nil, claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, snapshotName)
	}
	job := &RestoreJob{
		ID:           uuid.NewString(),
		SnapshotName: snapshotName,
		TargetPath:   targetPath,
		StartedAt:    now,
		TotalBytes:   totalBytes,
		State:        RestoreRunning,
	}
	c.restores[job.ID] = job
	if c.catalog != nil {
		if err := c.catalog.put(bucketRestoreJobs, job.ID, job); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func (c *SnapshotCatalog) AdvanceRestore(id string, restoredBytes uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.restores[id]
	if !ok {
		return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, id)
	}
	job.RestoredBytes = restoredBytes
	if c.catalog != nil {
		return c.catalog.put(bucketRestoreJobs, id, job)
	}
	return nil
}

func (c *SnapshotCatalog) CompleteRestore(id string) error {
	return c.finishRestore(id, RestoreComplete, "")
}

func (c *SnapshotCatalog) FailRestore(id, reason string) error {
	return c.finishRestore(id, RestoreFailed, reason)
}

func (c *SnapshotCatalog) finishRestore(id string, state RestoreState, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.restores[id]
	if !ok {
		return claudeerr.New(claudeerr.DomainMgmt, claudeerr.KindNotFound, id)
	}
	job.State = state
	job.FailureReason = reason
	if c.catalog != nil {
		return c.catalog.put(bucketRestoreJobs, id, job)
	}
	return nil
}

func (c *SnapshotCatalog) GetRestore(id string) (*RestoreJob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.restores[id]
	return job, ok
}

func (c *SnapshotCatalog) ListRestores() []*RestoreJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*RestoreJob, 0, len(c.restores))
	for _, j := range c.restores {
		out = append(out, j)
	}
	return out
}
