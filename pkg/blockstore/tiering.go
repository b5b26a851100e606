package blockstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

// ObjectStore is the capability an S3-compatible (or any other
// key/blob) backend must expose to back the tiering engine.
type ObjectStore interface {
	PutSegment(ctx context.Context, id uint64, data []byte) error
	GetSegment(ctx context.Context, id uint64) ([]byte, error)
	DeleteSegment(ctx context.Context, id uint64) error
	Exists(ctx context.Context, id uint64) (bool, error)
	ListSegments(ctx context.Context) ([]uint64, error)
}

// TierMode selects how aggressively the engine mirrors segments to
// object storage.
type TierMode uint8

const (
	// TierCache mirrors every segment asynchronously as soon as it is
	// written.
	TierCache TierMode = 0
	// TierTiered uploads only segments the caller has explicitly aged
	// out of the local tier.
	TierTiered TierMode = 1
	// TierDisabled performs no uploads.
	TierDisabled TierMode = 2
)

// Stats accumulates tiering activity counters. All fields are updated
// atomically so a running engine can be observed concurrently.
type Stats struct {
	SegmentsUploaded   uint64
	BytesUploaded      uint64
	SegmentsDownloaded uint64
	BytesDownloaded    uint64
	SegmentsDeleted    uint64
	Errors             uint64
}

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() Stats {
	return Stats{
		SegmentsUploaded:   atomic.LoadUint64(&s.SegmentsUploaded),
		BytesUploaded:      atomic.LoadUint64(&s.BytesUploaded),
		SegmentsDownloaded: atomic.LoadUint64(&s.SegmentsDownloaded),
		BytesDownloaded:    atomic.LoadUint64(&s.BytesDownloaded),
		SegmentsDeleted:    atomic.LoadUint64(&s.SegmentsDeleted),
		Errors:             atomic.LoadUint64(&s.Errors),
	}
}

// Engine drives segment movement between the local tier and an
// ObjectStore backend.
type Engine struct {
	store         ObjectStore
	mode          TierMode
	verifyUploads bool
	stats         Stats

	lifecycle *LifecyclePolicy
	bucket    *BucketPolicy

	logger zerolog.Logger
}

func NewEngine(store ObjectStore, mode TierMode, verifyUploads bool) *Engine {
	return &Engine{store: store, mode: mode, verifyUploads: verifyUploads, logger: log.WithComponent("blockstore")}
}

func (e *Engine) Mode() TierMode { return e.mode }

func (e *Engine) Stats() Stats { return e.stats.Snapshot() }

// SetLifecyclePolicy installs the policy consulted by EvictTick. A nil
// policy (the default) disables age-based transition and expiry.
func (e *Engine) SetLifecyclePolicy(lp *LifecyclePolicy) { e.lifecycle = lp }

// SetBucketPolicy installs the policy consulted by UploadSegment and
// DownloadSegment. A nil policy (the default) admits every principal.
func (e *Engine) SetBucketPolicy(bp *BucketPolicy) { e.bucket = bp }

func (e *Engine) checkPrincipal(principal string) error {
	if e.bucket == nil {
		return nil
	}
	if !e.bucket.Allowed(principal) {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindIO, fmt.Sprintf("principal %q denied by bucket policy", principal))
	}
	return nil
}

// UploadSegment puts the segment and, if verification is enabled,
// re-reads it and compares byte length. A verification mismatch is
// reported through the returned bool but is not treated as a hard
// upload failure — the bytes landed, the check just could not confirm
// it. principal is consulted against the engine's bucket policy, if
// one is set, before the put is attempted.
func (e *Engine) UploadSegment(ctx context.Context, principal string, id uint64, data []byte) (verified bool, err error) {
	if e.mode == TierDisabled {
		return false, nil
	}
	if err := e.checkPrincipal(principal); err != nil {
		atomic.AddUint64(&e.stats.Errors, 1)
		return false, err
	}
	if err := e.store.PutSegment(ctx, id, data); err != nil {
		atomic.AddUint64(&e.stats.Errors, 1)
		return false, claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "tiering upload failed", err)
	}
	atomic.AddUint64(&e.stats.SegmentsUploaded, 1)
	atomic.AddUint64(&e.stats.BytesUploaded, uint64(len(data)))

	if !e.verifyUploads {
		return true, nil
	}
	got, err := e.store.GetSegment(ctx, id)
	if err != nil || len(got) != len(data) {
		e.logger.Warn().Uint64("segment_id", id).Msg("tiering upload verification failed")
		return false, nil
	}
	return true, nil
}

// DownloadSegment fetches a segment and counts it in stats. principal
// is consulted against the engine's bucket policy, if one is set,
// before the get is attempted.
func (e *Engine) DownloadSegment(ctx context.Context, principal string, id uint64) ([]byte, error) {
	if err := e.checkPrincipal(principal); err != nil {
		atomic.AddUint64(&e.stats.Errors, 1)
		return nil, err
	}
	data, err := e.store.GetSegment(ctx, id)
	if err != nil {
		atomic.AddUint64(&e.stats.Errors, 1)
		return nil, claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "tiering download failed", err)
	}
	atomic.AddUint64(&e.stats.SegmentsDownloaded, 1)
	atomic.AddUint64(&e.stats.BytesDownloaded, uint64(len(data)))
	return data, nil
}

// DeleteSegment removes a segment from object storage.
func (e *Engine) DeleteSegment(ctx context.Context, id uint64) error {
	if err := e.store.DeleteSegment(ctx, id); err != nil {
		atomic.AddUint64(&e.stats.Errors, 1)
		return claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "tiering delete failed", err)
	}
	atomic.AddUint64(&e.stats.SegmentsDeleted, 1)
	return nil
}

// systemPrincipal identifies the eviction tick itself when consulting
// the bucket policy, distinct from any client-supplied principal.
const systemPrincipal = "tiering-engine"

// EvictBatch attempts to upload every candidate in input order,
// concurrently, and returns the ids that succeeded — still in input
// order, since partial success is permitted and callers key their own
// local-tier cleanup off this list.
func (e *Engine) EvictBatch(ctx context.Context, ids []uint64, dataFor func(id uint64) ([]byte, bool)) ([]uint64, error) {
	if e.mode == TierDisabled {
		return nil, nil
	}
	ok := make([]bool, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			data, present := dataFor(id)
			if !present {
				return nil
			}
			if _, err := e.UploadSegment(gctx, systemPrincipal, id, data); err != nil {
				return nil // partial success: record nothing, keep going
			}
			mu.Lock()
			ok[i] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	succeeded := make([]uint64, 0, len(ids))
	for i, id := range ids {
		if ok[i] {
			succeeded = append(succeeded, id)
		}
	}
	return succeeded, nil
}

// TickResult reports what an EvictTick did with each lifecycle
// classification.
type TickResult struct {
	Transitioned []uint64
	Expired      []uint64
}

// EvictTick classifies each candidate by age against the engine's
// lifecycle policy and applies the result: LifecycleTransition
// uploads the segment (same as EvictBatch), LifecycleExpire deletes
// it from the object tier without ever uploading it, and
// LifecycleKeep leaves it untouched. With no lifecycle policy set,
// every candidate is treated as LifecycleTransition — the engine's
// prior unconditional-eviction behavior.
func (e *Engine) EvictTick(ctx context.Context, candidates []SegmentAge, dataFor func(id uint64) ([]byte, bool)) (TickResult, error) {
	if e.mode == TierDisabled {
		return TickResult{}, nil
	}
	var toTransition, toExpire []uint64
	for _, c := range candidates {
		action := LifecycleTransition
		if e.lifecycle != nil {
			action = e.lifecycle.Classify(c.Age)
		}
		switch action {
		case LifecycleTransition:
			toTransition = append(toTransition, c.ID)
		case LifecycleExpire:
			toExpire = append(toExpire, c.ID)
		}
	}

	transitioned, err := e.EvictBatch(ctx, toTransition, dataFor)
	if err != nil {
		return TickResult{}, err
	}

	expired := make([]uint64, 0, len(toExpire))
	for _, id := range toExpire {
		if err := e.DeleteSegment(ctx, id); err != nil {
			continue // partial success, same discipline as EvictBatch
		}
		expired = append(expired, id)
	}

	if len(expired) > 0 {
		e.logger.Info().Int("count", len(expired)).Msg("segments expired by lifecycle policy")
	}
	return TickResult{Transitioned: transitioned, Expired: expired}, nil
}

const defaultSegmentPrefix = "segments/"

// SegmentKey formats a segment id into its S3 object key.
func SegmentKey(prefix string, id uint64) string {
	if prefix == "" {
		prefix = defaultSegmentPrefix
	}
	return fmt.Sprintf("%s%d", prefix, id)
}

// ParseSegmentKey strips prefix and parses the trailing decimal id.
func ParseSegmentKey(prefix, key string) (uint64, bool) {
	if prefix == "" {
		prefix = defaultSegmentPrefix
	}
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return 0, false
	}
	var id uint64
	if _, err := fmt.Sscanf(key[len(prefix):], "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}

// sortSegmentIDs is a small helper kept for callers that list segments
// from an ObjectStore and want a deterministic iteration order.
func sortSegmentIDs(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
