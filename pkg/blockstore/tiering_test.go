package blockstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memObjectStore struct {
	mu   sync.Mutex
	data map[uint64][]byte
	fail map[uint64]bool
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{data: make(map[uint64][]byte), fail: make(map[uint64]bool)}
}

func (m *memObjectStore) PutSegment(ctx context.Context, id uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[id] {
		return context.DeadlineExceeded
	}
	cp := append([]byte(nil), data...)
	m.data[id] = cp
	return nil
}

func (m *memObjectStore) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[id]
	if !ok {
		return nil, context.Canceled
	}
	return v, nil
}

func (m *memObjectStore) DeleteSegment(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memObjectStore) Exists(ctx context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok, nil
}

func (m *memObjectStore) ListSegments(ctx context.Context) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id := range m.data {
		ids = append(ids, id)
	}
	return sortSegmentIDs(ids), nil
}

func TestUploadSegmentUpdatesStats(t *testing.T) {
	store := newMemObjectStore()
	e := NewEngine(store, TierCache, true)

	verified, err := e.UploadSegment(context.Background(), "client-1", 1, []byte("abc"))
	require.NoError(t, err)
	require.True(t, verified)

	stats := e.Stats()
	require.Equal(t, uint64(1), stats.SegmentsUploaded)
	require.Equal(t, uint64(3), stats.BytesUploaded)
}

func TestUploadSegmentDisabledModeNoOp(t *testing.T) {
	store := newMemObjectStore()
	e := NewEngine(store, TierDisabled, false)

	verified, err := e.UploadSegment(context.Background(), "client-1", 1, []byte("abc"))
	require.NoError(t, err)
	require.False(t, verified)
	require.Zero(t, e.Stats().SegmentsUploaded)
}

func TestEvictBatchPartialSuccess(t *testing.T) {
	store := newMemObjectStore()
	store.fail[2] = true
	e := NewEngine(store, TierTiered, false)

	data := map[uint64][]byte{1: []byte("a"), 2: []byte("b"), 3: []byte("c")}
	ok, err := e.EvictBatch(context.Background(), []uint64{1, 2, 3}, func(id uint64) ([]byte, bool) {
		d, present := data[id]
		return d, present
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{1, 3}, ok)
}

func TestDownloadSegmentDeniedByBucketPolicy(t *testing.T) {
	store := newMemObjectStore()
	store.data[1] = []byte("abc")
	e := NewEngine(store, TierCache, false)
	e.SetBucketPolicy(NewBucketPolicy([]string{"svc-*"}, nil))

	_, err := e.DownloadSegment(context.Background(), "intruder", 1)
	require.Error(t, err)

	data, err := e.DownloadSegment(context.Background(), "svc-reader", 1)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)
}

func TestUploadSegmentDeniedByBucketPolicy(t *testing.T) {
	store := newMemObjectStore()
	e := NewEngine(store, TierCache, false)
	e.SetBucketPolicy(NewBucketPolicy(nil, []string{"banned-*"}))

	_, err := e.UploadSegment(context.Background(), "banned-writer", 1, []byte("x"))
	require.Error(t, err)
	require.Zero(t, e.Stats().SegmentsUploaded)
}

func TestEvictTickAppliesLifecyclePolicy(t *testing.T) {
	store := newMemObjectStore()
	e := NewEngine(store, TierTiered, false)
	e.SetLifecyclePolicy(&LifecyclePolicy{
		TransitionAfter: time.Hour,
		ExpireAfter:     24 * time.Hour,
	})
	store.data[3] = []byte("already-remote")

	data := map[uint64][]byte{1: []byte("a"), 2: []byte("b")}
	result, err := e.EvictTick(context.Background(), []SegmentAge{
		{ID: 1, Age: 10 * time.Minute},   // too young: kept
		{ID: 2, Age: 2 * time.Hour},      // transitioned
		{ID: 3, Age: 48 * time.Hour},     // expired
	}, func(id uint64) ([]byte, bool) {
		d, present := data[id]
		return d, present
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{2}, result.Transitioned)
	require.ElementsMatch(t, []uint64{3}, result.Expired)

	exists, _ := store.Exists(context.Background(), 3)
	require.False(t, exists)
}

func TestSegmentKeyRoundTrip(t *testing.T) {
	key := SegmentKey("segments/", 42)
	require.Equal(t, "segments/42", key)

	id, ok := ParseSegmentKey("segments/", key)
	require.True(t, ok)
	require.Equal(t, uint64(42), id)
}

func TestParseSegmentKeyRejectsWrongPrefix(t *testing.T) {
	_, ok := ParseSegmentKey("segments/", "other/42")
	require.False(t, ok)
}
