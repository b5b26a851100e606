package kv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCrashRecovery(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	require.NoError(t, s.Delete([]byte("a")))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	_, ok := s2.Get([]byte("a"))
	require.False(t, ok)
	v, ok := s2.Get([]byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestPutGetDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put([]byte("k"), []byte("v1")))
	v, ok := s.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Put([]byte("k"), []byte("v2")))
	v, ok = s.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, []byte("v2"), v)

	require.NoError(t, s.Delete([]byte("k")))
	_, ok = s.Get([]byte("k"))
	require.False(t, ok)
}

func TestScanPrefixAndRange(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	keys := []string{"a/1", "a/2", "a/3", "b/1"}
	for _, k := range keys {
		require.NoError(t, s.Put([]byte(k), []byte("v")))
	}

	prefixed := s.ScanPrefix([]byte("a/"))
	require.Len(t, prefixed, 3)
	for _, kv := range prefixed {
		require.Regexp(t, `^a/`, string(kv.Key))
	}

	ranged := s.ScanRange([]byte("a/2"), []byte("b/1"))
	require.Len(t, ranged, 2)
	require.Equal(t, "a/2", string(ranged[0].Key))
	require.Equal(t, "a/3", string(ranged[1].Key))
}

func TestWriteBatchAtomicVisibility(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	err = s.WriteBatch([]WriteOp{
		{Key: []byte("x"), Value: []byte("1")},
		{Key: []byte("y"), Value: []byte("2")},
	})
	require.NoError(t, err)

	vx, ok := s.Get([]byte("x"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), vx)
	vy, ok := s.Get([]byte("y"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), vy)
}

func TestCheckpointTruncatesWALAndSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	require.NoError(t, s.Checkpoint())
	require.NoError(t, s.Put([]byte("c"), []byte("3")))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	for k, want := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		v, ok := s2.Get([]byte(k))
		require.True(t, ok, k)
		require.Equal(t, want, string(v))
	}
	require.Equal(t, uint64(3), s2.Seq())
}

func TestReplayIgnoresTruncatedTailRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Close())

	// Simulate a crashed in-flight append: a declared length that runs
	// past EOF must be dropped silently, not treated as an error.
	f, err := os.OpenFile(dir+"/wal.log", os.O_RDWR|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xFF, 0xFF, 0xFF, 0x7F})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	v, ok := s2.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)
}
