package kv

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/btree"
	"github.com/rs/zerolog"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

// item is the unit stored in the in-memory ordered tree.
type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// KV is a single point, prefix, and range get/put/delete pair.
type KV struct {
	Key   []byte
	Value []byte
}

// WriteOp is one operation within a write-ahead-logged batch.
type WriteOp struct {
	Key    []byte
	Value  []byte // nil Value with Delete=true removes Key
	Delete bool
}

// Store is a crash-safe ordered key-value store with atomic batches.
//
// Concurrency discipline: a read-write lock guards the in-memory
// tree so reads do not block other reads; WAL appends are serialized
// by a separate mutex so a write_batch's WAL entries land
// contiguously before the matching in-memory mutation is applied.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[item]
	seq  uint64

	dir       string
	walMu     sync.Mutex
	wal       *os.File
	walPath   string
	ckptPath  string
	poisoned  bool

	logger zerolog.Logger
}

const (
	walFileName  = "wal.log"
	ckptFileName = "checkpoint.bin"
)

// Open opens (creating if necessary) a store rooted at dir, replaying
// any checkpoint and WAL found there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "create store dir", err)
	}

	s := &Store{
		tree:     btree.NewG[item](32, lessItem),
		dir:      dir,
		walPath:  filepath.Join(dir, walFileName),
		ckptPath: filepath.Join(dir, ckptFileName),
		logger:   log.WithComponent("kv"),
	}

	if err := s.loadCheckpoint(); err != nil {
		return nil, err
	}

	wal, err := os.OpenFile(s.walPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "open wal", err)
	}
	s.wal = wal

	if err := s.replayWAL(); err != nil {
		wal.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying WAL file handle.
func (s *Store) Close() error {
	s.walMu.Lock()
	defer s.walMu.Unlock()
	if s.wal == nil {
		return nil
	}
	err := s.wal.Close()
	s.wal = nil
	return err
}

func (s *Store) checkPoisoned() error {
	if s.poisoned {
		return claudeerr.New(claudeerr.DomainKV, claudeerr.KindLockPoisoned, "store lock poisoned by a previous failed mutation")
	}
	return nil
}

// Get consults the in-memory map only.
func (s *Store) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.tree.Get(item{key: key})
	if !ok {
		return nil, false
	}
	return append([]byte(nil), it.value...), true
}

// Put durably records a single key/value mutation.
func (s *Store) Put(key, value []byte) error {
	return s.WriteBatch([]WriteOp{{Key: key, Value: value}})
}

// Delete durably records a single key removal.
func (s *Store) Delete(key []byte) error {
	return s.WriteBatch([]WriteOp{{Key: key, Delete: true}})
}

// WriteBatch appends a WAL entry for every op (each receiving a unique,
// increasing sequence number) before applying any of them to the
// in-memory tree. The whole batch becomes visible to readers atomically
// because the apply step runs under one write-lock acquisition.
func (s *Store) WriteBatch(ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if err := s.checkPoisoned(); err != nil {
		return err
	}

	s.walMu.Lock()
	entries := make([]walEntry, 0, len(ops))
	for _, op := range ops {
		s.seq++
		e := walEntry{seq: s.seq, key: op.Key}
		if op.Delete {
			e.kind = opDelete
		} else {
			e.kind = opPut
			e.value = op.Value
		}
		entries = append(entries, e)
	}
	if err := s.appendAndSync(entries); err != nil {
		s.walMu.Unlock()
		s.poisoned = true
		s.logger.Error().Err(err).Msg("wal append failed, store poisoned")
		return err
	}
	s.walMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			s.tree.Delete(item{key: op.Key})
		} else {
			s.tree.ReplaceOrInsert(item{key: append([]byte(nil), op.Key...), value: append([]byte(nil), op.Value...)})
		}
	}
	return nil
}

// ScanPrefix returns ordered pairs whose key begins with prefix.
func (s *Store) ScanPrefix(prefix []byte) []KV {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []KV
	s.tree.AscendGreaterOrEqual(item{key: prefix}, func(it item) bool {
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		out = append(out, KV{Key: append([]byte(nil), it.key...), Value: append([]byte(nil), it.value...)})
		return true
	})
	return out
}

// ScanRange returns ordered pairs with start <= key < end. An empty end
// means unbounded.
func (s *Store) ScanRange(start, end []byte) []KV {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []KV
	s.tree.AscendGreaterOrEqual(item{key: start}, func(it item) bool {
		if len(end) > 0 && bytes.Compare(it.key, end) >= 0 {
			return false
		}
		out = append(out, KV{Key: append([]byte(nil), it.key...), Value: append([]byte(nil), it.value...)})
		return true
	})
	return out
}

// Seq returns the last sequence number assigned.
func (s *Store) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}
