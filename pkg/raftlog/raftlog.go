package raftlog

import (
	"encoding/binary"

	"github.com/hashicorp/raft"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/kv"
)

const (
	keyTerm        = "raft/term"
	keyVotedFor    = "raft/voted_for"
	keyCommitIndex = "raft/commit_index"
	logPrefix      = "raft/log/"
)

// Overlay is the KV-backed Raft state overlay. It satisfies both
// raft.LogStore and raft.StableStore.
type Overlay struct {
	kv *kv.Store
}

func New(store *kv.Store) *Overlay {
	return &Overlay{kv: store}
}

var (
	_ raft.LogStore    = (*Overlay)(nil)
	_ raft.StableStore = (*Overlay)(nil)
)

func logKey(index uint64) []byte {
	key := make([]byte, len(logPrefix)+8)
	copy(key, logPrefix)
	binary.BigEndian.PutUint64(key[len(logPrefix):], index)
	return key
}

func indexFromLogKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(logPrefix):])
}

func u64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// --- Hard state: term, votedFor, commit index ---

func (o *Overlay) SaveTerm(term uint64) error {
	return o.kv.Put([]byte(keyTerm), u64Bytes(term))
}

func (o *Overlay) LoadTerm() (uint64, bool) {
	v, ok := o.kv.Get([]byte(keyTerm))
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(v), true
}

func (o *Overlay) SaveVotedFor(candidate []byte) error {
	if candidate == nil {
		return o.kv.Delete([]byte(keyVotedFor))
	}
	return o.kv.Put([]byte(keyVotedFor), candidate)
}

func (o *Overlay) LoadVotedFor() ([]byte, bool) {
	v, ok := o.kv.Get([]byte(keyVotedFor))
	if !ok {
		return nil, false
	}
	return v, true
}

func (o *Overlay) SaveCommitIndex(index uint64) error {
	return o.kv.Put([]byte(keyCommitIndex), u64Bytes(index))
}

func (o *Overlay) LoadCommitIndex() (uint64, bool) {
	v, ok := o.kv.Get([]byte(keyCommitIndex))
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(v), true
}

// SaveHardState persists term, votedFor, and commitIndex as a single
// atomic batch.
func (o *Overlay) SaveHardState(term uint64, votedFor []byte, commitIndex uint64) error {
	ops := []kv.WriteOp{
		{Key: []byte(keyTerm), Value: u64Bytes(term)},
		{Key: []byte(keyCommitIndex), Value: u64Bytes(commitIndex)},
	}
	if votedFor == nil {
		ops = append(ops, kv.WriteOp{Key: []byte(keyVotedFor), Delete: true})
	} else {
		ops = append(ops, kv.WriteOp{Key: []byte(keyVotedFor), Value: votedFor})
	}
	return o.kv.WriteBatch(ops)
}

// --- Log entries ---

// Entry is the canonical {index, term, operation} tuple applied to the
// KV engine.
type Entry struct {
	Index      uint64
	Term       uint64
	Type       raft.LogType
	Data       []byte
	Extensions []byte
}

func encodeEntry(e Entry) []byte {
	size := 8 + 1 + 4 + len(e.Data) + 4 + len(e.Extensions)
	buf := make([]byte, size)
	off := 0
	binary.BigEndian.PutUint64(buf[off:], e.Term)
	off += 8
	buf[off] = byte(e.Type)
	off++
	binary.BigEndian.PutUint32(buf[off:], uint32(len(e.Data)))
	off += 4
	off += copy(buf[off:], e.Data)
	binary.BigEndian.PutUint32(buf[off:], uint32(len(e.Extensions)))
	off += 4
	copy(buf[off:], e.Extensions)
	return buf
}

func decodeEntry(index uint64, buf []byte) (Entry, error) {
	if len(buf) < 8+1+4 {
		return Entry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "raft log entry too short")
	}
	var e Entry
	e.Index = index
	off := 0
	e.Term = binary.BigEndian.Uint64(buf[off:])
	off += 8
	e.Type = raft.LogType(buf[off])
	off++
	dlen := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	if off+dlen > len(buf) {
		return Entry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "raft log entry data out of bounds")
	}
	e.Data = append([]byte(nil), buf[off:off+dlen]...)
	off += dlen
	if off+4 > len(buf) {
		return Entry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "raft log entry missing extensions length")
	}
	elen := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	if off+elen > len(buf) {
		return Entry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "raft log entry extensions out of bounds")
	}
	e.Extensions = append([]byte(nil), buf[off:off+elen]...)
	return e, nil
}

// AppendEntry appends a single log entry.
func (o *Overlay) AppendEntry(e Entry) error {
	return o.AppendEntries([]Entry{e})
}

// AppendEntries appends a batch of entries as a single atomic write.
func (o *Overlay) AppendEntries(entries []Entry) error {
	ops := make([]kv.WriteOp, 0, len(entries))
	for _, e := range entries {
		ops = append(ops, kv.WriteOp{Key: logKey(e.Index), Value: encodeEntry(e)})
	}
	return o.kv.WriteBatch(ops)
}

// GetEntry returns the entry at index, or ok=false if absent.
func (o *Overlay) GetEntry(index uint64) (Entry, bool, error) {
	v, ok := o.kv.Get(logKey(index))
	if !ok {
		return Entry{}, false, nil
	}
	e, err := decodeEntry(index, v)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// GetEntries returns entries with index in [start, end], sorted by index.
func (o *Overlay) GetEntries(start, end uint64) ([]Entry, error) {
	pairs := o.kv.ScanRange(logKey(start), logKeyExclusiveUpper(end))
	out := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		idx := indexFromLogKey(p.Key)
		e, err := decodeEntry(idx, p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// logKeyExclusiveUpper returns the key one past index, for use as the
// exclusive end of a ScanRange covering index inclusively.
func logKeyExclusiveUpper(index uint64) []byte {
	return logKey(index + 1)
}

// LastEntry returns the entry with the greatest index, if any.
func (o *Overlay) LastEntry() (Entry, bool, error) {
	pairs := o.kv.ScanPrefix([]byte(logPrefix))
	if len(pairs) == 0 {
		return Entry{}, false, nil
	}
	last := pairs[len(pairs)-1]
	idx := indexFromLogKey(last.Key)
	e, err := decodeEntry(idx, last.Value)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// LastIndex is the maximum index across the log prefix scan.
func (o *Overlay) LastIndex() (uint64, error) {
	e, ok, err := o.LastEntry()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return e.Index, nil
}

// TruncateFrom deletes every entry with index >= from, as a single
// atomic batch. Used when a leader overwrites conflicting tail entries.
func (o *Overlay) TruncateFrom(from uint64) error {
	pairs := o.kv.ScanRange(logKey(from), nil)
	if len(pairs) == 0 {
		return nil
	}
	ops := make([]kv.WriteOp, 0, len(pairs))
	for _, p := range pairs {
		ops = append(ops, kv.WriteOp{Key: p.Key, Delete: true})
	}
	return o.kv.WriteBatch(ops)
}

// EntryCount returns the number of log entries currently stored.
func (o *Overlay) EntryCount() int {
	return len(o.kv.ScanPrefix([]byte(logPrefix)))
}
