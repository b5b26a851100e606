package raftlog

import (
	"errors"

	"github.com/hashicorp/raft"

	"github.com/claudefs/claudefs/pkg/kv"
)

// This file adapts Overlay's named API onto the
// github.com/hashicorp/raft LogStore/StableStore interfaces, so the
// same overlay can be handed to raft.NewRaft by an embedder that wants
// full consensus — this package itself never runs an election.

// FirstIndex returns the smallest stored log index, or 0 if the log is
// empty.
func (o *Overlay) FirstIndex() (uint64, error) {
	pairs := o.kv.ScanPrefix([]byte(logPrefix))
	if len(pairs) == 0 {
		return 0, nil
	}
	return indexFromLogKey(pairs[0].Key), nil
}

// GetLog implements raft.LogStore.
func (o *Overlay) GetLog(index uint64, log *raft.Log) error {
	e, ok, err := o.GetEntry(index)
	if err != nil {
		return err
	}
	if !ok {
		return raft.ErrLogNotFound
	}
	log.Index = e.Index
	log.Term = e.Term
	log.Type = e.Type
	log.Data = e.Data
	log.Extensions = e.Extensions
	return nil
}

// StoreLog implements raft.LogStore.
func (o *Overlay) StoreLog(log *raft.Log) error {
	return o.StoreLogs([]*raft.Log{log})
}

// StoreLogs implements raft.LogStore.
func (o *Overlay) StoreLogs(logs []*raft.Log) error {
	entries := make([]Entry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, Entry{
			Index:      l.Index,
			Term:       l.Term,
			Type:       l.Type,
			Data:       l.Data,
			Extensions: l.Extensions,
		})
	}
	return o.AppendEntries(entries)
}

// DeleteRange implements raft.LogStore; max is inclusive per the raft
// contract. Every entry with index in [min, max] is deleted as a single
// atomic batch; entries above max are kept.
func (o *Overlay) DeleteRange(min, max uint64) error {
	pairs := o.kv.ScanRange(logKey(min), logKeyExclusiveUpper(max))
	if len(pairs) == 0 {
		return nil
	}
	ops := make([]kv.WriteOp, 0, len(pairs))
	for _, p := range pairs {
		ops = append(ops, kv.WriteOp{Key: p.Key, Delete: true})
	}
	return o.kv.WriteBatch(ops)
}

// Set implements raft.StableStore for arbitrary keys beyond the three
// reserved scalars (raft internally also stores configuration blobs
// under its own keys).
func (o *Overlay) Set(key, val []byte) error {
	return o.kv.Put(append([]byte("raft/stable/"), key...), val)
}

// Get implements raft.StableStore.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	v, ok := o.kv.Get(append([]byte("raft/stable/"), key...))
	if !ok {
		return nil, errors.New("raftlog: key not found")
	}
	return v, nil
}

// SetUint64 implements raft.StableStore.
func (o *Overlay) SetUint64(key []byte, val uint64) error {
	return o.Set(key, u64Bytes(val))
}

// GetUint64 implements raft.StableStore.
func (o *Overlay) GetUint64(key []byte) (uint64, error) {
	v, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, errors.New("raftlog: stable uint64 value malformed")
	}
	return u64FromBytes(v), nil
}

func u64FromBytes(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
