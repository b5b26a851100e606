package kv

import (
	"encoding/binary"
	"io"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

type opKind uint8

const (
	opPut    opKind = 0
	opDelete opKind = 1
)

// walEntry is the canonical {seq, op} payload written to the WAL.
type walEntry struct {
	seq   uint64
	kind  opKind
	key   []byte
	value []byte
}

// encode serializes the entry's canonical payload (not including the
// outer 4-byte length prefix).
func (e walEntry) encode() []byte {
	size := 1 + 8 + 4 + len(e.key)
	if e.kind == opPut {
		size += 4 + len(e.value)
	}
	buf := make([]byte, size)
	off := 0
	buf[off] = byte(e.kind)
	off++
	binary.LittleEndian.PutUint64(buf[off:], e.seq)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.key)))
	off += 4
	off += copy(buf[off:], e.key)
	if e.kind == opPut {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.value)))
		off += 4
		copy(buf[off:], e.value)
	}
	return buf
}

// decodeWALEntry parses a single canonical payload. A malformed payload
// (declared lengths that don't fit within buf) is a corrupt-WAL error,
// distinct from a truncated outer record which the caller detects before
// ever reaching this function.
func decodeWALEntry(buf []byte) (walEntry, error) {
	if len(buf) < 1+8+4 {
		return walEntry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "entry shorter than fixed header")
	}
	var e walEntry
	off := 0
	e.kind = opKind(buf[off])
	off++
	e.seq = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	klen := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if klen < 0 || off+klen > len(buf) {
		return walEntry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "key length out of bounds")
	}
	e.key = append([]byte(nil), buf[off:off+klen]...)
	off += klen
	if e.kind == opPut {
		if off+4 > len(buf) {
			return walEntry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "missing value length")
		}
		vlen := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if vlen < 0 || off+vlen > len(buf) {
			return walEntry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "value length out of bounds")
		}
		e.value = append([]byte(nil), buf[off:off+vlen]...)
		off += vlen
	} else if e.kind != opDelete {
		return walEntry{}, claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptWAL, "unknown op kind")
	}
	return e, nil
}

// appendAndSync writes each entry as a length-prefixed record and
// fsyncs once the whole group has been written, matching the "fsync on
// each append" durability choice for single ops and the "all WAL
// entries written before any in-memory mutation" guarantee for batches.
func (s *Store) appendAndSync(entries []walEntry) error {
	for _, e := range entries {
		payload := e.encode()
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
		if _, err := s.wal.Write(lenBuf[:]); err != nil {
			return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write wal length prefix", err)
		}
		if _, err := s.wal.Write(payload); err != nil {
			return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write wal payload", err)
		}
	}
	if err := s.wal.Sync(); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "fsync wal", err)
	}
	return nil
}

// replayWAL applies every complete record in file order, advancing seq
// to the maximum seen. A trailing record whose declared length exceeds
// the remaining file bytes is assumed to be a crashed in-flight write
// and is silently dropped rather than treated as an error.
func (s *Store) replayWAL() error {
	if _, err := s.wal.Seek(0, io.SeekStart); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "seek wal", err)
	}
	data, err := io.ReadAll(s.wal)
	if err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "read wal", err)
	}

	off := 0
	replayed := 0
	for {
		if off+4 > len(data) {
			break // short read at tail: not an error
		}
		n := int(binary.LittleEndian.Uint32(data[off : off+4]))
		if off+4+n > len(data) {
			break // declared length exceeds remaining bytes: crashed tail write
		}
		payload := data[off+4 : off+4+n]
		off += 4 + n

		e, derr := decodeWALEntry(payload)
		if derr != nil {
			return derr // complete record, corrupt contents: real error
		}
		s.applyReplayed(e)
		replayed++
	}

	if _, err := s.wal.Seek(0, io.SeekEnd); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "seek wal to end", err)
	}
	if replayed > 0 {
		s.logger.Info().Int("entries", replayed).Msg("wal replay complete")
	}
	return nil
}

func (s *Store) applyReplayed(e walEntry) {
	if e.seq > s.seq {
		s.seq = e.seq
	}
	switch e.kind {
	case opPut:
		s.tree.ReplaceOrInsert(item{key: e.key, value: e.value})
	case opDelete:
		s.tree.Delete(item{key: e.key})
	}
}
