package kv

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// Checkpoint serializes the full in-memory map and current sequence to
// a temp file, fsyncs it, atomically renames it to checkpoint.bin, and
// truncates the WAL to zero length.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpPath := s.ckptPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "create checkpoint temp file", err)
	}

	var seqBuf [8]byte
	binary.LittleEndian.PutUint64(seqBuf[:], s.seq)
	if _, err := f.Write(seqBuf[:]); err != nil {
		f.Close()
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write checkpoint seq", err)
	}

	var writeErr error
	s.tree.Ascend(func(it item) bool {
		if err := writeCheckpointEntry(f, it); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		f.Close()
		return writeErr
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "fsync checkpoint", err)
	}
	if err := f.Close(); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "close checkpoint temp file", err)
	}
	if err := os.Rename(tmpPath, s.ckptPath); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "rename checkpoint into place", err)
	}

	s.walMu.Lock()
	defer s.walMu.Unlock()
	if err := s.wal.Truncate(0); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "truncate wal", err)
	}
	if _, err := s.wal.Seek(0, io.SeekStart); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "seek wal after truncate", err)
	}
	s.logger.Info().Uint64("seq", s.seq).Msg("checkpoint complete")
	return nil
}

func writeCheckpointEntry(w io.Writer, it item) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(it.key)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write checkpoint key length", err)
	}
	if _, err := w.Write(it.key); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write checkpoint key", err)
	}
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(it.value)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write checkpoint value length", err)
	}
	if _, err := w.Write(it.value); err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "write checkpoint value", err)
	}
	return nil
}

// loadCheckpoint populates the tree and initial sequence from
// checkpoint.bin if present. Absence of the file is not an error.
func (s *Store) loadCheckpoint() error {
	f, err := os.Open(s.ckptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "open checkpoint", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return claudeerr.Wrap(claudeerr.DomainKV, claudeerr.KindIO, "read checkpoint", err)
	}
	if len(data) < 8 {
		return claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptCheckpoint, "checkpoint shorter than seq header")
	}
	s.seq = binary.LittleEndian.Uint64(data[:8])
	off := 8
	for off < len(data) {
		if off+4 > len(data) {
			return claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptCheckpoint, "truncated key length")
		}
		klen := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if klen < 0 || off+klen > len(data) {
			return claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptCheckpoint, "truncated key")
		}
		key := append([]byte(nil), data[off:off+klen]...)
		off += klen

		if off+4 > len(data) {
			return claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptCheckpoint, "truncated value length")
		}
		vlen := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if vlen < 0 || off+vlen > len(data) {
			return claudeerr.New(claudeerr.DomainKV, claudeerr.KindCorruptCheckpoint, "truncated value")
		}
		val := append([]byte(nil), data[off:off+vlen]...)
		off += vlen

		s.tree.ReplaceOrInsert(item{key: key, value: val})
	}
	return nil
}
