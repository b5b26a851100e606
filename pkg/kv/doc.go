/*
Package kv implements ClaudeFS's persistent metadata key-value store:
an in-memory ordered map backed by a write-ahead log and periodic
checkpoints.

# Architecture

	┌──────────────────── KV STORE ────────────────────────┐
	│                                                        │
	│  ┌──────────────────────────────────────────┐        │
	│  │      in-memory btree.BTreeG[item]         │        │
	│  │  - lexicographic key order                │        │
	│  │  - guarded by a RWMutex                   │        │
	│  └─────────────────┬──────────────────────────┘        │
	│                    │ put/delete append first           │
	│  ┌─────────────────▼──────────────────────────┐        │
	│  │         write-ahead log (wal.log)           │        │
	│  │  - length-prefixed entries, fsync'd         │        │
	│  │  - serialized under a single mutex          │        │
	│  └─────────────────┬──────────────────────────┘        │
	│                    │ checkpoint() truncates             │
	│  ┌─────────────────▼──────────────────────────┐        │
	│  │         checkpoint.bin (atomic rename)      │        │
	│  └──────────────────────────────────────────────┘        │
	└────────────────────────────────────────────────────────┘

Recovery on Open: load checkpoint.bin if present, then replay wal.log
from the start, applying each entry and advancing the sequence counter
to the maximum seen. An incomplete trailing record (the file ends
before the declared payload length) is treated as evidence of a
crashed in-flight append and is silently dropped, not an error; a
complete record whose payload fails to decode is a corrupt-WAL error.
*/
package kv
