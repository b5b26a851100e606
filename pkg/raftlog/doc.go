/*
Package raftlog persists Raft consensus state on top of pkg/kv. It
implements github.com/hashicorp/raft's LogStore and StableStore
interfaces so the overlay can be handed directly to raft.NewRaft, but
the election algorithm itself is out of scope — this package only
implements the durable contract those interfaces describe, not timers
or leader election.

Three reserved keys hold scalar hard state:

	raft/term          8-byte big-endian uint64
	raft/voted_for     raw candidate id bytes, key absent when null
	raft/commit_index  8-byte big-endian uint64

Log entries live under raft/log/<8-byte-big-endian-index>, so a
lexicographic key scan is an index-ordered scan for free.
*/
package raftlog
