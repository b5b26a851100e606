package fuseside

import (
	"sync"
	"time"
)

// WormModeKind discriminates the per-inode retention mode.
type WormModeKind int

const (
	WormNone WormModeKind = iota
	WormAppendOnly
	WormImmutable
	WormLegalHold
	WormRetention
)

// WormMode is one inode's compliance mode.
type WormMode struct {
	Kind      WormModeKind
	HoldID    string    // set for WormLegalHold
	ExpiresAt time.Time // set for WormRetention
}

// ViolationReasonKind classifies why an operation was blocked.
type ViolationReasonKind int

const (
	ReasonImmutable ViolationReasonKind = iota
	ReasonAppendOnly
	ReasonRetentionActive
	ReasonLegalHold
)

// ViolationReason carries the reason a WORM check failed.
type ViolationReason struct {
	Kind      ViolationReasonKind
	ExpiresAt time.Time // set for ReasonRetentionActive
	HoldID    string     // set for ReasonLegalHold
}

// WormRegistry tracks per-inode compliance modes and enforces the
// write/rename/delete/truncate/append blocking rules they imply.
type WormRegistry struct {
	mu        sync.Mutex
	modes     map[uint64]WormMode
	preHold   map[uint64]WormMode
}

func NewWormRegistry() *WormRegistry {
	return &WormRegistry{modes: make(map[uint64]WormMode), preHold: make(map[uint64]WormMode)}
}

func (r *WormRegistry) SetMode(inode uint64, mode WormMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[inode] = mode
}

func (r *WormRegistry) Mode(inode uint64) WormMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modes[inode]
}

func (r *WormRegistry) blockReason(inode uint64, now time.Time) (ViolationReason, bool) {
	mode, ok := r.modes[inode]
	if !ok {
		return ViolationReason{}, false
	}
	switch mode.Kind {
	case WormImmutable:
		return ViolationReason{Kind: ReasonImmutable}, true
	case WormAppendOnly:
		return ViolationReason{Kind: ReasonAppendOnly}, true
	case WormLegalHold:
		return ViolationReason{Kind: ReasonLegalHold, HoldID: mode.HoldID}, true
	case WormRetention:
		if now.Before(mode.ExpiresAt) {
			return ViolationReason{Kind: ReasonRetentionActive, ExpiresAt: mode.ExpiresAt}, true
		}
	}
	return ViolationReason{}, false
}

func (r *WormRegistry) IsWriteBlocked(inode uint64, now time.Time) (ViolationReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockReason(inode, now)
}

func (r *WormRegistry) IsRenameBlocked(inode uint64, now time.Time) (ViolationReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockReason(inode, now)
}

func (r *WormRegistry) IsDeleteBlocked(inode uint64, now time.Time) (ViolationReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockReason(inode, now)
}

func (r *WormRegistry) IsTruncateBlocked(inode uint64, now time.Time) (ViolationReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockReason(inode, now)
}

// IsAppendAllowed reports whether an append is permitted: AppendOnly
// permits appends even though it blocks writes/deletes/truncates.
func (r *WormRegistry) IsAppendAllowed(inode uint64, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	mode, ok := r.modes[inode]
	if !ok {
		return true
	}
	if mode.Kind == WormAppendOnly {
		return true
	}
	_, blocked := r.blockReason(inode, now)
	return !blocked
}

// PlaceLegalHold saves each inode's pre-hold mode and overwrites it
// with LegalHold{holdID}.
func (r *WormRegistry) PlaceLegalHold(holdID string, inodes []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ino := range inodes {
		if prior, ok := r.modes[ino]; ok {
			r.preHold[ino] = prior
		} else {
			r.preHold[ino] = WormMode{Kind: WormNone}
		}
		r.modes[ino] = WormMode{Kind: WormLegalHold, HoldID: holdID}
	}
}

// LiftLegalHold restores each inode's pre-hold mode.
func (r *WormRegistry) LiftLegalHold(inodes []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ino := range inodes {
		if prior, ok := r.preHold[ino]; ok {
			if prior.Kind == WormNone {
				delete(r.modes, ino)
			} else {
				r.modes[ino] = prior
			}
			delete(r.preHold, ino)
		}
	}
}

// ExpiredRetention returns inodes whose WormRetention has expired.
func (r *WormRegistry) ExpiredRetention(now time.Time) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint64
	for ino, mode := range r.modes {
		if mode.Kind == WormRetention && !now.Before(mode.ExpiresAt) {
			out = append(out, ino)
		}
	}
	return out
}
