// Package claudeerr defines the typed error taxonomy shared by every
// ClaudeFS subsystem. Each subsystem exposes its errors as a Kind
// paired with an optional wrapped cause, so callers can branch with
// errors.Is/errors.As without parsing strings.
package claudeerr

import (
	"errors"
	"fmt"
	"time"
)

// Domain identifies which subsystem raised the error.
type Domain string

const (
	DomainStorage       Domain = "storage"
	DomainKV            Domain = "kv"
	DomainTransport     Domain = "transport"
	DomainCluster       Domain = "cluster"
	DomainReplication   Domain = "replication"
	DomainFuse          Domain = "fuse"
	DomainAuth          Domain = "auth"
	DomainMgmt          Domain = "mgmt"
)

// Kind is a specific error condition within a Domain.
type Kind string

const (
	// Storage.*
	KindInvalidMagic         Kind = "invalid_magic"
	KindCorruptedSuperblock  Kind = "corrupted_superblock"
	KindChecksumMismatch     Kind = "checksum_mismatch"
	KindSnapshotNotFound     Kind = "snapshot_not_found"
	KindInvalidSnapshotState Kind = "invalid_snapshot_state"
	KindSerializationError   Kind = "serialization_error"
	KindIO                   Kind = "io"

	// Kv.*
	KindCorruptWAL        Kind = "corrupt_wal"
	KindCorruptCheckpoint Kind = "corrupt_checkpoint"
	KindLockPoisoned      Kind = "lock_poisoned"

	// Transport.*
	KindFrameTooShort     Kind = "frame_too_short"
	KindBadMagic          Kind = "bad_magic"
	KindBadVersion        Kind = "bad_version"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindHeaderCRCMismatch Kind = "header_crc_mismatch"
	KindTimeout           Kind = "timeout"
	KindCircuitOpen       Kind = "circuit_open"
	KindRateLimited       Kind = "rate_limited"
	KindShed              Kind = "shed"
	KindExhausted         Kind = "exhausted"

	// Cluster.*
	KindUnknownMember    Kind = "unknown_member"
	KindStaleIncarnation Kind = "stale_incarnation"

	// Replication.*
	KindCursorRegression  Kind = "cursor_regression"
	KindFingerprintMismatch Kind = "fingerprint_mismatch"
	KindJournalFull       Kind = "journal_full"

	// Fuse.*
	KindQuotaExceeded        Kind = "quota_exceeded"
	KindWormViolation        Kind = "worm_violation"
	KindPolicyViolation      Kind = "policy_violation"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindBusy                 Kind = "busy"
	KindInvalidArgument      Kind = "invalid_argument"

	// Auth.*
	KindNotEnrolled          Kind = "not_enrolled"
	KindAlreadyEnrolled      Kind = "already_enrolled"
	KindEnrollmentInProgress Kind = "enrollment_in_progress"
	KindCertExpired          Kind = "cert_expired"
	KindInvalidPem           Kind = "invalid_pem"
	KindAlreadyRevoked       Kind = "already_revoked"

	// Mgmt.* (KindQuotaExceeded above is reused for tenant quota checks)
	KindNotFound       Kind = "not_found"
	KindSnapshotInUse  Kind = "snapshot_in_use"
	KindTenantInactive Kind = "tenant_inactive"
)

// Error is the concrete error type returned by all ClaudeFS packages.
type Error struct {
	Domain  Domain
	Kind    Kind
	Message string
	// RetryAfter is populated for KindRateLimited.
	RetryAfter time.Duration
	Cause      error
}

func New(domain Domain, kind Kind, message string) *Error {
	return &Error{Domain: domain, Kind: kind, Message: message}
}

func Wrap(domain Domain, kind Kind, message string, cause error) *Error {
	return &Error{Domain: domain, Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, claudeerr.New(domain, kind, "")) to match on
// domain+kind alone, ignoring message and cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Domain == t.Domain && e.Kind == t.Kind
}

// Is reports whether err is a claudeerr.Error with the given domain and kind.
func Is(err error, domain Domain, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Domain == domain && e.Kind == kind
}

// KindOf extracts the Kind of err if it is a claudeerr.Error, with ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
