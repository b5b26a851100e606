package claudeerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	e := New(DomainKV, KindCorruptWAL, "bad entry at offset 42")
	want := "kv.corrupt_wal: bad entry at offset 42"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapIncludesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	e := Wrap(DomainStorage, KindIO, "write failed", cause)
	if !errors.Is(e, cause) {
		t.Errorf("expected wrapped error to unwrap to cause")
	}
	want := "storage.io: write failed: disk full"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsMatchesDomainAndKindIgnoringMessage(t *testing.T) {
	e := New(DomainTransport, KindCircuitOpen, "peer node-3 tripped")
	target := New(DomainTransport, KindCircuitOpen, "")
	if !errors.Is(e, target) {
		t.Errorf("expected errors.Is to match on domain+kind alone")
	}

	other := New(DomainTransport, KindRateLimited, "")
	if errors.Is(e, other) {
		t.Errorf("expected errors.Is to not match differing kind")
	}
}

func TestIsHelper(t *testing.T) {
	e := New(DomainCluster, KindUnknownMember, "node-7 not found")
	if !Is(e, DomainCluster, KindUnknownMember) {
		t.Errorf("expected Is to report true for matching domain+kind")
	}
	if Is(e, DomainCluster, KindStaleIncarnation) {
		t.Errorf("expected Is to report false for differing kind")
	}
	if Is(errors.New("plain error"), DomainCluster, KindUnknownMember) {
		t.Errorf("expected Is to report false for a non-claudeerr error")
	}
}

func TestKindOf(t *testing.T) {
	e := New(DomainFuse, KindWormViolation, "retained until 2030")
	kind, ok := KindOf(e)
	if !ok || kind != KindWormViolation {
		t.Errorf("KindOf() = (%v, %v), want (%v, true)", kind, ok, KindWormViolation)
	}

	_, ok = KindOf(errors.New("plain error"))
	if ok {
		t.Errorf("expected KindOf to report false for a non-claudeerr error")
	}
}

func TestUnwrapNilCause(t *testing.T) {
	e := New(DomainMgmt, KindNotFound, "tenant missing")
	if e.Unwrap() != nil {
		t.Errorf("expected Unwrap to return nil when no cause is set")
	}
}
