package blockstore

import "path/filepath"

// BucketPolicy validates a principal against allow/deny glob patterns
// (as accepted by path.Match) before a put_segment or get_segment is
// permitted. Deny patterns take precedence over allow patterns. With
// no allow patterns configured, the policy is considered unset and
// admits every principal not explicitly denied.
type BucketPolicy struct {
	allow []string
	deny  []string
}

func NewBucketPolicy(allow, deny []string) *BucketPolicy {
	return &BucketPolicy{allow: allow, deny: deny}
}

// Allowed reports whether principal may perform a segment operation.
func (bp *BucketPolicy) Allowed(principal string) bool {
	for _, pat := range bp.deny {
		if matched, _ := filepath.Match(pat, principal); matched {
			return false
		}
	}
	if len(bp.allow) == 0 {
		return true
	}
	for _, pat := range bp.allow {
		if matched, _ := filepath.Match(pat, principal); matched {
			return true
		}
	}
	return false
}
