package blockstore

import "time"

// LifecycleAction is the disposition a LifecyclePolicy assigns to a
// segment during the eviction tick.
type LifecycleAction int

const (
	// LifecycleKeep leaves the segment on the local tier untouched.
	LifecycleKeep LifecycleAction = iota
	// LifecycleTransition uploads the segment to the object tier.
	LifecycleTransition
	// LifecycleExpire deletes the segment from the object tier without
	// uploading it; the local tier is not touched by the engine.
	LifecycleExpire
)

// LifecyclePolicy classifies segments by age. A segment at least
// TransitionAfter old is moved to the object tier; one at least
// ExpireAfter old is deleted instead. ExpireAfter always takes
// precedence, since it implies the segment should not exist at all.
// Zero disables the corresponding rule.
type LifecyclePolicy struct {
	TransitionAfter time.Duration
	ExpireAfter     time.Duration
}

// Classify returns the action the policy assigns to a segment of the
// given age.
func (lp LifecyclePolicy) Classify(age time.Duration) LifecycleAction {
	if lp.ExpireAfter > 0 && age >= lp.ExpireAfter {
		return LifecycleExpire
	}
	if lp.TransitionAfter > 0 && age >= lp.TransitionAfter {
		return LifecycleTransition
	}
	return LifecycleKeep
}

// SegmentAge pairs a segment id with its current age, as supplied by
// the caller's local-tier bookkeeping for one eviction tick.
type SegmentAge struct {
	ID  uint64
	Age time.Duration
}
