package fuseside

import "sync"

// Capability is a single privileged operation a mount may need.
type Capability int

const (
	CapSysAdmin Capability = iota
	CapDacReadSearch
	CapDacOverride
	CapChown
)

// PolicyMode controls how syscall-policy violations are handled.
type PolicyMode int

const (
	PolicyDisabled PolicyMode = iota
	PolicyLog
	PolicyEnforce
)

// PolicyViolation records one denied or logged syscall.
type PolicyViolation struct {
	Syscall string
	Details string
}

// SecurityPolicy enforces a capability set and a syscall allow-list,
// recording violations up to a configurable cap.
type SecurityPolicy struct {
	mu sync.Mutex

	capabilities map[Capability]bool
	allowlist    map[string]bool
	mode         PolicyMode

	violations []PolicyViolation
	cap        int
}

// DefaultFuseMinimalCapabilities is the default capability set: the
// minimum a FUSE mount needs to serve files on behalf of other users.
func DefaultFuseMinimalCapabilities() map[Capability]bool {
	return map[Capability]bool{CapSysAdmin: true, CapDacReadSearch: true}
}

func NewSecurityPolicy(allowlist []string, mode PolicyMode, violationCap int) *SecurityPolicy {
	al := make(map[string]bool, len(allowlist))
	for _, s := range allowlist {
		al[s] = true
	}
	return &SecurityPolicy{
		capabilities: DefaultFuseMinimalCapabilities(),
		allowlist:    al,
		mode:         mode,
		cap:          violationCap,
	}
}

func (p *SecurityPolicy) HasCapability(c Capability) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capabilities[c]
}

func (p *SecurityPolicy) GrantCapability(c Capability) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capabilities[c] = true
}

func (p *SecurityPolicy) RevokeCapability(c Capability) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.capabilities, c)
}

// CheckSyscall returns true when the policy permits name (or the
// policy mode is Disabled/Log), recording a violation when it does
// not.
func (p *SecurityPolicy) CheckSyscall(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == PolicyDisabled || p.allowlist[name] {
		return true
	}
	p.recordViolation(name, "not in syscall allow-list")
	return p.mode == PolicyLog
}

func (p *SecurityPolicy) RecordViolation(kind string, details string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recordViolation(kind, details)
}

func (p *SecurityPolicy) recordViolation(kind, details string) {
	p.violations = append(p.violations, PolicyViolation{Syscall: kind, Details: details})
}

func (p *SecurityPolicy) Violations() []PolicyViolation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PolicyViolation, len(p.violations))
	copy(out, p.violations)
	return out
}

// IsOverLimit reports whether the violation count exceeds cap.
func (p *SecurityPolicy) IsOverLimit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.violations) > p.cap
}
