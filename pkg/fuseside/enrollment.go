package fuseside

import (
	"crypto/sha256"
	"crypto/x509"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

// EnrollmentState is the lifecycle of a client's mTLS certificate.
type EnrollmentState int

const (
	Unenrolled EnrollmentState = iota
	Enrolling
	Enrolled
	Renewing
	Revoked
)

// Fingerprint is a SHA-256 digest of a certificate's DER-encoded
// public key, used as the CRL's revocation key.
type Fingerprint [32]byte

func fingerprintOf(cert *x509.Certificate) Fingerprint {
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo)
}

// CertManager drives one client's enrollment state machine and
// maintains the cluster-wide CRL of revoked fingerprints.
type CertManager struct {
	mu sync.Mutex

	state       EnrollmentState
	token       string
	cert        *x509.Certificate
	expiresAt   time.Time
	revokedAt   time.Time
	revokeReason string

	crl *CRL
}

func NewCertManager(crl *CRL) *CertManager {
	return &CertManager{state: Unenrolled, crl: crl}
}

func (m *CertManager) State() EnrollmentState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BeginEnrollment stashes the enrollment token; valid only from
// Unenrolled.
func (m *CertManager) BeginEnrollment(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Unenrolled {
		return claudeerr.New(claudeerr.DomainAuth, claudeerr.KindEnrollmentInProgress, "enrollment already in progress or complete")
	}
	m.token = token
	m.state = Enrolling
	return nil
}

// CompleteEnrollment installs the issued certificate; valid only from
// Enrolling.
func (m *CertManager) CompleteEnrollment(cert *x509.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enrolling {
		return claudeerr.New(claudeerr.DomainAuth, claudeerr.KindInvalidStateTransition, "complete_enrollment requires Enrolling state")
	}
	m.cert = cert
	m.expiresAt = cert.NotAfter
	m.state = Enrolled
	return nil
}

// BeginRenewal starts a renewal cycle; valid only from Enrolled.
func (m *CertManager) BeginRenewal() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enrolled {
		return claudeerr.New(claudeerr.DomainAuth, claudeerr.KindInvalidStateTransition, "begin_renewal requires Enrolled state")
	}
	m.state = Renewing
	return nil
}

// CompleteRenewal installs the renewed certificate; valid only from
// Renewing.
func (m *CertManager) CompleteRenewal(cert *x509.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Renewing {
		return claudeerr.New(claudeerr.DomainAuth, claudeerr.KindInvalidStateTransition, "complete_renewal requires Renewing state")
	}
	m.cert = cert
	m.expiresAt = cert.NotAfter
	m.state = Enrolled
	return nil
}

// Revoke marks the certificate permanently revoked; valid only from
// Enrolled, and adds its fingerprint to the CRL.
func (m *CertManager) Revoke(reason string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enrolled {
		return claudeerr.New(claudeerr.DomainAuth, claudeerr.KindInvalidStateTransition, "revoke requires Enrolled state")
	}
	m.state = Revoked
	m.revokeReason = reason
	m.revokedAt = now
	if m.cert != nil && m.crl != nil {
		m.crl.Insert(fingerprintOf(m.cert), now)
	}
	return nil
}

// NeedsRenewal reports whether the certificate should be renewed:
// now >= expires_at - window.
func (m *CertManager) NeedsRenewal(now time.Time, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enrolled {
		return false
	}
	return !now.Before(m.expiresAt.Add(-window))
}

// CRL is a fingerprint-keyed revocation list.
type CRL struct {
	mu      sync.Mutex
	entries map[Fingerprint]time.Time
}

func NewCRL() *CRL {
	return &CRL{entries: make(map[Fingerprint]time.Time)}
}

func (c *CRL) Insert(fp Fingerprint, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = at
}

func (c *CRL) Lookup(fp Fingerprint) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[fp]
	return t, ok
}

func (c *CRL) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CompactCRL removes entries older than maxAge relative to now.
func (c *CRL) CompactCRL(now time.Time, maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for fp, at := range c.entries {
		if now.Sub(at) > maxAge {
			delete(c.entries, fp)
			removed++
		}
	}
	return removed
}

// RotationSchedule tracks every enrolled client's CertManager and
// evaluates NeedsRenewal for each on demand, so the rotation window is
// defined once and applied uniformly rather than per call site.
type RotationSchedule struct {
	mu       sync.Mutex
	window   time.Duration
	managers map[string]*CertManager
}

func NewRotationSchedule(window time.Duration) *RotationSchedule {
	return &RotationSchedule{window: window, managers: make(map[string]*CertManager)}
}

// Register adds id's manager to the schedule, replacing any prior
// registration under the same id.
func (s *RotationSchedule) Register(id string, m *CertManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers[id] = m
}

// Unregister drops id from the schedule, typically on revocation or
// client disconnect.
func (s *RotationSchedule) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.managers, id)
}

// Due returns, sorted, the ids of registered clients whose certificate
// is within the rotation window at now.
func (s *RotationSchedule) Due(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []string
	for id, m := range s.managers {
		if m.NeedsRenewal(now, s.window) {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	return due
}

// RotationScheduler drives a RotationSchedule on a fixed tick,
// invoking onDue once per ready client id. onDue is expected to call
// BeginRenewal and start the out-of-band certificate exchange; the
// scheduler itself only decides timing.
type RotationScheduler struct {
	schedule *RotationSchedule
	interval time.Duration
	onDue    func(id string)
	stopCh   chan struct{}

	logger zerolog.Logger
}

func NewRotationScheduler(schedule *RotationSchedule, interval time.Duration, onDue func(id string)) *RotationScheduler {
	return &RotationScheduler{
		schedule: schedule,
		interval: interval,
		onDue:    onDue,
		stopCh:   make(chan struct{}),
		logger:   log.WithComponent("fuseside.rotation"),
	}
}

// Start begins ticking in a background goroutine.
func (s *RotationScheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.tick(time.Now())
			case <-s.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the ticking goroutine.
func (s *RotationScheduler) Stop() {
	close(s.stopCh)
}

func (s *RotationScheduler) tick(now time.Time) {
	due := s.schedule.Due(now)
	if len(due) > 0 {
		s.logger.Info().Strs("ids", due).Msg("certificates due for rotation")
	}
	for _, id := range due {
		s.onDue(id)
	}
}
