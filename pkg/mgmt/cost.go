package mgmt

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// CostEntry is a single billable event.
type CostEntry struct {
	Category   string
	AmountUSD  float64
	ResourceID string
	Timestamp  time.Time
}

// BudgetStatus is the alert ladder derived from spend-vs-limit ratio.
type BudgetStatus int

const (
	BudgetOk BudgetStatus = iota
	BudgetWarning
	BudgetCritical
	BudgetExceeded
)

// BudgetStatusFor computes the status of spent against limit. A
// non-positive limit always yields Ok (no budget configured).
func BudgetStatusFor(spent, limit float64) BudgetStatus {
	if limit <= 0 {
		return BudgetOk
	}
	pct := spent / limit * 100
	switch {
	case pct >= 100:
		return BudgetExceeded
	case pct >= 90:
		return BudgetCritical
	case pct >= 75:
		return BudgetWarning
	default:
		return BudgetOk
	}
}

// AlertRule fires when total spend (optionally scoped to Category)
// crosses Threshold.
type AlertRule struct {
	Threshold       float64
	Category        string // empty matches all categories
	MessageTemplate string // "{amount}" is substituted with the formatted spend
}

// Alert is an emitted notification from an AlertRule evaluation.
type Alert struct {
	Rule    AlertRule
	Amount  float64
	Message string
}

// CostTracker holds a concurrent-safe append-only log of cost entries
// and evaluates alert rules against aggregated spend.
type CostTracker struct {
	mu      sync.Mutex
	catalog *Catalog
	entries []CostEntry
	rules   []AlertRule
	nextID  uint64
}

func NewCostTracker(catalog *Catalog) *CostTracker {
	return &CostTracker{catalog: catalog}
}

func (t *CostTracker) Record(e CostEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	if t.catalog != nil {
		id := fmt.Sprintf("%d", t.nextID)
		t.nextID++
		_ = t.catalog.put(bucketCostEntries, id, e)
	}
}

func (t *CostTracker) AddRule(r AlertRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = append(t.rules, r)
}

// Total returns the sum of all recorded amounts.
func (t *CostTracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum float64
	for _, e := range t.entries {
		sum += e.AmountUSD
	}
	return sum
}

// ByCategory aggregates spend per category.
func (t *CostTracker) ByCategory() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64)
	for _, e := range t.entries {
		out[e.Category] += e.AmountUSD
	}
	return out
}

// Daily aggregates spend per calendar day (UTC, YYYY-MM-DD key).
func (t *CostTracker) Daily() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64)
	for _, e := range t.entries {
		key := e.Timestamp.UTC().Format("2006-01-02")
		out[key] += e.AmountUSD
	}
	return out
}

// EvaluateAlerts checks every registered rule against current spend
// (scoped to Category when set) and returns the alerts that fire.
func (t *CostTracker) EvaluateAlerts() []Alert {
	t.mu.Lock()
	rules := make([]AlertRule, len(t.rules))
	copy(rules, t.rules)
	byCat := make(map[string]float64)
	var total float64
	for _, e := range t.entries {
		byCat[e.Category] += e.AmountUSD
		total += e.AmountUSD
	}
	t.mu.Unlock()

	var alerts []Alert
	for _, rule := range rules {
		amount := total
		if rule.Category != "" {
			amount = byCat[rule.Category]
		}
		if amount >= rule.Threshold {
			msg := strings.ReplaceAll(rule.MessageTemplate, "{amount}", fmt.Sprintf("%.2f", amount))
			alerts = append(alerts, Alert{Rule: rule, Amount: amount, Message: msg})
		}
	}
	return alerts
}
