// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/learntab-tui/internal/stream"
	"github.com/jeranaias/learntab-tui/internal/util"
)

// =============================================================================
// PRICING
// =============================================================================

// Pricing is the per-million-token price of a model in USD.
type Pricing struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// pricing maps model name prefixes to their published prices. Longest
// matching prefix wins; unknown models fall back to defaultPricing.
var pricing = map[string]Pricing{
	"claude-sonnet-4":  {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
	"claude-3-5-haiku": {Input: 0.80, Output: 4.00, CacheWrite: 1.00, CacheRead: 0.08},
	"claude-3-5-sonnet": {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
	"claude-opus-4":    {Input: 15.00, Output: 75.00, CacheWrite: 18.75, CacheRead: 1.50},
}

// defaultPricing is used for models with no table entry.
var defaultPricing = Pricing{Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30}

// PricingFor returns the pricing for a model name.
func PricingFor(model string) Pricing {
	best := ""
	for prefix := range pricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return defaultPricing
	}
	return pricing[best]
}

// CostUSD estimates the dollar cost of one response.
func CostUSD(model string, u stream.Usage) float64 {
	p := PricingFor(model)
	const mtok = 1_000_000.0
	return float64(u.InputTokens)*p.Input/mtok +
		float64(u.OutputTokens)*p.Output/mtok +
		float64(u.CacheCreationInputTokens)*p.CacheWrite/mtok +
		float64(u.CacheReadInputTokens)*p.CacheRead/mtok
}

// =============================================================================
// USAGE TRACKER
// =============================================================================

// sessionIDCounter ensures unique session IDs even when created rapidly.
var sessionIDCounter uint64

// maxQueryRecords bounds the per-session query list.
const maxQueryRecords = 10

// maxPromptRunes bounds the stored prompt excerpt per query record.
const maxPromptRunes = 100

// historyRecordKind is the record kind under which history persists.
const historyRecordKind = "usage_history"

// maxHistorySessions bounds the persisted session history.
const maxHistorySessions = 90

// RecordSaver persists keyed records. storage.Store satisfies it.
type RecordSaver interface {
	SaveRecord(kind string, payload any) error
	LoadRecord(kind string, out any) error
}

// UsageTracker aggregates token usage and estimated cost for the current
// session.
type UsageTracker struct {
	mu      sync.RWMutex
	session *SessionUsage
	store   RecordSaver
}

// SessionUsage tracks usage for a single run of the program.
type SessionUsage struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Token counts by model
	ByModel map[string]TokenCount `json:"by_model"`

	// TotalCost is the estimated cost in dollars.
	TotalCost float64 `json:"total_cost"`

	// Most expensive queries this session
	TopQueries []QueryUsage `json:"top_queries"`
}

// TokenCount tracks token totals for one model.
type TokenCount struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	CacheWrite int `json:"cache_write"`
	CacheRead  int `json:"cache_read"`
	Requests   int `json:"requests"`
}

// QueryUsage tracks one response's usage.
type QueryUsage struct {
	Timestamp    time.Time     `json:"timestamp"`
	Prompt       string        `json:"prompt"` // First 100 chars
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Cost         float64       `json:"cost"`
	Duration     time.Duration `json:"duration"`
}

// NewUsageTracker creates a tracker. saver may be nil, in which case history
// is not persisted.
func NewUsageTracker(saver RecordSaver) *UsageTracker {
	return &UsageTracker{
		session: newSession(),
		store:   saver,
	}
}

func newSession() *SessionUsage {
	return &SessionUsage{
		ID:         generateSessionID(),
		StartTime:  time.Now(),
		ByModel:    make(map[string]TokenCount),
		TopQueries: make([]QueryUsage, 0),
	}
}

// =============================================================================
// RECORDING
// =============================================================================

// Record folds one completed response into the session totals.
func (t *UsageTracker) Record(model, prompt string, u stream.Usage, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prompt = util.TruncateTail(util.CollapseWhitespace(prompt), maxPromptRunes)

	count := t.session.ByModel[model]
	count.Input += u.InputTokens
	count.Output += u.OutputTokens
	count.CacheWrite += u.CacheCreationInputTokens
	count.CacheRead += u.CacheReadInputTokens
	count.Requests++
	t.session.ByModel[model] = count

	cost := CostUSD(model, u)
	t.session.TotalCost += cost

	t.session.TopQueries = append(t.session.TopQueries, QueryUsage{
		Timestamp:    time.Now(),
		Prompt:       prompt,
		Model:        model,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		Cost:         cost,
		Duration:     duration,
	})
	t.trimTopQueries()
}

// trimTopQueries keeps the most expensive queries, costliest first.
func (t *UsageTracker) trimTopQueries() {
	queries := t.session.TopQueries
	for i := 0; i < len(queries); i++ {
		for j := i + 1; j < len(queries); j++ {
			if queries[j].Cost > queries[i].Cost {
				queries[i], queries[j] = queries[j], queries[i]
			}
		}
	}
	if len(queries) > maxQueryRecords {
		t.session.TopQueries = queries[:maxQueryRecords]
	}
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Current returns a copy of the current session.
func (t *UsageTracker) Current() *SessionUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copySession(t.session)
}

// TotalTokens returns the session-wide input and output token totals.
func (t *UsageTracker) TotalTokens() (input, output int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, count := range t.session.ByModel {
		input += count.Input
		output += count.Output
	}
	return input, output
}

// FormatSummary renders a one-line session summary for the status bar.
func (t *UsageTracker) FormatSummary() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var in, out int
	for _, count := range t.session.ByModel {
		in += count.Input
		out += count.Output
	}
	if in == 0 && out == 0 {
		return ""
	}
	return fmt.Sprintf("%d in / %d out · $%.4f", in, out, t.session.TotalCost)
}

// History returns persisted past sessions, most recent first.
func (t *UsageTracker) History() []*SessionUsage {
	if t.store == nil {
		return nil
	}
	var history []*SessionUsage
	if err := t.store.LoadRecord(historyRecordKind, &history); err != nil {
		return nil
	}
	return history
}

// =============================================================================
// SESSION MANAGEMENT
// =============================================================================

// EndSession closes the current session, persists it, and starts a new one.
func (t *UsageTracker) EndSession() error {
	t.mu.Lock()
	finished := t.session
	finished.EndTime = time.Now()
	t.session = newSession()
	t.mu.Unlock()

	if t.store == nil || len(finished.ByModel) == 0 {
		return nil
	}

	history := t.History()
	history = append([]*SessionUsage{finished}, history...)
	if len(history) > maxHistorySessions {
		history = history[:maxHistorySessions]
	}
	return t.store.SaveRecord(historyRecordKind, history)
}

// =============================================================================
// HELPERS
// =============================================================================

// copySession creates a deep copy of a session.
func (t *UsageTracker) copySession(src *SessionUsage) *SessionUsage {
	dst := &SessionUsage{
		ID:         src.ID,
		StartTime:  src.StartTime,
		EndTime:    src.EndTime,
		ByModel:    make(map[string]TokenCount, len(src.ByModel)),
		TotalCost:  src.TotalCost,
		TopQueries: make([]QueryUsage, len(src.TopQueries)),
	}
	for model, count := range src.ByModel {
		dst.ByModel[model] = count
	}
	copy(dst.TopQueries, src.TopQueries)
	return dst
}

// generateSessionID generates a unique session ID.
func generateSessionID() string {
	counter := atomic.AddUint64(&sessionIDCounter, 1)
	return time.Now().Format("20060102-150405") + "-" + fmt.Sprintf("%d", counter)
}
