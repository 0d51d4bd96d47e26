// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/stream"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPricingForPrefixMatch(t *testing.T) {
	tests := []struct {
		model string
		want  float64 // input price per MTok
	}{
		{anthropic.DefaultModel, 3.00},
		{anthropic.SideModel, 0.80},
		{"claude-opus-4-20250514", 15.00},
		{"some-unknown-model", 3.00},
	}
	for _, tt := range tests {
		if got := PricingFor(tt.model); !almostEqual(got.Input, tt.want) {
			t.Errorf("PricingFor(%q).Input = %v, want %v", tt.model, got.Input, tt.want)
		}
	}
}

func TestCostUSD(t *testing.T) {
	u := stream.Usage{
		InputTokens:              1_000_000,
		OutputTokens:             1_000_000,
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}
	got := CostUSD(anthropic.DefaultModel, u)
	want := 3.00 + 15.00 + 3.75 + 0.30
	if !almostEqual(got, want) {
		t.Errorf("CostUSD = %v, want %v", got, want)
	}
}

func TestRecordAggregatesByModel(t *testing.T) {
	tr := NewUsageTracker(nil)
	tr.Record(anthropic.DefaultModel, "q1", stream.Usage{InputTokens: 100, OutputTokens: 50}, time.Second)
	tr.Record(anthropic.DefaultModel, "q2", stream.Usage{InputTokens: 200, OutputTokens: 100}, time.Second)
	tr.Record(anthropic.SideModel, "dive", stream.Usage{InputTokens: 10, OutputTokens: 20}, time.Second)

	session := tr.Current()
	main := session.ByModel[anthropic.DefaultModel]
	if main.Input != 300 || main.Output != 150 || main.Requests != 2 {
		t.Errorf("main model count = %+v", main)
	}
	side := session.ByModel[anthropic.SideModel]
	if side.Input != 10 || side.Output != 20 || side.Requests != 1 {
		t.Errorf("side model count = %+v", side)
	}

	in, out := tr.TotalTokens()
	if in != 310 || out != 170 {
		t.Errorf("TotalTokens = %d, %d", in, out)
	}
}

func TestTopQueriesBoundedAndSorted(t *testing.T) {
	tr := NewUsageTracker(nil)
	for i := 1; i <= 15; i++ {
		tr.Record(anthropic.DefaultModel, "q", stream.Usage{OutputTokens: i * 1000}, 0)
	}
	session := tr.Current()
	if len(session.TopQueries) != maxQueryRecords {
		t.Fatalf("top queries len = %d, want %d", len(session.TopQueries), maxQueryRecords)
	}
	for i := 1; i < len(session.TopQueries); i++ {
		if session.TopQueries[i].Cost > session.TopQueries[i-1].Cost {
			t.Errorf("top queries not sorted at %d", i)
		}
	}
	// The cheapest recorded queries were dropped.
	if session.TopQueries[0].OutputTokens != 15000 {
		t.Errorf("most expensive query = %d tokens", session.TopQueries[0].OutputTokens)
	}
}

func TestPromptTruncated(t *testing.T) {
	tr := NewUsageTracker(nil)
	tr.Record(anthropic.DefaultModel, strings.Repeat("x", 200), stream.Usage{OutputTokens: 1}, 0)
	session := tr.Current()
	if got := len(session.TopQueries[0].Prompt); got != 103 {
		t.Errorf("prompt len = %d, want 103", got)
	}
}

func TestFormatSummary(t *testing.T) {
	tr := NewUsageTracker(nil)
	if got := tr.FormatSummary(); got != "" {
		t.Errorf("empty session summary = %q, want empty", got)
	}
	tr.Record(anthropic.DefaultModel, "q", stream.Usage{InputTokens: 10, OutputTokens: 5}, 0)
	got := tr.FormatSummary()
	if !strings.Contains(got, "10 in / 5 out") {
		t.Errorf("summary = %q", got)
	}
}

// memorySaver implements RecordSaver in memory.
type memorySaver struct {
	records map[string][]byte
}

func (m *memorySaver) SaveRecord(kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if m.records == nil {
		m.records = make(map[string][]byte)
	}
	m.records[kind] = data
	return nil
}

func (m *memorySaver) LoadRecord(kind string, out any) error {
	data, ok := m.records[kind]
	if !ok {
		return errNotFound
	}
	return json.Unmarshal(data, out)
}

var errNotFound = &recordError{"not found"}

type recordError struct{ msg string }

func (e *recordError) Error() string { return e.msg }

func TestEndSessionPersistsHistory(t *testing.T) {
	saver := &memorySaver{}
	tr := NewUsageTracker(saver)
	tr.Record(anthropic.DefaultModel, "q", stream.Usage{InputTokens: 10, OutputTokens: 5}, 0)
	firstID := tr.Current().ID

	if err := tr.EndSession(); err != nil {
		t.Fatal(err)
	}

	if tr.Current().ID == firstID {
		t.Error("EndSession did not start a new session")
	}
	history := tr.History()
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
	if history[0].ID != firstID {
		t.Errorf("history[0].ID = %s, want %s", history[0].ID, firstID)
	}
	if history[0].EndTime.IsZero() {
		t.Error("persisted session has zero end time")
	}

	// An empty session is not persisted.
	if err := tr.EndSession(); err != nil {
		t.Fatal(err)
	}
	if got := len(tr.History()); got != 1 {
		t.Errorf("history len after empty session = %d, want 1", got)
	}
}
