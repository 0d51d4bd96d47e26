// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"reflect"
	"testing"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Segment
	}{
		{
			name: "plain text only",
			text: "no markers here",
			want: []Segment{{Text: "no markers here"}},
		},
		{
			name: "bare term chip",
			text: "see [[osmosis]] for details",
			want: []Segment{
				{Text: "see "},
				{Chip: &Chip{Term: "osmosis"}},
				{Text: " for details"},
			},
		},
		{
			name: "term with explanation",
			text: "a [[X::Y]] b",
			want: []Segment{
				{Text: "a "},
				{Chip: &Chip{Term: "X", Explanation: "Y"}},
				{Text: " b"},
			},
		},
		{
			name: "unterminated tail stays plain",
			text: "intro [[photosynth",
			want: []Segment{{Text: "intro [[photosynth"}},
		},
		{
			name: "adjacent chips",
			text: "[[a]][[b::c]]",
			want: []Segment{
				{Chip: &Chip{Term: "a"}},
				{Chip: &Chip{Term: "b", Explanation: "c"}},
			},
		},
		{
			name: "empty marker body is prose",
			text: "x [[]] y",
			want: []Segment{
				{Text: "x [[]]"},
				{Text: " y"},
			},
		},
		{
			name: "whitespace trimmed inside marker",
			text: "[[ entropy :: disorder measure ]]",
			want: []Segment{
				{Chip: &Chip{Term: "entropy", Explanation: "disorder measure"}},
			},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segments(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Segments(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestChipsIncrementalAgreesWithWhole(t *testing.T) {
	// Growing prefixes must converge on the same chip set as one shot.
	full := "a [[X::Y]] b"
	want := Chips(full)

	var last []Chip
	for i := 1; i <= len(full); i++ {
		last = Chips(full[:i])
	}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("incremental chips = %#v, want %#v", last, want)
	}

	// No prefix ever reports a chip the full text lacks.
	for i := 1; i <= len(full); i++ {
		if got := Chips(full[:i]); len(got) > len(want) {
			t.Errorf("prefix %q produced extra chips: %#v", full[:i], got)
		}
	}
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Result
	}{
		{
			name: "trailing directive",
			text: "Explanation text.\n\nRELATED: Foo, Bar, Baz",
			want: Result{
				Explanation:  "Explanation text.",
				RelatedTerms: []string{"Foo", "Bar", "Baz"},
			},
		},
		{
			name: "no directive",
			text: "  Just an explanation.  ",
			want: Result{Explanation: "Just an explanation."},
		},
		{
			name: "case insensitive prefix",
			text: "Body.\nrelated: alpha, beta",
			want: Result{
				Explanation:  "Body.",
				RelatedTerms: []string{"alpha", "beta"},
			},
		},
		{
			name: "mid-text directive not trailing",
			text: "RELATED: decoy, terms\nMore prose follows here.",
			want: Result{Explanation: "RELATED: decoy, terms\nMore prose follows here."},
		},
		{
			name: "last occurrence wins",
			text: "First RELATED: a, b appears inline.\nRELATED: c, d",
			want: Result{
				Explanation:  "First RELATED: a, b appears inline.",
				RelatedTerms: []string{"c", "d"},
			},
		},
		{
			name: "empty entries dropped",
			text: "Body.\nRELATED: one, , two,,three, ",
			want: Result{
				Explanation:  "Body.",
				RelatedTerms: []string{"one", "two", "three"},
			},
		},
		{
			name: "trailing blank lines tolerated",
			text: "Body.\nRELATED: solo\n\n  \n",
			want: Result{
				Explanation:  "Body.",
				RelatedTerms: []string{"solo"},
			},
		},
		{
			name: "empty list",
			text: "Body.\nRELATED:",
			want: Result{Explanation: "Body."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Finalize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Finalize(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}
