// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// profileSep joins the three profile segments in storage.
const profileSep = "|||"

// Profile is the learner context injected into prompts: who the learner is,
// what they already know, and what they want to get better at.
type Profile struct {
	Background string `json:"background"`
	Interests  string `json:"interests"`
	Goals      string `json:"goals"`
}

// ParseProfile decodes the stored segment form. Missing segments are empty.
func ParseProfile(s string) Profile {
	parts := strings.SplitN(s, profileSep, 3)
	var p Profile
	if len(parts) > 0 {
		p.Background = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		p.Interests = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		p.Goals = strings.TrimSpace(parts[2])
	}
	return p
}

// Encode returns the stored segment form.
func (p Profile) Encode() string {
	return p.Background + profileSep + p.Interests + profileSep + p.Goals
}

// IsEmpty reports whether no segment is set.
func (p Profile) IsEmpty() bool {
	return p.Background == "" && p.Interests == "" && p.Goals == ""
}

// Describe renders the profile as prompt-ready prose.
func (p Profile) Describe() string {
	if p.IsEmpty() {
		return "No learner profile provided."
	}
	var b strings.Builder
	if p.Background != "" {
		b.WriteString("Background: " + p.Background + "\n")
	}
	if p.Interests != "" {
		b.WriteString("Interests: " + p.Interests + "\n")
	}
	if p.Goals != "" {
		b.WriteString("Goals: " + p.Goals + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
