// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tabs is the top-level state machine for learntab.
//
// The Registry is the single source of truth for what tabs exist, which is
// active, and which chat the main tab renders. All mutations are applied as
// whole-state replacements: read the current State, compute the next one,
// swap it in, then notify the observer with the new snapshot. Interleaved
// event sources (user input, streaming callbacks, keyboard navigation)
// therefore never see a half-applied transition.
//
// Each deep-dive tab owns one streaming session; closing a tab cancels its
// session before the tab is removed, so a discarded transcript is never
// mutated again.
package tabs
