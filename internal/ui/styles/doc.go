// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the color palette and theme for the learntab TUI.
//
// Colors are defined as lipgloss adaptive colors so the interface reads well
// on both dark and light terminals. The Theme struct groups every style the
// views need; construct one with NewTheme and pass it down rather than
// building lipgloss styles inline.
package styles
