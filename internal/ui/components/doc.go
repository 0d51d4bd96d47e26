// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the learntab TUI:
// the header, the tab bar, chip-aware message rendering, the deep-dive
// metadata rows (related terms and sources), syntax-highlighted code blocks
// for artifact tabs, markdown rendering, and the bottom status bar.
//
// Components are pure renderers: they take state plus a *styles.Theme and
// return strings. All interaction lives in the chat package.
package components
