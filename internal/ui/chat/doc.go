// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea program driving the learntab TUI.
//
// The Model owns no conversation state of its own: the tabs.Registry is the
// single source of truth, and every registry mutation arrives here as a
// whole StateMsg snapshot through the state bridge. Key handling calls
// registry methods, the resulting snapshot flows back, and the view renders
// it. Rendering is delegated to the components package.
package chat
