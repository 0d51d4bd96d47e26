// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides token usage and cost tracking for learntab.
//
// Every completed response reports its usage through the tracker, which
// aggregates tokens and estimated cost per model for the current session.
// Session history persists through an optional record saver so trends
// survive restarts. No data ever leaves the machine.
package telemetry
