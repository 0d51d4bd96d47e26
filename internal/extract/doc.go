// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract parses assistant output for learntab's inline structure.
//
// Two independent passes operate on accumulated response text. The live pass
// runs on every growing prefix while a response streams and locates complete
// [[term]] and [[term::explanation]] chip markers, leaving an unterminated
// marker at the tail as plain pending text. The finalize pass runs once after
// the stream ends and splits a trailing RELATED: directive line into the
// visible explanation and an ordered list of related terms.
package extract
