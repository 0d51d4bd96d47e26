// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the learntab wire protocol into typed events.
//
// The gateway relays assistant output as server-sent events: each frame is a
// "data:" line carrying a small JSON payload (text delta, usage, sources, or
// a searching signal), and "data: [DONE]" marks the end. Decoder turns that
// byte stream into a flat sequence of Event values regardless of how the
// transport chunks it, and Accumulator folds the sequence into the final
// response state.
package stream
