// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns one streaming lifecycle per open conversation.
//
// A Session moves through idle -> streaming -> {completed | errored |
// cancelled}; terminal states are absorbing. While streaming it consumes the
// gateway's wire protocol through internal/stream, folds text deltas into
// its accumulated state, re-runs the live chip extractor, and notifies its
// observer with rate-bounded snapshots. Cancelling detaches the session from
// the byte stream: observers see nothing further, which is what lets the
// registry discard a tab's transcript without zombie writes.
package session
