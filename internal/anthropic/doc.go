// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package anthropic implements the upstream Claude Messages API client.
//
// The gateway is the only caller. The client speaks the streaming Messages
// endpoint, translates Anthropic's event grammar (message_start,
// content_block_delta, message_delta, message_stop) into learntab's typed
// stream events, and maps upstream failures onto the gateway's error
// taxonomy. System prompts are sent as cacheable blocks so repeated calls
// sharing the same prefix can reuse the upstream prompt cache.
package anthropic
