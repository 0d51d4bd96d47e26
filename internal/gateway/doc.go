// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the learntab HTTP proxy.
//
// Endpoints:
//   - POST /api/chat  - relay a conversation to the model upstream, re-emit as SSE
//   - POST /api/tools - proxy a tool invocation, normalizing quiz results
//   - GET  /health    - health check
//
// The gateway is stateless: each request is independent and no session state
// survives between invocations. Narrative text is separated from terminal
// metadata (usage, search citations) by re-framing the upstream stream into
// the wire protocol decoded by internal/stream.
package gateway
