// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the system prompts for the three conversation
// surfaces: the main learning chat, deep dive side tabs, and focused side
// chats. Every builder interpolates the learner profile so the model can
// personalize explanations without being told again each turn.
package prompt
