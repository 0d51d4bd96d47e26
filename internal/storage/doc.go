// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides SQLite-backed persistence for learntab.
//
// Two kinds of data live in the database: whole chats (one row per chat,
// payload stored as JSON) and small keyed records such as the learner
// profile and UI settings. All writes are last-write-wins: an update only
// lands if its timestamp is not older than what is already stored, so a
// stale writer can never clobber newer data.
package storage
