// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/learntab-tui/internal/model"
	"github.com/jeranaias/learntab-tui/internal/stream"
)

// =============================================================================
// STORED CHAT TYPES
// =============================================================================

// StoredChat is the persisted form of a chat.
type StoredChat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is the persisted form of a message. Open (streaming)
// messages are never persisted.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	RelatedTerms []string        `json:"related_terms,omitempty"`
	Sources      []stream.Source `json:"sources,omitempty"`
	Usage        stream.Usage    `json:"usage,omitempty"`
	Errored      bool            `json:"errored,omitempty"`
}

// ChatMeta contains metadata for listing chats without loading messages.
type ChatMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// FromChat converts a live chat into its stored form. Messages still
// streaming are dropped.
func FromChat(c *model.Chat) *StoredChat {
	sc := &StoredChat{
		ID:        c.ID,
		Title:     c.Title,
		Model:     c.Model,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, m := range c.Messages {
		if m.IsStreaming {
			continue
		}
		sc.Messages = append(sc.Messages, StoredMessage{
			ID:           m.ID,
			Role:         m.Role.String(),
			Content:      m.Content,
			Timestamp:    m.Timestamp,
			RelatedTerms: m.RelatedTerms,
			Sources:      m.Sources,
			Usage:        m.Usage,
			Errored:      m.Errored,
		})
	}
	return sc
}

// ToChat converts a stored chat back into a live one.
func (sc *StoredChat) ToChat() *model.Chat {
	c := &model.Chat{
		ID:        sc.ID,
		Title:     sc.Title,
		Model:     sc.Model,
		CreatedAt: sc.CreatedAt,
		UpdatedAt: sc.UpdatedAt,
	}
	for _, m := range sc.Messages {
		c.Messages = append(c.Messages, &model.Message{
			ID:           m.ID,
			Role:         model.Role(m.Role),
			Content:      m.Content,
			Timestamp:    m.Timestamp,
			RelatedTerms: m.RelatedTerms,
			Sources:      m.Sources,
			Usage:        m.Usage,
			Errored:      m.Errored,
		})
	}
	return c
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SaveChat persists a chat, last-write-wins on the updated timestamp.
func (s *Store) SaveChat(chat *model.Chat) error {
	sc := FromChat(chat)
	if sc.UpdatedAt.IsZero() {
		sc.UpdatedAt = time.Now()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = sc.UpdatedAt
	}

	payload, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO chats (id, title, model, created_at, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			model = excluded.model,
			updated_at = excluded.updated_at,
			payload = excluded.payload
		WHERE excluded.updated_at >= chats.updated_at
	`, sc.ID, sc.Title, sc.Model, sc.CreatedAt.UnixMilli(), sc.UpdatedAt.UnixMilli(), string(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if s.MaxChats > 0 {
		s.enforceLimit()
	}
	return nil
}

// LoadChat retrieves a chat by ID.
func (s *Store) LoadChat(id string) (*model.Chat, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM chats WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	var sc StoredChat
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		return nil, fmt.Errorf("failed to decode chat: %w", err)
	}
	return sc.ToChat(), nil
}

// LoadAllChats retrieves every stored chat, most recent first.
func (s *Store) LoadAllChats() ([]*model.Chat, error) {
	rows, err := s.db.Query("SELECT payload FROM chats ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		var sc StoredChat
		if err := json.Unmarshal([]byte(payload), &sc); err != nil {
			continue // Skip corrupted rows
		}
		chats = append(chats, sc.ToChat())
	}
	return chats, rows.Err()
}

// ListChats returns chat metadata, most recent first.
func (s *Store) ListChats() ([]ChatMeta, error) {
	rows, err := s.db.Query(
		"SELECT id, title, model, created_at, updated_at, payload FROM chats ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var metas []ChatMeta
	for rows.Next() {
		var meta ChatMeta
		var created, updated int64
		var payload string
		if err := rows.Scan(&meta.ID, &meta.Title, &meta.Model, &created, &updated, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		meta.CreatedAt = time.UnixMilli(created)
		meta.UpdatedAt = time.UnixMilli(updated)

		var sc StoredChat
		if err := json.Unmarshal([]byte(payload), &sc); err == nil {
			meta.MessageCount = len(sc.Messages)
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// SearchChats finds chats whose title or message content contains the query
// (case-insensitive).
func (s *Store) SearchChats(query string) ([]ChatMeta, error) {
	all, err := s.ListChats()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []ChatMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) {
			results = append(results, meta)
			continue
		}
		chat, err := s.LoadChat(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range chat.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// DeleteChat removes a chat by ID.
func (s *Store) DeleteChat(id string) error {
	res, err := s.db.Exec("DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearChats removes all stored chats.
func (s *Store) ClearChats() error {
	_, err := s.db.Exec("DELETE FROM chats")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// enforceLimit removes the oldest chats beyond MaxChats.
func (s *Store) enforceLimit() {
	s.db.Exec(`
		DELETE FROM chats WHERE id IN (
			SELECT id FROM chats ORDER BY updated_at DESC LIMIT -1 OFFSET ?
		)
	`, s.MaxChats)
}

// =============================================================================
// PROFILE AND SETTINGS
// =============================================================================

// SaveProfile persists the learner profile.
func (s *Store) SaveProfile(p model.Profile) error {
	return s.SaveRecord(RecordProfile, p)
}

// LoadProfile retrieves the learner profile. A missing profile is not an
// error; the zero value is returned.
func (s *Store) LoadProfile() (model.Profile, error) {
	var p model.Profile
	err := s.LoadRecord(RecordProfile, &p)
	if errors.Is(err, ErrNotFound) {
		return model.Profile{}, nil
	}
	return p, err
}

// Settings are the persisted UI toggles.
type Settings struct {
	LearningMode bool   `json:"learning_mode"`
	WebSearch    bool   `json:"web_search"`
	Theme        string `json:"theme,omitempty"`
	Model        string `json:"model,omitempty"`
}

// SaveSettings persists the UI settings.
func (s *Store) SaveSettings(settings Settings) error {
	return s.SaveRecord(RecordSettings, settings)
}

// LoadSettings retrieves the UI settings, or defaults when unset.
func (s *Store) LoadSettings() (Settings, error) {
	var settings Settings
	err := s.LoadRecord(RecordSettings, &settings)
	if errors.Is(err, ErrNotFound) {
		return Settings{LearningMode: true}, nil
	}
	return settings, err
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the chat as Markdown with role labels and
// timestamps.
func (sc *StoredChat) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + sc.Title + "\n\n")
	sb.WriteString("Created: " + sc.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range sc.Messages {
		role := "**User**"
		if msg.Role == "assistant" {
			role = "**Assistant**"
		}
		sb.WriteString(role + " (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		if len(msg.RelatedTerms) > 0 {
			sb.WriteString("\n\nRelated: " + strings.Join(msg.RelatedTerms, ", "))
		}
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}
