// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/model"
	"github.com/jeranaias/learntab-tui/internal/prompt"
	"github.com/jeranaias/learntab-tui/internal/session"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry owns the full tab and conversation state. Every mutating method
// produces a fresh State snapshot and hands it to the observer; observers
// never see partial mutations. The observer is called outside the lock.
type Registry struct {
	mu    sync.Mutex
	state State

	notify   func(State)
	streamer session.Streamer

	// sessions maps tab ID (main chat uses MainTabID) to its live session.
	// Replacing an entry detaches the old session: a new send wins.
	sessions map[string]*session.Session

	concepts *ConceptCache

	profile      model.Profile
	learningMode bool
	webSearch    bool
}

// NewRegistry creates a registry with the main tab and one empty chat.
func NewRegistry(streamer session.Streamer, notify func(State)) *Registry {
	chat := model.NewChatWithModel(anthropic.DefaultModel)
	r := &Registry{
		notify:       notify,
		streamer:     streamer,
		sessions:     make(map[string]*session.Session),
		concepts:     NewConceptCache(),
		learningMode: true,
		state: State{
			Tabs: []*Tab{{
				ID:    MainTabID,
				Kind:  KindMain,
				Title: "Chat",
			}},
			ActiveTabID:  MainTabID,
			Chats:        []*model.Chat{chat},
			ActiveChatID: chat.ID,
		},
	}
	return r
}

// SetProfile replaces the learner profile used in subsequent prompts.
func (r *Registry) SetProfile(p model.Profile) {
	r.mu.Lock()
	r.profile = p
	r.mu.Unlock()
}

// SetLearningMode toggles learning-link prompting for the main chat.
func (r *Registry) SetLearningMode(on bool) {
	r.mu.Lock()
	r.learningMode = on
	r.mu.Unlock()
}

// SetWebSearch toggles the web search tool for main chat requests.
func (r *Registry) SetWebSearch(on bool) {
	r.mu.Lock()
	r.webSearch = on
	r.mu.Unlock()
}

// Snapshot returns a detached copy of the current state.
func (r *Registry) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.snapshot()
}

// Modes reports the current learning-mode and web-search toggles.
func (r *Registry) Modes() (learning, webSearch bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.learningMode, r.webSearch
}

// publishLocked replaces the state and notifies the observer with a detached
// snapshot, so the observer can read it while sessions keep streaming into
// the live state. The caller must hold r.mu; it is released here so the
// observer runs outside the lock.
func (r *Registry) publishLocked(next State) {
	r.state = next
	notify := r.notify
	var snap State
	if notify != nil {
		snap = next.snapshot()
	}
	r.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}

// =============================================================================
// SENDING
// =============================================================================

// SendMessage sends user text into the active tab's conversation. On the
// main tab this is the primary chat; on a deep dive tab it continues that
// tab's side conversation. A send while a response is still streaming
// cancels the old session and starts a new one.
func (r *Registry) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("empty message")
	}

	r.mu.Lock()
	active := r.state.ActiveTab()
	if active == nil {
		r.mu.Unlock()
		return fmt.Errorf("no active tab")
	}
	if active.Kind == KindStatic || active.Kind == KindArtifact {
		r.mu.Unlock()
		return fmt.Errorf("tab %q does not accept messages", active.Title)
	}

	if active.Kind == KindMain {
		return r.sendMainLocked(ctx, text)
	}
	return r.sendTabLocked(ctx, active.ID, text)
}

// sendMainLocked sends into the active chat. Caller holds the lock; it is
// released before publishing.
func (r *Registry) sendMainLocked(ctx context.Context, text string) error {
	chat := r.state.ActiveChat()
	if chat == nil {
		r.mu.Unlock()
		return fmt.Errorf("no active chat")
	}

	if old := r.sessions[MainTabID]; old != nil {
		old.Cancel()
	}

	chat.AddUserMessage(text)
	chat.AddAssistantMessage()

	req := session.Request{
		Messages:  chat.ToChatMessages(),
		System:    prompt.MainChat(r.profile, r.learningMode),
		Model:     chat.Model,
		WebSearch: r.webSearch,
	}

	chatID := chat.ID
	var sess *session.Session
	sess = session.New(r.streamer, func(u session.Update) {
		r.onChatUpdate(chatID, sess, u)
	})
	r.sessions[MainTabID] = sess

	next := r.state.clone()
	r.publishLocked(next)

	if err := sess.Start(ctx, req); err != nil {
		log.Printf("SEND_FAIL | chat=%s error=%v", chatID, err)
		return err
	}
	return nil
}

// sendTabLocked continues a deep dive tab's side conversation. Caller holds
// the lock; it is released before publishing.
func (r *Registry) sendTabLocked(ctx context.Context, tabID, text string) error {
	tab := r.state.TabByID(tabID)
	if tab.Transcript == nil {
		tab.Transcript = model.NewChatWithModel(anthropic.SideModel)
	}
	if old := r.sessions[tabID]; old != nil {
		old.Cancel()
	}

	tab.Transcript.AddUserMessage(text)
	tab.Transcript.AddAssistantMessage()
	tab.Loading = true

	req := session.Request{
		Messages: tab.Transcript.ToChatMessages(),
		System:   prompt.SideChat(tab.Title, r.profile),
		Model:    anthropic.SideModel,
	}

	var sess *session.Session
	sess = session.New(r.streamer, func(u session.Update) {
		r.onTabUpdate(tabID, sess, u)
	}).WithFallback(session.FallbackDeepDive)
	r.sessions[tabID] = sess

	next := r.state.clone()
	r.publishLocked(next)

	if err := sess.Start(ctx, req); err != nil {
		log.Printf("SEND_FAIL | tab=%s error=%v", tabID, err)
		return err
	}
	return nil
}

// =============================================================================
// DEEP DIVE TABS
// =============================================================================

// OpenDeepDive opens a deep dive tab for a term. If a tab with the same
// title already exists (case-insensitive) it is activated instead of opening
// a duplicate. A new tab shows the definition as its preload summary while
// the full explanation streams; falling back to the cached concept summary
// when the caller has no inline definition.
func (r *Registry) OpenDeepDive(ctx context.Context, term, definition string) error {
	if term == "" {
		return fmt.Errorf("empty term")
	}

	r.mu.Lock()
	if existing := r.state.TabByTitle(term); existing != nil {
		next := r.state.clone()
		next.ActiveTabID = existing.ID
		r.publishLocked(next)
		return nil
	}

	transcript := model.NewChatWithModel(anthropic.SideModel)
	transcript.AddUserMessage(fmt.Sprintf("Explain %q in depth.", term))
	transcript.AddAssistantMessage()

	preload := definition
	if preload == "" {
		preload = r.concepts.Preload(term)
	}
	tab := &Tab{
		ID:         newTabID(),
		Kind:       KindDeepDive,
		Title:      term,
		Transcript: transcript,
		Loading:    true,
		Preload:    preload,
	}

	req := session.Request{
		Messages: transcript.ToChatMessages(),
		System:   prompt.DeepDive(term, r.profile),
		Model:    anthropic.SideModel,
	}

	tabID := tab.ID
	var sess *session.Session
	sess = session.New(r.streamer, func(u session.Update) {
		r.onTabUpdate(tabID, sess, u)
	}).WithFallback(session.FallbackDeepDive)
	r.sessions[tabID] = sess

	next := r.state.clone()
	next.Tabs = append(next.Tabs, tab)
	next.ActiveTabID = tab.ID
	r.publishLocked(next)

	if err := sess.Start(ctx, req); err != nil {
		log.Printf("DIVE_FAIL | term=%q error=%v", term, err)
		return err
	}
	log.Printf("DIVE_OPEN | term=%q tab=%s", term, tabID)
	return nil
}

// OpenStatic opens a tab with fixed text content, deduplicated by title.
func (r *Registry) OpenStatic(title, content string) {
	r.openFixed(&Tab{
		ID:      newTabID(),
		Kind:    KindStatic,
		Title:   title,
		Content: content,
	})
}

// OpenArtifact opens a tab rendering a code artifact, deduplicated by title.
func (r *Registry) OpenArtifact(title, language, code string) {
	r.openFixed(&Tab{
		ID:       newTabID(),
		Kind:     KindArtifact,
		Title:    title,
		Content:  code,
		Language: language,
	})
}

func (r *Registry) openFixed(tab *Tab) {
	r.mu.Lock()
	if existing := r.state.TabByTitle(tab.Title); existing != nil {
		next := r.state.clone()
		next.ActiveTabID = existing.ID
		r.publishLocked(next)
		return
	}
	next := r.state.clone()
	next.Tabs = append(next.Tabs, tab)
	next.ActiveTabID = tab.ID
	r.publishLocked(next)
}

// =============================================================================
// CLOSING AND NAVIGATION
// =============================================================================

// Close removes a tab. The main tab is never closable. Closing a tab with a
// live session cancels it. If the closed tab was active, activation falls to
// the previous tab in open order, or the first tab.
func (r *Registry) Close(tabID string) error {
	r.mu.Lock()
	idx := r.state.tabIndex(tabID)
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("no such tab: %s", tabID)
	}
	if !r.state.Tabs[idx].Closable() {
		r.mu.Unlock()
		return fmt.Errorf("main tab cannot be closed")
	}

	if sess := r.sessions[tabID]; sess != nil {
		sess.Cancel()
		delete(r.sessions, tabID)
	}

	next := r.state.clone()
	next.Tabs = append(next.Tabs[:idx], next.Tabs[idx+1:]...)
	if next.ActiveTabID == tabID {
		if idx > 0 {
			next.ActiveTabID = next.Tabs[idx-1].ID
		} else {
			next.ActiveTabID = next.Tabs[0].ID
		}
	}
	r.publishLocked(next)
	return nil
}

// CloseActive closes the active tab if it is closable.
func (r *Registry) CloseActive() error {
	r.mu.Lock()
	id := r.state.ActiveTabID
	r.mu.Unlock()
	return r.Close(id)
}

// ActivateTab makes a tab active.
func (r *Registry) ActivateTab(tabID string) error {
	r.mu.Lock()
	if r.state.TabByID(tabID) == nil {
		r.mu.Unlock()
		return fmt.Errorf("no such tab: %s", tabID)
	}
	next := r.state.clone()
	next.ActiveTabID = tabID
	r.publishLocked(next)
	return nil
}

// NavigateNext activates the next tab in open order, clamped at the end.
func (r *Registry) NavigateNext() { r.navigate(1) }

// NavigatePrev activates the previous tab in open order, clamped at the start.
func (r *Registry) NavigatePrev() { r.navigate(-1) }

func (r *Registry) navigate(delta int) {
	r.mu.Lock()
	idx := r.state.tabIndex(r.state.ActiveTabID)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	target := idx + delta
	if target < 0 || target >= len(r.state.Tabs) {
		r.mu.Unlock()
		return
	}
	next := r.state.clone()
	next.ActiveTabID = next.Tabs[target].ID
	r.publishLocked(next)
}

// =============================================================================
// CHATS
// =============================================================================

// NewChat starts a fresh main conversation and switches to the main tab.
// Any in-flight main chat response keeps streaming into its own chat.
func (r *Registry) NewChat() *model.Chat {
	chat := model.NewChatWithModel(anthropic.DefaultModel)
	r.mu.Lock()
	next := r.state.clone()
	next.Chats = append(next.Chats, chat)
	next.ActiveChatID = chat.ID
	next.ActiveTabID = MainTabID
	r.publishLocked(next)
	return chat
}

// RestoreChats seeds previously persisted conversations. Chats whose ID is
// already present are skipped; the active chat is left alone so startup
// always lands on a fresh conversation.
func (r *Registry) RestoreChats(chats []*model.Chat) {
	if len(chats) == 0 {
		return
	}
	r.mu.Lock()
	next := r.state.clone()
	for _, chat := range chats {
		if chat == nil || next.ChatByID(chat.ID) != nil {
			continue
		}
		next.Chats = append(next.Chats, chat)
	}
	r.publishLocked(next)
}

// SwitchChat makes an existing chat the active main conversation.
func (r *Registry) SwitchChat(chatID string) error {
	r.mu.Lock()
	if r.state.ChatByID(chatID) == nil {
		r.mu.Unlock()
		return fmt.Errorf("no such chat: %s", chatID)
	}
	next := r.state.clone()
	next.ActiveChatID = chatID
	next.ActiveTabID = MainTabID
	r.publishLocked(next)
	return nil
}

// CancelActive cancels the active tab's in-flight session, if any.
// A cancelled session never notifies again, so the open message is closed
// here with whatever text has arrived.
func (r *Registry) CancelActive() {
	r.mu.Lock()
	key := r.state.ActiveTabID
	sess := r.sessions[key]
	if sess == nil {
		r.mu.Unlock()
		return
	}
	sess.Cancel()
	delete(r.sessions, key)

	if key == MainTabID {
		if chat := r.state.ActiveChat(); chat != nil {
			if open := chat.OpenMessage(); open != nil {
				open.FinalizeStream("")
			}
		}
	} else if tab := r.state.TabByID(key); tab != nil {
		tab.Loading = false
		tab.Searching = false
		if tab.Transcript != nil {
			if open := tab.Transcript.OpenMessage(); open != nil {
				open.FinalizeStream("")
			}
		}
	}
	next := r.state.clone()
	r.publishLocked(next)
}

// =============================================================================
// SESSION UPDATES
// =============================================================================

// onChatUpdate applies a main chat session update. Updates from a session
// that has been replaced by a newer send are dropped.
func (r *Registry) onChatUpdate(chatID string, sess *session.Session, u session.Update) {
	r.mu.Lock()
	if r.sessions[MainTabID] != sess {
		r.mu.Unlock()
		return
	}
	chat := r.state.ChatByID(chatID)
	if chat == nil {
		r.mu.Unlock()
		return
	}
	applyToChat(chat, u)
	if main := r.state.TabByID(MainTabID); main != nil {
		main.Searching = u.Searching
	}
	if u.Status.Terminal() {
		chat.DeriveTitle()
		delete(r.sessions, MainTabID)
	}
	next := r.state.clone()
	r.publishLocked(next)
}

// onTabUpdate applies a deep dive session update. Updates for a tab that
// has been closed, or from a superseded session, are dropped.
func (r *Registry) onTabUpdate(tabID string, sess *session.Session, u session.Update) {
	r.mu.Lock()
	if r.sessions[tabID] != sess {
		r.mu.Unlock()
		return
	}
	tab := r.state.TabByID(tabID)
	if tab == nil {
		delete(r.sessions, tabID)
		r.mu.Unlock()
		return
	}

	tab.Searching = u.Searching
	if tab.Transcript != nil {
		applyToChat(tab.Transcript, u)
	}
	if u.Status.Terminal() {
		tab.Loading = false
		tab.Explanation = u.Explanation
		tab.RelatedTerms = append([]string(nil), u.RelatedTerms...)
		tab.Sources = u.Sources
		if u.Status == session.StatusCompleted && u.Explanation != "" {
			r.concepts.Put(tab.Title, u.Explanation)
		}
		delete(r.sessions, tabID)
	}
	next := r.state.clone()
	r.publishLocked(next)
}

// applyToChat folds a session update into the chat's open message. Streaming
// updates carry the whole text so far; only the unseen suffix is appended.
func applyToChat(chat *model.Chat, u session.Update) {
	open := chat.OpenMessage()
	if open == nil {
		return
	}
	switch u.Status {
	case session.StatusStreaming:
		cur := open.GetDisplayContent()
		if len(u.Text) > len(cur) {
			open.AppendDelta(u.Text[len(cur):])
		}
	case session.StatusCompleted:
		open.FinalizeStream(u.Text)
		open.RelatedTerms = append([]string(nil), u.RelatedTerms...)
		open.Sources = u.Sources
		open.Usage = u.Usage
	case session.StatusErrored:
		open.FinalizeError(u.Explanation)
	case session.StatusCancelled:
		open.FinalizeStream("")
	}
}
