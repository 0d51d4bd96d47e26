// learntab TUI - a learning-first terminal chat with deep-dive tabs.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/config"
	"github.com/jeranaias/learntab-tui/internal/gateway"
	"github.com/jeranaias/learntab-tui/internal/model"
	"github.com/jeranaias/learntab-tui/internal/session"
	"github.com/jeranaias/learntab-tui/internal/storage"
	"github.com/jeranaias/learntab-tui/internal/tabs"
	"github.com/jeranaias/learntab-tui/internal/telemetry"
	"github.com/jeranaias/learntab-tui/internal/ui/chat"
	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	serve := flag.Bool("serve", false, "run the proxy gateway instead of the TUI")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("learntab %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		if cfg == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		// Partial failure: the config file was unreadable but defaults
		// plus environment overrides are still usable.
		fmt.Fprintf(os.Stderr, "Warning: %v (continuing with defaults)\n", err)
	}

	if *serve {
		runGateway(cfg)
		return
	}
	runTUI(cfg)
}

// =============================================================================
// GATEWAY MODE
// =============================================================================

// runGateway starts the proxy gateway and blocks until SIGINT/SIGTERM.
func runGateway(cfg *config.Config) {
	upstream := anthropic.NewClient(cfg.Anthropic.APIKey)
	if cfg.Anthropic.BaseURL != "" {
		upstream = upstream.WithBaseURL(cfg.Anthropic.BaseURL)
	}

	server := gateway.NewServer(cfg.Gateway.Port, upstream)
	if cfg.Gateway.ToolsURL != "" {
		server = server.WithToolsProxy(gateway.NewToolsProxy(cfg.Gateway.ToolsURL))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	log.Printf("GATEWAY_UP | port=%d tools=%t", server.Port(), cfg.Gateway.ToolsURL != "")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Printf("GATEWAY_STOP | signal=%s", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
			os.Exit(1)
		}
	}
}

// =============================================================================
// TUI MODE
// =============================================================================

// runTUI starts the terminal interface against the configured gateway.
func runTUI(cfg *config.Config) {
	// Logging goes to a file; stdout belongs to the terminal UI.
	if dir, err := config.ConfigDir(); err == nil {
		_ = os.MkdirAll(dir, 0755)
		if f, err := tea.LogToFile(filepath.Join(dir, "learntab.log"), "learntab"); err == nil {
			defer f.Close()
		}
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	var saver telemetry.RecordSaver
	if store != nil {
		saver = store
	}
	usage := telemetry.NewUsageTracker(saver)

	streamer := session.NewGatewayClient(cfg.Gateway.URL)
	notify, states := chat.StateBridge()
	registry := tabs.NewRegistry(streamer, notify)

	registry.SetLearningMode(cfg.Chat.LearningMode)
	registry.SetWebSearch(cfg.Chat.WebSearch)
	registry.SetProfile(resolveProfile(cfg, store))

	if store != nil {
		// Stored settings carry the last in-app toggles, which win over
		// config defaults.
		if settings, err := store.LoadSettings(); err == nil {
			registry.SetLearningMode(settings.LearningMode)
			registry.SetWebSearch(settings.WebSearch)
		}
		if chats, err := store.LoadAllChats(); err == nil {
			registry.RestoreChats(chats)
		}
	}

	watcher := watchConfig(registry)
	if watcher != nil {
		defer watcher.Close()
	}

	m := chat.New(registry, states, usage, styles.NewTheme())
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	persistOnExit(registry, store, usage)
}

// openStore opens the persistence layer, or returns nil when disabled or
// unavailable. The TUI runs fine without it.
func openStore(cfg *config.Config) *storage.Store {
	if !cfg.Storage.Enabled {
		return nil
	}
	path, err := cfg.DBPath()
	if err != nil {
		log.Printf("STORE_SKIP | error=%v", err)
		return nil
	}
	store, err := storage.Open(path)
	if err != nil {
		log.Printf("STORE_SKIP | path=%s error=%v", path, err)
		return nil
	}
	return store
}

// resolveProfile prefers the stored learner profile, falling back to the
// profile configured in the config file.
func resolveProfile(cfg *config.Config, store *storage.Store) model.Profile {
	if store != nil {
		if p, err := store.LoadProfile(); err == nil && !p.IsEmpty() {
			return p
		}
	}
	return model.Profile{
		Background: cfg.Profile.Background,
		Interests:  cfg.Profile.Interests,
		Goals:      cfg.Profile.Goals,
	}
}

// watchConfig hot-applies config edits to the running registry. Only the
// chat toggles and the profile take effect live; transport settings need a
// restart.
func watchConfig(registry *tabs.Registry) *config.Watcher {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return nil
	}
	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		registry.SetLearningMode(cfg.Chat.LearningMode)
		registry.SetWebSearch(cfg.Chat.WebSearch)
		registry.SetProfile(model.Profile{
			Background: cfg.Profile.Background,
			Interests:  cfg.Profile.Interests,
			Goals:      cfg.Profile.Goals,
		})
	})
	if err != nil {
		log.Printf("WATCH_SKIP | error=%v", err)
		return nil
	}
	if err := w.Watch(); err != nil {
		log.Printf("WATCH_SKIP | error=%v", err)
		w.Close()
		return nil
	}
	return w
}

// persistOnExit saves conversations, settings, and the usage session.
func persistOnExit(registry *tabs.Registry, store *storage.Store, usage *telemetry.UsageTracker) {
	if err := usage.EndSession(); err != nil {
		log.Printf("USAGE_SAVE_FAIL | error=%v", err)
	}
	if store == nil {
		return
	}

	snap := registry.Snapshot()
	for _, c := range snap.Chats {
		if c.IsEmpty() {
			continue
		}
		if err := store.SaveChat(c); err != nil {
			log.Printf("CHAT_SAVE_FAIL | chat=%s error=%v", c.ID, err)
		}
	}

	learning, webSearch := registry.Modes()
	settings := storage.Settings{
		LearningMode: learning,
		WebSearch:    webSearch,
	}
	if err := store.SaveSettings(settings); err != nil {
		log.Printf("SETTINGS_SAVE_FAIL | error=%v", err)
	}
}
