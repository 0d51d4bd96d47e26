// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete learntab configuration.
type Config struct {
	// General settings
	Version      string `toml:"version" json:"version"`
	DefaultModel string `toml:"default_model" json:"default_model"`
	// SideModel handles deep dives and side chats, typically a cheaper model.
	SideModel string `toml:"side_model" json:"side_model"`

	// Gateway configuration
	Gateway GatewayConfig `toml:"gateway" json:"gateway"`

	// Anthropic upstream configuration
	Anthropic AnthropicConfig `toml:"anthropic" json:"anthropic"`

	// Chat behavior
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Learner profile
	Profile ProfileConfig `toml:"profile" json:"profile"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// GatewayConfig contains the local gateway configuration.
type GatewayConfig struct {
	// Port the gateway listens on when run with -serve.
	Port int `toml:"port" json:"port"`
	// URL is the gateway base URL the TUI talks to.
	URL string `toml:"url" json:"url"`
	// ToolsURL is the upstream the tools proxy forwards to (empty disables it).
	ToolsURL string `toml:"tools_url" json:"tools_url"`
}

// AnthropicConfig contains upstream API configuration.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. Usually set via ANTHROPIC_API_KEY.
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL overrides the API endpoint, mainly for testing.
	BaseURL string `toml:"base_url" json:"base_url"`
}

// ChatConfig contains chat behavior settings.
type ChatConfig struct {
	// LearningMode enables learning-link prompting in the main chat.
	LearningMode bool `toml:"learning_mode" json:"learning_mode"`
	// WebSearch enables the web search tool for main chat requests.
	WebSearch bool `toml:"web_search" json:"web_search"`
}

// ProfileConfig holds the learner profile injected into prompts.
type ProfileConfig struct {
	Background string `toml:"background" json:"background"`
	Interests  string `toml:"interests" json:"interests"`
	Goals      string `toml:"goals" json:"goals"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// ShowTokens displays token counts in the UI
	ShowTokens bool `toml:"show_tokens" json:"show_tokens"`
	// ShowCost displays estimated cost information in the UI
	ShowCost bool `toml:"show_cost" json:"show_cost"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// MarkdownWidth caps the rendered width of assistant messages (0 = auto)
	MarkdownWidth int `toml:"markdown_width" json:"markdown_width"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// Enabled controls whether chats and settings persist across runs.
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath overrides the database location (empty = ~/.learntab/learntab.db).
	DBPath string `toml:"db_path" json:"db_path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:      "1.0.0",
		DefaultModel: anthropic.DefaultModel,
		SideModel:    anthropic.SideModel,

		Gateway: GatewayConfig{
			Port: 8787,
			URL:  "http://127.0.0.1:8787",
		},

		Anthropic: AnthropicConfig{},

		Chat: ChatConfig{
			LearningMode: true,
			WebSearch:    false,
		},

		UI: UIConfig{
			Theme:      "dark",
			ShowTokens: true,
			ShowCost:   true,
		},

		Storage: StorageConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the learntab configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".learntab"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DBPath returns the database path, honoring the configured override.
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "learntab.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies overrides, defaults, and validation after decode.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. JSON is chosen by extension, anything else decodes as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# learntab configuration file")
	fmt.Fprintln(file, "# Generated by learntab - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file. The write is atomic so a
// crash mid-save cannot corrupt the existing file.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "gateway.port",
			Message: fmt.Sprintf("port must be 1-65535, got %d", c.Gateway.Port),
		})
	}

	if c.Gateway.URL != "" {
		if u, err := url.Parse(c.Gateway.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "gateway.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Gateway.URL),
			})
		}
	}

	if c.Gateway.ToolsURL != "" {
		if u, err := url.Parse(c.Gateway.ToolsURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "gateway.tools_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Gateway.ToolsURL),
			})
		}
	}

	if c.Anthropic.BaseURL != "" {
		if u, err := url.Parse(c.Anthropic.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "anthropic.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Anthropic.BaseURL),
			})
		}
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.MarkdownWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.markdown_width",
			Message: "must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.SideModel == "" {
		c.SideModel = defaults.SideModel
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = defaults.Gateway.Port
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = fmt.Sprintf("http://127.0.0.1:%d", c.Gateway.Port)
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ANTHROPIC_API_KEY: overrides anthropic.api_key
//   - LEARNTAB_MODEL: overrides default_model
//   - LEARNTAB_SIDE_MODEL: overrides side_model
//   - LEARNTAB_GATEWAY_URL: overrides gateway.url
//   - LEARNTAB_PORT: overrides gateway.port
//   - LEARNTAB_TOOLS_URL: overrides gateway.tools_url
//   - LEARNTAB_THEME: overrides ui.theme
//   - LEARNTAB_LEARNING: set to "1" or "true" to enable learning mode
//   - LEARNTAB_WEB_SEARCH: set to "1" or "true" to enable web search
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Anthropic.APIKey = key
	}
	if model := os.Getenv("LEARNTAB_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if model := os.Getenv("LEARNTAB_SIDE_MODEL"); model != "" {
		c.SideModel = model
	}
	if gw := os.Getenv("LEARNTAB_GATEWAY_URL"); gw != "" {
		c.Gateway.URL = gw
	}
	if port := os.Getenv("LEARNTAB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Gateway.Port = p
		}
	}
	if tools := os.Getenv("LEARNTAB_TOOLS_URL"); tools != "" {
		c.Gateway.ToolsURL = tools
	}
	if theme := os.Getenv("LEARNTAB_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if learning := os.Getenv("LEARNTAB_LEARNING"); learning != "" {
		c.Chat.LearningMode = envBool(learning)
	}
	if search := os.Getenv("LEARNTAB_WEB_SEARCH"); search != "" {
		c.Chat.WebSearch = envBool(search)
	}
}

func envBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
