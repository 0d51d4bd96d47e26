// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, anthropic.DefaultModel, cfg.DefaultModel)
	assert.Equal(t, anthropic.SideModel, cfg.SideModel)
	assert.True(t, cfg.Chat.LearningMode)
	assert.Equal(t, 8787, cfg.Gateway.Port)
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
default_model = "claude-test"

[gateway]
port = 9999

[profile]
background = "math teacher"

[ui]
theme = "light"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", cfg.DefaultModel)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "math teacher", cfg.Profile.Background)
	assert.Equal(t, "light", cfg.UI.Theme)
	// Missing fields fall back to defaults.
	assert.Equal(t, anthropic.SideModel, cfg.SideModel)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Gateway.URL)
}

func TestLoadFromPathJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"side_model": "claude-side", "ui": {"theme": "auto"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-side", cfg.SideModel)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Gateway.Port = 0 }, "gateway.port"},
		{"bad port high", func(c *Config) { c.Gateway.Port = 70000 }, "gateway.port"},
		{"bad gateway url", func(c *Config) { c.Gateway.URL = "not a url" }, "gateway.url"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"negative width", func(c *Config) { c.UI.MarkdownWidth = -1 }, "ui.markdown_width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var errs ValidateErrors
			require.ErrorAs(t, err, &errs)
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected error on field %s, got %v", tt.field, err)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-123")
	t.Setenv("LEARNTAB_MODEL", "claude-env")
	t.Setenv("LEARNTAB_PORT", "5151")
	t.Setenv("LEARNTAB_LEARNING", "false")
	t.Setenv("LEARNTAB_WEB_SEARCH", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "sk-test-123", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-env", cfg.DefaultModel)
	assert.Equal(t, 5151, cfg.Gateway.Port)
	assert.False(t, cfg.Chat.LearningMode)
	assert.True(t, cfg.Chat.WebSearch)
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := Default()
	cfg.Profile.Goals = "pass the exam"
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "pass the exam", loaded.Profile.Goals)
	assert.Equal(t, cfg.DefaultModel, loaded.DefaultModel)
}

func TestSaveJSONAtomic(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := Default()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Gateway.Port, loaded.Gateway.Port)
}
