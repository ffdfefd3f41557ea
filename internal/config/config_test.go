// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BABYPOLICY_HOME", dir)
	for _, k := range []string{"BABYPOLICY_API_URL", "BABYPOLICY_TOKEN", "BABYPOLICY_TOKEN_FILE", "BABYPOLICY_LOG_LEVEL", "BABYPOLICY_THEME"} {
		t.Setenv(k, "")
	}
	return dir
}

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// safely called concurrently.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()
	custom := Default()
	custom.UI.Theme = "light"
	SetGlobal(custom)

	if got := Global().UI.Theme; got != "light" {
		t.Errorf("Expected theme 'light', got '%s'", got)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Gateway.BaseURL != "http://localhost:8000/api" {
		t.Errorf("unexpected base url %q", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Timeout() != 0 {
		t.Error("default timeout should be disabled")
	}
	if !cfg.UI.Markdown {
		t.Error("markdown should be on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Gateway.BaseURL = "not a url" }, "gateway.base_url"},
		{"bad scheme", func(c *Config) { c.Gateway.BaseURL = "ftp://x/api" }, "gateway.base_url"},
		{"negative timeout", func(c *Config) { c.Gateway.TimeoutSecs = -1 }, "gateway.timeout_secs"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"narrow sidebar", func(c *Config) { c.UI.SidebarWidth = 4 }, "ui.sidebar_width"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative rate", func(c *Config) { c.DevServer.RatePerMinute = -5 }, "devserver.rate_per_minute"},
		{"empty token user", func(c *Config) { c.DevServer.Tokens = map[string]string{"t": ""} }, "devserver.tokens"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Gateway.BaseURL, cfg.Gateway.BaseURL)
}

func TestLoad_TOMLWithEnvOverrides(t *testing.T) {
	dir := isolate(t)
	data := `
[gateway]
base_url = "https://policy.example.kr/api"
timeout_secs = 30

[ui]
theme = "dark"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0600))
	t.Setenv("BABYPOLICY_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://policy.example.kr/api", cfg.Gateway.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, "env-token", cfg.Auth.Token)
	assert.Equal(t, defaultSidebarWidth, cfg.UI.SidebarWidth, "unset fields keep defaults")
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"log": {"level": "debug"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BrokenTOMLReturnsDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[gateway\n"), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Gateway.BaseURL, cfg.Gateway.BaseURL)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.theme")
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg", "config.toml")

	cfg := Default()
	cfg.Auth.TokenFile = "/tmp/token"
	cfg.DevServer.Tokens = map[string]string{"abc": "mom"}
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/token", loaded.Auth.TokenFile)
	assert.Equal(t, "mom", loaded.DevServer.Tokens["abc"])
}

func TestPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	tok, err := cfg.TokenPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "token"), tok)

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "babypolicy.log"), logPath)

	cfg.Log.File = "-"
	logPath, _ = cfg.LogPath()
	assert.Equal(t, "-", logPath)

	db, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "devserver.db"), db)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("ui.theme", "light"))
	require.NoError(t, cfg.Set("gateway.timeout_secs", "15"))
	require.NoError(t, cfg.Set("ui.markdown", "false"))
	require.NoError(t, cfg.Set("ui.sidebar_width", 40))

	v, err := cfg.Get("ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
	assert.Equal(t, 15, cfg.Gateway.TimeoutSecs)
	assert.False(t, cfg.UI.Markdown)
	assert.Equal(t, 40, cfg.UI.SidebarWidth)

	_, err = cfg.Get("ui.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("gateway.timeout_secs", "soon"))
	assert.Error(t, cfg.Set("ui.theme.x", "y"))
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "gateway.base_url")
	assert.Contains(t, keys, "auth.watch")
	assert.Contains(t, keys, "version")
	assert.NotContains(t, keys, "devserver.tokens")
}
