// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for babypolicy.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.babypolicy/config.toml
//   - ~/.babypolicy/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/babypolicy-chat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete babypolicy configuration.
type Config struct {
	// Version of the config file layout
	Version string `toml:"version" json:"version"`

	// Gateway is the backend API connection
	Gateway GatewayConfig `toml:"gateway" json:"gateway"`

	// Auth locates the bearer token issued by the identity service
	Auth AuthConfig `toml:"auth" json:"auth"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`

	// DevServer configures the local development backend
	DevServer DevServerConfig `toml:"devserver" json:"devserver"`
}

// GatewayConfig contains backend connection settings.
type GatewayConfig struct {
	// BaseURL is the API root, including the /api prefix
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds each request. 0 disables the timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// AuthConfig contains token settings.
type AuthConfig struct {
	// Token is used as-is when set. Prefer TokenFile.
	Token string `toml:"token" json:"token"`
	// TokenFile is read when Token is empty (default: ~/.babypolicy/token)
	TokenFile string `toml:"token_file" json:"token_file"`
	// Watch reloads the token file when it changes
	Watch bool `toml:"watch" json:"watch"`
}

// UIConfig contains UI-related configuration.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant answers with glamour
	Markdown bool `toml:"markdown" json:"markdown"`
	// WelcomeMessage replaces the default welcome turn when set
	WelcomeMessage string `toml:"welcome_message" json:"welcome_message"`
	// SidebarWidth is the conversation list width in columns
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// File is the log path (default: ~/.babypolicy/babypolicy.log). "-" logs to stderr.
	File string `toml:"file" json:"file"`
	// Format is "text" or "json"
	Format string `toml:"format" json:"format"`
}

// DevServerConfig configures the local development backend.
type DevServerConfig struct {
	// Addr is the listen address
	Addr string `toml:"addr" json:"addr"`
	// DatabasePath is the sqlite file (default: ~/.babypolicy/devserver.db)
	DatabasePath string `toml:"database_path" json:"database_path"`
	// Tokens maps bearer tokens to user ids
	Tokens map[string]string `toml:"tokens" json:"tokens"`
	// RatePerMinute limits requests per token. 0 disables limiting.
	RatePerMinute int `toml:"rate_per_minute" json:"rate_per_minute"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// CurrentVersion is the config layout version written by SaveTOML.
	CurrentVersion = "1"

	defaultBaseURL      = "http://localhost:8000/api"
	defaultDevAddr      = "127.0.0.1:8000"
	defaultSidebarWidth = 32
	defaultRatePerMin   = 60
)

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Gateway: GatewayConfig{
			BaseURL: defaultBaseURL,
		},
		Auth: AuthConfig{
			Watch: true,
		},
		UI: UIConfig{
			Theme:        "auto",
			Markdown:     true,
			SidebarWidth: defaultSidebarWidth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		DevServer: DevServerConfig{
			Addr:          defaultDevAddr,
			Tokens:        map[string]string{"dev-token": "dev-user"},
			RatePerMinute: defaultRatePerMin,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the babypolicy config directory. BABYPOLICY_HOME
// overrides the default of ~/.babypolicy.
func ConfigDir() (string, error) {
	if dir := os.Getenv("BABYPOLICY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".babypolicy"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// TokenPath returns the configured token file, or the default location.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenFile != "" {
		return expandHome(c.Auth.TokenFile)
	}
	return inConfigDir("token")
}

// LogPath returns the configured log file, or the default location.
// "-" is returned unchanged and means stderr.
func (c *Config) LogPath() (string, error) {
	if c.Log.File == "-" {
		return "-", nil
	}
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	return inConfigDir("babypolicy.log")
}

// DatabasePath returns the devserver sqlite path, or the default location.
func (c *Config) DatabasePath() (string, error) {
	if c.DevServer.DatabasePath != "" {
		return expandHome(c.DevServer.DatabasePath)
	}
	return inConfigDir("devserver.db")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load loads configuration from the default locations, trying TOML first,
// then JSON, and falling back to defaults. Environment overrides are applied
// last. A parse error returns the defaults together with the error.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg = Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, everything else as TOML.
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

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero values that a partial config file left empty.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = d.Gateway.BaseURL
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = d.UI.SidebarWidth
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = d.DevServer.Addr
	}
	if c.DevServer.Tokens == nil {
		c.DevServer.Tokens = d.DevServer.Tokens
	}
}

// =============================================================================
// SAVING
// =============================================================================

// SaveTOML writes cfg as TOML with a header comment.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# babypolicy configuration file\n")
	b.WriteString("# Generated by babypolicy - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// SECURITY: The file may hold a token, keep it owner-only
	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
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

	if u, err := url.Parse(c.Gateway.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "gateway.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Gateway.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "gateway.base_url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}

	if c.Gateway.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "gateway.timeout_secs",
			Message: "must not be negative",
		})
	}

	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("width %d out of range 16-80", c.UI.SidebarWidth),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Log.Format),
		})
	}

	if c.DevServer.RatePerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "devserver.rate_per_minute",
			Message: "must not be negative",
		})
	}
	for tok, user := range c.DevServer.Tokens {
		if strings.TrimSpace(tok) == "" || strings.TrimSpace(user) == "" {
			errs = append(errs, ValidationError{
				Field:   "devserver.tokens",
				Message: "tokens and user ids must not be empty",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - BABYPOLICY_API_URL: overrides gateway.base_url
//   - BABYPOLICY_TOKEN: overrides auth.token
//   - BABYPOLICY_TOKEN_FILE: overrides auth.token_file
//   - BABYPOLICY_LOG_LEVEL: overrides log.level
//   - BABYPOLICY_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BABYPOLICY_API_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("BABYPOLICY_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("BABYPOLICY_TOKEN_FILE"); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv("BABYPOLICY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BABYPOLICY_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by toml tag names.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if tag == "" {
		return strings.ToLower(f.Name)
	}
	return strings.Split(tag, ",")[0]
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every scalar configuration key in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Struct {
			keys = append(keys, tomlName(f))
			continue
		}
		for j := 0; j < f.Type.NumField(); j++ {
			sub := f.Type.Field(j)
			if sub.Type.Kind() == reflect.Map {
				continue
			}
			keys = append(keys, tomlName(f)+"."+tomlName(sub))
		}
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
