// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth supplies the bearer token issued by the identity service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/babypolicy-chat/internal/util"
)

// ErrNoToken is returned when no token is available.
var ErrNoToken = errors.New("no auth token available")

// =============================================================================
// TOKEN SOURCES
// =============================================================================

// Source supplies the current bearer token.
type Source interface {
	// Token returns the current token, or ErrNoToken.
	Token() (string, error)
}

// Static is a Source that always returns the same token.
type Static string

// Token implements Source.
func (s Static) Token() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(string(s)), nil
}

// Chain tries each source in order and returns the first token found.
type Chain []Source

// Token implements Source.
func (c Chain) Token() (string, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		tok, err := s.Token()
		if err == nil && tok != "" {
			return tok, nil
		}
	}
	return "", ErrNoToken
}

// =============================================================================
// FILE SOURCE
// =============================================================================

// FileSource reads the token from a file written by the login flow. The
// contents are cached and reloaded when Watch observes a change.
type FileSource struct {
	path string

	mu     sync.RWMutex
	token  string
	loaded bool
}

// NewFileSource creates a source backed by path. The file does not need to
// exist yet.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the token file path.
func (f *FileSource) Path() string {
	return f.path
}

// Token implements Source.
func (f *FileSource) Token() (string, error) {
	f.mu.RLock()
	tok, loaded := f.token, f.loaded
	f.mu.RUnlock()

	if !loaded {
		var err error
		if tok, err = f.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Reload re-reads the token file. A missing file clears the cached token.
func (f *FileSource) Reload() (string, error) {
	data, err := os.ReadFile(f.path)
	tok := ""
	if err == nil {
		tok = strings.TrimSpace(string(data))
	}

	f.mu.Lock()
	f.token = tok
	f.loaded = true
	f.mu.Unlock()

	if err != nil {
		return "", err
	}
	return tok, nil
}

// Watch reloads the token whenever the file changes, until ctx is done. The
// parent directory is watched so the file may be created or replaced
// atomically after Watch starts.
func (f *FileSource) Watch(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create token watcher: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		name := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if _, err := f.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
					logger.Warn("token reload failed", "path", f.path, "error", err)
					continue
				}
				logger.Info("token file changed", "path", f.path, "op", event.Op.String())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("token watcher error", "error", err)
			}
		}
	}()

	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	// RELIABILITY: Atomic write with fsync prevents a half-written token
	if err := util.AtomicWriteFileWithDir(path, []byte(token+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Mask returns a redacted form of token for display.
func Mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
