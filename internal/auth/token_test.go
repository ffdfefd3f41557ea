// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	tok, err := Static("  abc  ").Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = Static("").Token()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestChain(t *testing.T) {
	c := Chain{Static(""), nil, Static("second"), Static("third")}
	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	_, err = Chain{Static("")}.Token()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "token"))
	_, err := src.Token()
	assert.True(t, errors.Is(err, ErrNoToken), "got %v", err)
}

func TestFileSource_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "token")
	require.NoError(t, SaveToken(path, "first\n"))

	src := NewFileSource(path)
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	// Cached until reloaded
	require.NoError(t, os.WriteFile(path, []byte("second"), 0600))
	tok, _ = src.Token()
	assert.Equal(t, "first", tok)

	tok, err = src.Reload()
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveToken_Empty(t *testing.T) {
	err := SaveToken(filepath.Join(t.TempDir(), "token"), "   ")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileSource_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	src := NewFileSource(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Watch(ctx, nil))

	require.NoError(t, SaveToken(path, "watched"))

	assert.Eventually(t, func() bool {
		tok, err := src.Token()
		return err == nil && tok == "watched"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"abcdefghijkl", "abcd****ijkl"},
	}
	for _, tc := range tests {
		if got := Mask(tc.in); got != tc.want {
			t.Errorf("Mask(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
