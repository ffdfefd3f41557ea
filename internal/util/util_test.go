// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "file.txt")

	if err := AtomicWriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestAtomicWriteFileWithDir_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret", "token")

	if err := AtomicWriteFileWithDir(path, []byte("x"), 0600, 0700); err != nil {
		t.Fatalf("AtomicWriteFileWithDir failed: %v", err)
	}
	if err := AtomicWriteFileWithDir(path, []byte("y"), 0600, 0700); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
	got, _ := os.ReadFile(path)
	if string(got) != "y" {
		t.Errorf("content = %q, want %q", got, "y")
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"육아 정책 도우미", 5, "육아..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
	}

	for _, tc := range tests {
		if got := TruncateRunes(tc.in, tc.max); got != tc.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestTruncateWidth_Hangul(t *testing.T) {
	got := TruncateWidth("임신 중 지원금", 6)
	if w := StringWidth(got); w > 6 {
		t.Errorf("width = %d, want <= 6 (%q)", w, got)
	}
	if got := TruncateWidth("abc", 10); got != "abc" {
		t.Errorf("short string changed: %q", got)
	}
}

func TestPadWidth(t *testing.T) {
	got := PadWidth("아동", 6)
	if w := StringWidth(got); w != 6 {
		t.Errorf("PadWidth width = %d, want 6", w)
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("a\r\nb\nc"); got != "a b c" {
		t.Errorf("SingleLine = %q", got)
	}
}
