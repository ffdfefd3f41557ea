// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderer_NilRendersPlain(t *testing.T) {
	var r *renderer
	assert.Equal(t, "**굵게**", r.render("m1", "**굵게**"))
}

func TestRenderer_CachesByID(t *testing.T) {
	r := newRenderer("dark", 60)
	first := r.render("m1", "부모급여는 **월 100만원**입니다")
	assert.Contains(t, first, "100")

	// Cached output wins over new content for the same id
	assert.Equal(t, first, r.render("m1", "다른 내용"))
}

func TestRenderer_WidthChangeClearsCache(t *testing.T) {
	r := newRenderer("dark", 60)
	r.render("m1", "안녕하세요")
	assert.Len(t, r.cache, 1)

	r.setWidth(60)
	assert.Len(t, r.cache, 1, "same width keeps cache")

	r.setWidth(80)
	assert.Empty(t, r.cache)
	assert.Equal(t, 80, r.width)
}
