// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/babypolicy-chat/internal/model"

// Directory is the local mirror of the user's conversation summaries.
type Directory struct {
	items  []model.Conversation
	loaded bool

	deleting map[string]bool

	// Refresh sequencing: a result older than the last applied one is ignored
	issued  uint64
	applied uint64
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{deleting: make(map[string]bool)}
}

// List returns the conversations newest first.
func (d *Directory) List() []model.Conversation {
	out := append([]model.Conversation(nil), d.items...)
	model.SortNewestFirst(out)
	return out
}

// Get returns the summary with the given id.
func (d *Directory) Get(id string) (model.Conversation, bool) {
	for _, c := range d.items {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Len returns the number of conversations.
func (d *Directory) Len() int {
	return len(d.items)
}

// Loaded reports whether a refresh has ever succeeded.
func (d *Directory) Loaded() bool {
	return d.loaded
}

// Refreshing reports whether a refresh is outstanding.
func (d *Directory) Refreshing() bool {
	return d.issued > d.applied
}

// Deleting reports whether a delete of id is outstanding.
func (d *Directory) Deleting(id string) bool {
	return d.deleting[id]
}

// Replace installs a freshly fetched set of summaries.
func (d *Directory) Replace(convs []model.Conversation) {
	d.items = append(make([]model.Conversation, 0, len(convs)), convs...)
	d.loaded = true
}

// Remove drops id from the local set.
func (d *Directory) Remove(id string) bool {
	for i, c := range d.items {
		if c.ID == id {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Directory) beginRefresh() uint64 {
	d.issued++
	return d.issued
}

// completeRefresh records that the refresh seq finished. It returns false
// when a newer refresh has already been applied.
func (d *Directory) completeRefresh(seq uint64) bool {
	if seq <= d.applied {
		return false
	}
	d.applied = seq
	return true
}
