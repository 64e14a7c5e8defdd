// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the core domain types persisted by the store.
package model

import "time"

// Event is an organizer-defined certificate template configuration.
// The text anchor (TextX, TextY) is expressed in the original template
// resolution; UI previews must rescale click coordinates before submitting.
// Events are immutable after creation.
type Event struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TemplateRef string    `json:"template_url"`
	TextX       int64     `json:"text_x"`
	TextY       int64     `json:"text_y"`
	FontSize    int64     `json:"font_size"`
	FontFamily  string    `json:"font_family"`
	FontColor   string    `json:"font_color"`
	CreatedAt   time.Time `json:"created_at"`
}
