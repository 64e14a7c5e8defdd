// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/store"
)

var hexColorRe = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

type createEventRequest struct {
	Name        string `json:"name"`
	TemplateURL string `json:"templateUrl"`
	TextX       int64  `json:"textX"`
	TextY       int64  `json:"textY"`
	FontSize    int64  `json:"fontSize"`
	FontFamily  string `json:"fontFamily"`
	FontColor   string `json:"fontColor"`
}

// CreateEvent handles POST /api/v1/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.TemplateURL == "" {
		writeError(w, http.StatusBadRequest, "name and templateUrl are required")
		return
	}
	if req.TextX < 0 || req.TextY < 0 {
		writeError(w, http.StatusBadRequest, "textX and textY must be non-negative")
		return
	}
	if req.FontSize < 0 {
		writeError(w, http.StatusBadRequest, "fontSize must be positive")
		return
	}
	if req.FontColor != "" && !hexColorRe.MatchString(req.FontColor) {
		writeError(w, http.StatusBadRequest, "fontColor must be a 6-digit hex value without '#'")
		return
	}

	if req.FontSize == 0 {
		req.FontSize = imagecdn.DefaultFontSize
	}
	if req.FontFamily == "" {
		req.FontFamily = imagecdn.DefaultFontFamily
	}
	if req.FontColor == "" {
		req.FontColor = imagecdn.DefaultFontColor
	}

	event, err := h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		Name:        req.Name,
		TemplateRef: req.TemplateURL,
		TextX:       req.TextX,
		TextY:       req.TextY,
		FontSize:    req.FontSize,
		FontFamily:  req.FontFamily,
		FontColor:   req.FontColor,
	})
	if err != nil {
		slog.Error("creating event via API", "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating event")
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"event": event})
}

// ListEvents handles GET /api/v1/events. Events are returned newest
// first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListEvents(r.Context())
	if err != nil {
		slog.Error("listing events via API", "error", err)
		writeError(w, http.StatusInternalServerError, "Error listing events")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"events": events})
}
