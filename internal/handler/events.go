// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/middleware"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/store"
)

var hexColorRe = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// EventsHandler manages event template configuration pages.
type EventsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// List renders all events, newest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListEvents(r.Context())
	if err != nil {
		slog.Error("listing events", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title: "Events",
		User:  middleware.GetUser(r),
		Data:  struct{ Events []model.Event }{events},
	}); err != nil {
		slog.Error("rendering events", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// NewForm renders the event creation form.
func (h *EventsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/event_new", render.TemplateData{
		Title: "New Event",
		User:  middleware.GetUser(r),
	}); err != nil {
		slog.Error("rendering event form", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Create handles the event creation form submission. Events are
// immutable once created, so validation happens entirely here.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, "/admin/events/new", "Invalid form data")
		return
	}

	params, errMsg := parseEventForm(r)
	if errMsg != "" {
		flashError(w, r, h.renderer, "/admin/events/new", errMsg)
		return
	}

	event, err := h.queries.CreateEvent(r.Context(), params)
	if err != nil {
		slog.Error("creating event", "error", err)
		flashError(w, r, h.renderer, "/admin/events/new", "Could not create event")
		return
	}

	slog.Info("event created", "event_id", event.ID, "name", event.Name)
	flashSuccess(w, r, h.renderer, "/admin/upload?event="+strconv.FormatInt(event.ID, 10),
		"Event created. Upload a participant list to issue certificates.")
}

// parseEventForm validates the event form and returns insert params or
// a user-facing error message.
func parseEventForm(r *http.Request) (store.CreateEventParams, string) {
	var p store.CreateEventParams

	p.Name = r.FormValue("name")
	p.TemplateRef = r.FormValue("template_ref")
	if p.Name == "" || p.TemplateRef == "" {
		return p, "Name and template reference are required"
	}

	var err error
	if p.TextX, err = strconv.ParseInt(r.FormValue("text_x"), 10, 64); err != nil || p.TextX < 0 {
		return p, "Text X must be a non-negative integer"
	}
	if p.TextY, err = strconv.ParseInt(r.FormValue("text_y"), 10, 64); err != nil || p.TextY < 0 {
		return p, "Text Y must be a non-negative integer"
	}

	p.FontFamily = r.FormValue("font_family")
	if p.FontFamily == "" {
		p.FontFamily = imagecdn.DefaultFontFamily
	}

	if v := r.FormValue("font_size"); v == "" {
		p.FontSize = imagecdn.DefaultFontSize
	} else if p.FontSize, err = strconv.ParseInt(v, 10, 64); err != nil || p.FontSize <= 0 {
		return p, "Font size must be a positive integer"
	}

	p.FontColor = r.FormValue("font_color")
	if p.FontColor == "" {
		p.FontColor = imagecdn.DefaultFontColor
	} else if !hexColorRe.MatchString(p.FontColor) {
		return p, "Font color must be a 6-digit hex value without '#'"
	}

	return p, ""
}
