// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/certify-go/internal/middleware"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/service"
	"github.com/olegiv/certify-go/internal/store"
	"github.com/olegiv/certify-go/internal/transfer"
)

// maxUploadBytes bounds participant CSV uploads.
const maxUploadBytes = 10 << 20 // 10 MB

// UploadHandler handles bulk certificate generation from CSV uploads.
type UploadHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	certs    *service.CertificateService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(db *sql.DB, renderer *render.Renderer, certs *service.CertificateService) *UploadHandler {
	return &UploadHandler{
		queries:  store.New(db),
		renderer: renderer,
		certs:    certs,
	}
}

type uploadFormData struct {
	Events          []model.Event
	SelectedEventID int64
}

// Form renders the bulk upload page. The event preselection is carried
// in the ?event query parameter so the events page can link here
// without any client-side state.
func (h *UploadHandler) Form(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListEvents(r.Context())
	if err != nil {
		slog.Error("listing events for upload", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	selected, _ := strconv.ParseInt(r.URL.Query().Get("event"), 10, 64)
	if selected == 0 && len(events) > 0 {
		selected = events[0].ID
	}

	if err := h.renderer.Render(w, r, "admin/upload", render.TemplateData{
		Title: "Bulk Upload",
		User:  middleware.GetUser(r),
		Data:  uploadFormData{Events: events, SelectedEventID: selected},
	}); err != nil {
		slog.Error("rendering upload form", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Upload processes a participant CSV: issues certificates for every
// valid row and, when requested, queues a notification email per
// certificate. Skipped rows are reported, not silently dropped.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		flashError(w, r, h.renderer, "/admin/upload", "Upload too large or malformed")
		return
	}

	eventID, err := strconv.ParseInt(r.FormValue("event"), 10, 64)
	if err != nil || eventID <= 0 {
		flashError(w, r, h.renderer, "/admin/upload", "Select an event")
		return
	}
	redirect := "/admin/upload?event=" + strconv.FormatInt(eventID, 10)

	file, _, err := r.FormFile("file")
	if err != nil {
		flashError(w, r, h.renderer, redirect, "Choose a CSV file to upload")
		return
	}
	defer file.Close()

	result, err := transfer.ParseParticipants(file)
	if err != nil {
		if errors.Is(err, transfer.ErrNoParticipants) {
			flashError(w, r, h.renderer, redirect, "The file contains no valid participant rows")
			return
		}
		flashError(w, r, h.renderer, redirect, "Could not parse CSV: "+err.Error())
		return
	}

	created, err := h.certs.Generate(r.Context(), eventID, result.Participants)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			flashError(w, r, h.renderer, "/admin/upload", "Event not found")
			return
		}
		slog.Error("bulk generation failed", "error", err, "event_id", eventID)
		flashError(w, r, h.renderer, redirect, "Certificate generation failed; no certificates were created")
		return
	}

	msg := fmt.Sprintf("Generated %d certificates.", len(created))
	if result.Skipped > 0 {
		msg += fmt.Sprintf(" Skipped %d rows missing a name or email.", result.Skipped)
	}

	if r.FormValue("send_emails") != "" {
		event, err := h.queries.GetEventByID(r.Context(), eventID)
		if err != nil {
			slog.Error("loading event for notification", "error", err, "event_id", eventID)
			flashError(w, r, h.renderer, redirect, msg+" Email delivery could not be started.")
			return
		}

		queued, err := h.certs.Notify(r.Context(), event.Name, created, r.FormValue("custom_message"))
		if err != nil {
			slog.Error("queueing notifications failed", "error", err, "event_id", eventID)
			msg += fmt.Sprintf(" Queued %d of %d emails before an error occurred.", queued, len(created))
			flashError(w, r, h.renderer, redirect, msg)
			return
		}
		if queued > 0 {
			msg += fmt.Sprintf(" Queued %d notification emails.", queued)
		} else {
			msg += " Email delivery is not configured; no emails were queued."
		}
	}

	flashSuccess(w, r, h.renderer, redirect, msg)
}
