// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/service"
	"github.com/olegiv/certify-go/internal/store"
)

type generateRequest struct {
	EventID      int64               `json:"eventId"`
	Participants []model.Participant `json:"participants"`
}

// GenerateCertificates handles POST /api/v1/certificates. It issues one
// certificate per participant in an all-or-nothing batch.
func (h *Handler) GenerateCertificates(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.EventID <= 0 {
		writeError(w, http.StatusBadRequest, "eventId is required")
		return
	}
	if len(req.Participants) == 0 {
		writeError(w, http.StatusBadRequest, "participants must not be empty")
		return
	}
	for _, p := range req.Participants {
		if p.Name == "" || p.Email == "" {
			writeError(w, http.StatusBadRequest, "every participant needs a name and an email")
			return
		}
	}

	created, err := h.certs.Generate(r.Context(), req.EventID, req.Participants)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("generating certificates via API", "error", err, "event_id", req.EventID)
		writeError(w, http.StatusInternalServerError, "Error generating certificates")
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"count":        len(created),
		"certificates": created,
	})
}

// ListCertificates handles GET /api/v1/certificates with optional
// ?email= and ?eventId= filters. Email matching is exact.
func (h *Handler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	params := store.ListCertificatesParams{
		ParticipantEmail: r.URL.Query().Get("email"),
	}
	if v := r.URL.Query().Get("eventId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid eventId")
			return
		}
		params.EventID = id
	}

	certs, err := h.queries.ListCertificates(r.Context(), params)
	if err != nil {
		slog.Error("listing certificates via API", "error", err)
		writeError(w, http.StatusInternalServerError, "Error listing certificates")
		return
	}
	if certs == nil {
		certs = []model.CertificateWithEvent{}
	}

	writeSuccess(w, http.StatusOK, map[string]any{"certificates": certs})
}

type downloadRequest struct {
	CertificateID int64 `json:"certificateId"`
}

// TrackDownload handles POST /api/v1/certificates/download. The
// downloaded flag is one-way; repeat calls succeed without change.
func (h *Handler) TrackDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CertificateID <= 0 {
		writeError(w, http.StatusBadRequest, "certificateId is required")
		return
	}

	if err := h.queries.MarkCertificateDownloaded(r.Context(), req.CertificateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Certificate not found")
			return
		}
		slog.Error("tracking download via API", "error", err, "certificate_id", req.CertificateID)
		writeError(w, http.StatusInternalServerError, "Error tracking download")
		return
	}

	writeSuccess(w, http.StatusOK, nil)
}
