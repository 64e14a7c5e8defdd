// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/qr"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/store"
)

// PublicHandler serves the participant-facing portal and verification
// pages. None of these routes require authentication.
type PublicHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	cfg      *config.Config
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(db *sql.DB, renderer *render.Renderer, cfg *config.Config) *PublicHandler {
	return &PublicHandler{
		queries:  store.New(db),
		renderer: renderer,
		cfg:      cfg,
	}
}

// Home renders the public landing page.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "public/home", render.TemplateData{}); err != nil {
		slog.Error("rendering home", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type portalCert struct {
	model.CertificateWithEvent
	DownloadURL string
}

type portalData struct {
	Email        string
	Searched     bool
	Certificates []portalCert
}

// Portal renders the certificate search page. The email must match
// exactly as registered; no case or whitespace normalization is applied.
func (h *PublicHandler) Portal(w http.ResponseWriter, r *http.Request) {
	data := portalData{Email: r.URL.Query().Get("email")}

	if data.Email != "" {
		data.Searched = true
		certs, err := h.queries.ListCertificates(r.Context(), store.ListCertificatesParams{
			ParticipantEmail: data.Email,
		})
		if err != nil {
			slog.Error("portal search failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data.Certificates = make([]portalCert, 0, len(certs))
		for _, c := range certs {
			data.Certificates = append(data.Certificates, portalCert{
				CertificateWithEvent: c,
				DownloadURL:          imagecdn.DownloadURL(c.ImageURL),
			})
		}
	}

	if err := h.renderer.Render(w, r, "public/portal", render.TemplateData{
		Title: "Find your certificates",
		Data:  data,
	}); err != nil {
		slog.Error("rendering portal", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type verifyData struct {
	Certificate model.CertificateWithEvent
	DownloadURL string
	ShareURL    string
	QRDataURL   string
}

// Verify resolves a public certificate id. An unknown id renders the
// "invalid" card with 404 rather than an error page; mistyped or
// guessed ids are an expected outcome. Lookup never mutates the
// downloaded flag.
func (h *PublicHandler) Verify(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	cert, err := h.queries.GetCertificateByPublicID(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.WriteHeader(http.StatusNotFound)
			if err := h.renderer.Render(w, r, "public/verify_invalid", render.TemplateData{
				Title: "Invalid certificate",
			}); err != nil {
				slog.Error("rendering invalid card", "error", err)
			}
			return
		}
		slog.Error("verification lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	verifyURL := h.cfg.VerifyURL(publicID)
	data := verifyData{
		Certificate: cert,
		DownloadURL: imagecdn.DownloadURL(cert.ImageURL),
		ShareURL:    "https://www.linkedin.com/sharing/share-offsite/?url=" + url.QueryEscape(verifyURL),
	}

	// Regenerated per request, never stored
	if dataURL, err := qr.DataURL(verifyURL, qr.SizeInline); err == nil {
		data.QRDataURL = dataURL
	} else {
		slog.Warn("QR generation failed", "error", err, "public_id", publicID)
	}

	if err := h.renderer.Render(w, r, "public/verify", render.TemplateData{
		Title: "Certificate verification",
		Data:  data,
	}); err != nil {
		slog.Error("rendering verification page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
