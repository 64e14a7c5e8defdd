// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/middleware"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/store"
	"github.com/olegiv/certify-go/internal/transfer"
)

// AdminHandler serves the dashboard and analytics pages.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	cfg      *config.Config
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
		cfg:      cfg,
	}
}

type dashboardData struct {
	EventCount       int64
	CertificateCount int64
	DownloadedCount  int64
	PendingEmails    int64
}

// Dashboard renders the admin dashboard with headline counts.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data dashboardData
	var err error

	if data.EventCount, err = h.queries.CountEvents(ctx); err != nil {
		h.renderError(w, r, "loading event count", err)
		return
	}
	if data.CertificateCount, err = h.queries.CountCertificates(ctx); err != nil {
		h.renderError(w, r, "loading certificate count", err)
		return
	}
	if data.DownloadedCount, err = h.queries.CountDownloadedCertificates(ctx); err != nil {
		h.renderError(w, r, "loading download count", err)
		return
	}
	if data.PendingEmails, err = h.queries.CountOutboxByStatus(ctx, model.OutboxStatusPending); err != nil {
		h.renderError(w, r, "loading outbox count", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		slog.Error("rendering dashboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type eventStatsRow struct {
	EventName    string
	Certificates int64
	Downloaded   int64
	Pending      int64
}

// Analytics renders per-event engagement counts.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.ListEventStats(r.Context())
	if err != nil {
		h.renderError(w, r, "loading event stats", err)
		return
	}

	rows := make([]eventStatsRow, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, eventStatsRow{
			EventName:    s.EventName,
			Certificates: s.Certificates,
			Downloaded:   s.Downloaded,
			Pending:      s.Certificates - s.Downloaded,
		})
	}

	if err := h.renderer.Render(w, r, "admin/analytics", render.TemplateData{
		Title: "Analytics",
		User:  middleware.GetUser(r),
		Data:  struct{ Stats []eventStatsRow }{rows},
	}); err != nil {
		slog.Error("rendering analytics", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// AnalyticsExport streams all certificates as a CSV download.
func (h *AdminHandler) AnalyticsExport(w http.ResponseWriter, r *http.Request) {
	certs, err := h.queries.ListCertificates(r.Context(), store.ListCertificatesParams{})
	if err != nil {
		h.renderError(w, r, "loading certificates for export", err)
		return
	}

	filename := "certificates-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := transfer.WriteCertificatesCSV(w, certs, h.cfg.VerifyURL); err != nil {
		slog.Error("writing certificate export", "error", err)
	}
}

func (h *AdminHandler) renderError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
