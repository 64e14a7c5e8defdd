// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API for certificate management.
package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/olegiv/certify-go/internal/notify"
	"github.com/olegiv/certify-go/internal/service"
	"github.com/olegiv/certify-go/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db         *sql.DB
	queries    *store.Queries
	certs      *service.CertificateService
	dispatcher *notify.Dispatcher
}

// NewHandler creates a new API handler. dispatcher may be nil when
// email delivery is not configured.
func NewHandler(db *sql.DB, certs *service.CertificateService, dispatcher *notify.Dispatcher) *Handler {
	return &Handler{
		db:         db,
		queries:    store.New(db),
		certs:      certs,
		dispatcher: dispatcher,
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeSuccess writes a JSON success response.
func writeSuccess(w http.ResponseWriter, statusCode int, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	_ = json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a JSON request body, rejecting unknown data after
// the first value.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
