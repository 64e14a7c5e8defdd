// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/olegiv/certify-go/internal/qr"
)

// QRCode handles GET /api/v1/qrcode?url=. It returns the encoded URL as
// a base64 PNG data URL.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}
	if u, err := url.Parse(target); err != nil || u.Scheme == "" {
		writeError(w, http.StatusBadRequest, "url must be absolute")
		return
	}

	dataURL, err := qr.DataURL(target, qr.SizeDownload)
	if err != nil {
		slog.Error("generating QR code via API", "error", err)
		writeError(w, http.StatusInternalServerError, "Error generating QR code")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"qrCode": dataURL})
}
