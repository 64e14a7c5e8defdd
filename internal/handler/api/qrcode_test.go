// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestQRCode(t *testing.T) {
	h, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qrcode?url=https%3A%2F%2Fexample.com%2Fverify%2Fpub-1", nil)
	rec := httptest.NewRecorder()
	h.QRCode(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	resp := decodeResponse(t, rec)
	dataURL, ok := resp["qrCode"].(string)
	if !ok || !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Errorf("qrCode = %v", resp["qrCode"])
	}
}

func TestQRCode_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing url", ""},
		{"relative url", "?url=%2Fverify%2Fpub-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/qrcode"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.QRCode(rec, req)

			assertStatus(t, rec.Code, http.StatusBadRequest)
		})
	}
}
