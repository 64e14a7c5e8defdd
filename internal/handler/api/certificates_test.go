// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/olegiv/certify-go/internal/store"
)

func generateCertificates(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.GenerateCertificates(rec, req)
	return rec
}

func TestGenerateCertificates(t *testing.T) {
	h, db := newTestHandler(t, false)
	event := createTestEvent(t, db, "Go Workshop")

	body := fmt.Sprintf(`{"eventId":%d,"participants":[
		{"name":"Ada Lovelace","email":"ada@example.com"},
		{"name":"Grace Hopper","email":"grace@example.com"},
		{"name":"Alan Turing","email":"alan@example.com"}]}`, event.ID)

	rec := generateCertificates(t, h, body)

	assertStatus(t, rec.Code, http.StatusCreated)
	resp := decodeResponse(t, rec)
	if resp["count"] != float64(3) {
		t.Errorf("count = %v; want 3", resp["count"])
	}

	certs, ok := resp["certificates"].([]any)
	if !ok || len(certs) != 3 {
		t.Fatalf("certificates = %v", resp["certificates"])
	}

	// Each record carries a distinct public id and a composed image URL
	seen := make(map[string]bool)
	for _, c := range certs {
		cert := c.(map[string]any)
		publicID, _ := cert["public_id"].(string)
		if publicID == "" || seen[publicID] {
			t.Errorf("bad public id %q", publicID)
		}
		seen[publicID] = true

		imageURL, _ := cert["image_url"].(string)
		if !strings.Contains(imageURL, "res.cloudinary.com/test/image/upload/") {
			t.Errorf("image URL not composed: %q", imageURL)
		}
		if !strings.Contains(imageURL, "x_400,y_250") {
			t.Errorf("text anchor missing from image URL: %q", imageURL)
		}
	}
}

func TestGenerateCertificates_UnknownEvent(t *testing.T) {
	h, db := newTestHandler(t, false)

	body := `{"eventId":12345,"participants":[{"name":"Ada","email":"ada@example.com"}]}`
	rec := generateCertificates(t, h, body)

	assertStatus(t, rec.Code, http.StatusNotFound)

	// Nothing persisted
	count, err := store.New(db).CountCertificates(context.Background())
	if err != nil {
		t.Fatalf("counting certificates: %v", err)
	}
	if count != 0 {
		t.Errorf("unknown event persisted %d certificates", count)
	}
}

func TestGenerateCertificates_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing event", `{"participants":[{"name":"A","email":"a@example.com"}]}`},
		{"empty participants", `{"eventId":1,"participants":[]}`},
		{"participant without email", `{"eventId":1,"participants":[{"name":"A"}]}`},
		{"participant without name", `{"eventId":1,"participants":[{"email":"a@example.com"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, false)
			rec := generateCertificates(t, h, tt.body)
			assertStatus(t, rec.Code, http.StatusBadRequest)
		})
	}
}

func TestListCertificates_ByEmail(t *testing.T) {
	h, db := newTestHandler(t, false)
	event := createTestEvent(t, db, "Go Workshop")

	body := fmt.Sprintf(`{"eventId":%d,"participants":[
		{"name":"Ada Lovelace","email":"ada@example.com"},
		{"name":"Grace Hopper","email":"grace@example.com"}]}`, event.ID)
	generateCertificates(t, h, body)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates?email=ada%40example.com", nil)
	rec := httptest.NewRecorder()
	h.ListCertificates(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	resp := decodeResponse(t, rec)
	certs := resp["certificates"].([]any)
	if len(certs) != 1 {
		t.Fatalf("got %d certificates, want 1", len(certs))
	}
	cert := certs[0].(map[string]any)
	if cert["participant_name"] != "Ada Lovelace" || cert["event_name"] != "Go Workshop" {
		t.Errorf("cert = %v", cert)
	}
}

func TestListCertificates_NoMatch(t *testing.T) {
	h, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates?email=nobody%40example.com", nil)
	rec := httptest.NewRecorder()
	h.ListCertificates(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	// Empty result is an empty array, not null
	if !strings.Contains(rec.Body.String(), `"certificates":[]`) {
		t.Errorf("empty result not normalized:\n%s", rec.Body.String())
	}
}

func TestTrackDownload_Idempotent(t *testing.T) {
	h, db := newTestHandler(t, false)
	event := createTestEvent(t, db, "Go Workshop")

	created, err := store.New(db).CreateCertificatesBatch(context.Background(), []store.CreateCertificateParams{{
		EventID:          event.ID,
		ParticipantName:  "Ada Lovelace",
		ParticipantEmail: "ada@example.com",
		PublicID:         "pub-1",
		ImageURL:         "u",
	}})
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}

	body := `{"certificateId":` + strconv.FormatInt(created[0].ID, 10) + `}`
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates/download", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.TrackDownload(rec, req)
		assertStatus(t, rec.Code, http.StatusOK)
	}

	cert, err := store.New(db).GetCertificateByPublicID(context.Background(), "pub-1")
	if err != nil {
		t.Fatalf("reloading certificate: %v", err)
	}
	if !cert.Downloaded {
		t.Error("downloaded flag not set")
	}
}

func TestTrackDownload_UnknownCertificate(t *testing.T) {
	h, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates/download", strings.NewReader(`{"certificateId":99999}`))
	rec := httptest.NewRecorder()
	h.TrackDownload(rec, req)

	assertStatus(t, rec.Code, http.StatusNotFound)
}
