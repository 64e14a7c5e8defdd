// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/store"
)

func testAdminHandler(t *testing.T) (*AdminHandler, *testFixture) {
	t.Helper()
	f := newTestFixture(t)
	cfg := &config.Config{BaseURL: "http://localhost:8080", CloudName: "test"}
	return NewAdminHandler(f.db, f.renderer, cfg), f
}

func TestDashboard(t *testing.T) {
	h, f := testAdminHandler(t)

	event := createTestEvent(t, f.db, "Go Workshop")
	cert := createTestCertificate(t, f.db, event.ID, "Ada Lovelace", "ada@example.com", "pub-1")
	createTestCertificate(t, f.db, event.ID, "Grace Hopper", "grace@example.com", "pub-2")

	q := store.New(f.db)
	if err := q.MarkCertificateDownloaded(context.Background(), cert.ID); err != nil {
		t.Fatalf("marking downloaded: %v", err)
	}

	req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, "/admin", nil))
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Dashboard") {
		t.Error("dashboard heading missing")
	}
}

func TestAnalytics(t *testing.T) {
	h, f := testAdminHandler(t)

	event := createTestEvent(t, f.db, "Go Workshop")
	cert := createTestCertificate(t, f.db, event.ID, "Ada Lovelace", "ada@example.com", "pub-1")
	createTestCertificate(t, f.db, event.ID, "Grace Hopper", "grace@example.com", "pub-2")
	createTestEvent(t, f.db, "Empty Event")

	q := store.New(f.db)
	if err := q.MarkCertificateDownloaded(context.Background(), cert.ID); err != nil {
		t.Fatalf("marking downloaded: %v", err)
	}

	req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, "/admin/analytics", nil))
	rec := httptest.NewRecorder()
	h.Analytics(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, "Go Workshop") {
		t.Error("event row missing from analytics")
	}
	// Events without certificates still get a row
	if !strings.Contains(body, "Empty Event") {
		t.Error("zero-certificate event missing from analytics")
	}
}

func TestAnalyticsExport(t *testing.T) {
	h, f := testAdminHandler(t)

	event := createTestEvent(t, f.db, "Go Workshop")
	createTestCertificate(t, f.db, event.ID, "Ada Lovelace", "ada@example.com", "pub-1")

	req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, "/admin/analytics/export", nil))
	rec := httptest.NewRecorder()
	h.AnalyticsExport(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("content disposition = %q", cd)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event,participant_name,participant_email,public_id,image_url,verify_url") {
		t.Errorf("CSV header missing:\n%s", body)
	}
	if !strings.Contains(body, "Ada Lovelace") || !strings.Contains(body, "pub-1") {
		t.Errorf("certificate row missing:\n%s", body)
	}
	if !strings.Contains(body, "http://localhost:8080/verify/pub-1") {
		t.Errorf("verification URL missing from export:\n%s", body)
	}
}
