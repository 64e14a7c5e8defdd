// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/store"
)

const sendEmailBody = `{
	"to": "ada@example.com",
	"participantName": "Ada Lovelace",
	"eventName": "Go Workshop",
	"certificateUrl": "https://example.com/cert.png",
	"verificationUrl": "https://example.com/verify/pub-1",
	"customMessage": "Well done!"
}`

func TestSendEmail(t *testing.T) {
	h, db := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-email", strings.NewReader(sendEmailBody))
	rec := httptest.NewRecorder()
	h.SendEmail(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	resp := decodeResponse(t, rec)
	id, ok := resp["messageId"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("messageId = %v", resp["messageId"])
	}

	// The message is durable in the outbox before any delivery attempt
	m, err := store.New(db).GetOutboxEmail(context.Background(), int64(id))
	if err != nil {
		t.Fatalf("loading outbox row: %v", err)
	}
	if m.Recipient != "ada@example.com" || m.Status != model.OutboxStatusPending {
		t.Errorf("outbox row = %+v", m)
	}
	if !strings.Contains(m.Subject, "Go Workshop") {
		t.Errorf("subject = %q", m.Subject)
	}
	if !strings.Contains(m.HTMLBody, "Well done!") {
		t.Error("custom message missing from body")
	}
}

func TestSendEmail_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-email", strings.NewReader(sendEmailBody))
	rec := httptest.NewRecorder()
	h.SendEmail(rec, req)

	assertStatus(t, rec.Code, http.StatusServiceUnavailable)
}

func TestSendEmail_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing recipient", `{"participantName":"A","eventName":"E"}`},
		{"missing participant", `{"to":"a@example.com","eventName":"E"}`},
		{"invalid address", `{"to":"not-an-email","participantName":"A","eventName":"E"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, true)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/send-email", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.SendEmail(rec, req)

			assertStatus(t, rec.Code, http.StatusBadRequest)
		})
	}
}
