// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/olegiv/certify-go/internal/mailer"
	"github.com/olegiv/certify-go/internal/store"
)

type sendEmailRequest struct {
	To              string `json:"to"`
	ParticipantName string `json:"participantName"`
	EventName       string `json:"eventName"`
	CertificateURL  string `json:"certificateUrl"`
	VerificationURL string `json:"verificationUrl"`
	CustomMessage   string `json:"customMessage"`
}

// SendEmail handles POST /api/v1/send-email. The message is written to
// the durable outbox and delivered asynchronously; the returned
// messageId identifies the queued message.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "Email delivery is not configured")
		return
	}

	var req sendEmailRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.To == "" || req.ParticipantName == "" || req.EventName == "" {
		writeError(w, http.StatusBadRequest, "to, participantName and eventName are required")
		return
	}
	if _, err := mail.ParseAddress(req.To); err != nil {
		writeError(w, http.StatusBadRequest, "to must be a valid email address")
		return
	}

	msg := mailer.CertificateMessage{
		ParticipantName: req.ParticipantName,
		EventName:       req.EventName,
		CertificateURL:  req.CertificateURL,
		VerifyURL:       req.VerificationURL,
		CustomMessage:   req.CustomMessage,
	}

	htmlBody, textBody, err := msg.Render()
	if err != nil {
		slog.Error("rendering email via API", "error", err)
		writeError(w, http.StatusInternalServerError, "Error rendering email")
		return
	}

	id, err := h.dispatcher.Enqueue(r.Context(), store.CreateOutboxEmailParams{
		Recipient: req.To,
		Subject:   msg.Subject(),
		HTMLBody:  htmlBody,
		TextBody:  textBody,
	})
	if err != nil {
		slog.Error("queueing email via API", "error", err)
		writeError(w, http.StatusInternalServerError, "Error queueing email")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"messageId": id})
}
