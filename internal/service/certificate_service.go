// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service contains the certificate issuance and notification
// orchestration shared by the admin UI and the JSON API.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/mailer"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/notify"
	"github.com/olegiv/certify-go/internal/store"
)

// ErrEventNotFound indicates the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// CertificateService issues certificates and queues their notifications.
type CertificateService struct {
	queries    *store.Queries
	composer   *imagecdn.Composer
	dispatcher *notify.Dispatcher
	cfg        *config.Config
	logger     *slog.Logger
}

// NewCertificateService creates a CertificateService. dispatcher may be
// nil when email delivery is not configured; Notify then becomes a no-op.
func NewCertificateService(db *sql.DB, composer *imagecdn.Composer, dispatcher *notify.Dispatcher, cfg *config.Config, logger *slog.Logger) *CertificateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CertificateService{
		queries:    store.New(db),
		composer:   composer,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Generate issues one certificate per participant for the given event.
// Each certificate gets a fresh unguessable public id and an image URL
// composed from the event's template configuration. The batch is
// all-or-nothing; an unknown event rejects the whole batch with
// ErrEventNotFound and persists nothing.
//
// Participants are not deduplicated: submitting the same list twice
// issues a second certificate with a distinct public id per participant.
func (s *CertificateService) Generate(ctx context.Context, eventID int64, participants []model.Participant) ([]model.Certificate, error) {
	event, err := s.queries.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("loading event %d: %w", eventID, err)
	}

	overlay := imagecdn.TextOverlay{
		FontFamily: event.FontFamily,
		FontSize:   event.FontSize,
		Color:      event.FontColor,
		X:          event.TextX,
		Y:          event.TextY,
	}

	batch := make([]store.CreateCertificateParams, 0, len(participants))
	for _, p := range participants {
		batch = append(batch, store.CreateCertificateParams{
			EventID:          event.ID,
			ParticipantName:  p.Name,
			ParticipantEmail: p.Email,
			PublicID:         uuid.NewString(),
			ImageURL:         s.composer.CertificateURL(event.TemplateRef, p.Name, overlay),
		})
	}

	created, err := s.queries.CreateCertificatesBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("inserting certificate batch: %w", err)
	}

	s.logger.Info("certificates issued",
		"event_id", event.ID,
		"event_name", event.Name,
		"count", len(created))

	return created, nil
}

// Notify queues one notification email per certificate. Delivery is
// handled asynchronously by the outbox dispatcher; issuance is never
// affected by email failures. Returns the number of emails queued.
func (s *CertificateService) Notify(ctx context.Context, eventName string, certs []model.Certificate, customMessage string) (int, error) {
	if s.dispatcher == nil {
		s.logger.Warn("email not configured, skipping notifications", "count", len(certs))
		return 0, nil
	}

	queued := 0
	for _, cert := range certs {
		msg := mailer.CertificateMessage{
			ParticipantName: cert.ParticipantName,
			EventName:       eventName,
			CertificateURL:  imagecdn.DownloadURL(cert.ImageURL),
			VerifyURL:       s.cfg.VerifyURL(cert.PublicID),
			CustomMessage:   customMessage,
		}

		htmlBody, textBody, err := msg.Render()
		if err != nil {
			return queued, fmt.Errorf("rendering email for %s: %w", cert.ParticipantEmail, err)
		}

		_, err = s.dispatcher.Enqueue(ctx, store.CreateOutboxEmailParams{
			CertificateID: sql.NullInt64{Int64: cert.ID, Valid: true},
			Recipient:     cert.ParticipantEmail,
			Subject:       msg.Subject(),
			HTMLBody:      htmlBody,
			TextBody:      textBody,
		})
		if err != nil {
			return queued, fmt.Errorf("queueing email for %s: %w", cert.ParticipantEmail, err)
		}
		queued++
	}

	return queued, nil
}
