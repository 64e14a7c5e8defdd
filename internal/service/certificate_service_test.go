// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/notify"
	"github.com/olegiv/certify-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			template_ref TEXT NOT NULL,
			text_x INTEGER NOT NULL DEFAULT 0,
			text_y INTEGER NOT NULL DEFAULT 0,
			font_size INTEGER NOT NULL DEFAULT 50,
			font_family TEXT NOT NULL DEFAULT 'Roboto',
			font_color TEXT NOT NULL DEFAULT '000000',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE certificates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			participant_name TEXT NOT NULL,
			participant_email TEXT NOT NULL,
			public_id TEXT NOT NULL UNIQUE,
			image_url TEXT NOT NULL,
			downloaded BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE email_outbox (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			certificate_id INTEGER,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL,
			html_body TEXT NOT NULL,
			text_body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			next_retry_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			sent_at DATETIME
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

type noopSender struct{}

func (noopSender) Send(to, subject, htmlBody, textBody string) error { return nil }

func testService(t *testing.T, withEmail bool) (*CertificateService, *sql.DB) {
	t.Helper()

	db := testDB(t)
	cfg := &config.Config{BaseURL: "http://localhost:8080", CloudName: "demo"}
	logger := slog.New(slog.DiscardHandler)

	var dispatcher *notify.Dispatcher
	if withEmail {
		dispatcher = notify.NewDispatcher(db, noopSender{}, logger, notify.DefaultConfig())
	}
	return NewCertificateService(db, imagecdn.NewComposer("demo"), dispatcher, cfg, logger), db
}

func createEvent(t *testing.T, db *sql.DB) model.Event {
	t.Helper()

	event, err := store.New(db).CreateEvent(context.Background(), store.CreateEventParams{
		Name:        "Go Workshop",
		TemplateRef: "certs/template",
		TextX:       400,
		TextY:       250,
		FontSize:    50,
		FontFamily:  "Roboto",
		FontColor:   "000000",
	})
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}
	return event
}

func TestGenerate(t *testing.T) {
	svc, db := testService(t, false)
	event := createEvent(t, db)

	created, err := svc.Generate(context.Background(), event.ID, []model.Participant{
		{Name: "Ada Lovelace", Email: "ada@example.com"},
		{Name: "Grace Hopper", Email: "grace@example.com"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d certificates, want 2", len(created))
	}

	// The image URL carries the encoded name and the event's text anchor
	url := created[0].ImageURL
	if !strings.Contains(url, "res.cloudinary.com/demo/image/upload/") {
		t.Errorf("image URL = %q", url)
	}
	if !strings.Contains(url, "l_text:Roboto_50_bold:Ada%20Lovelace") {
		t.Errorf("text overlay missing: %q", url)
	}
	if !strings.Contains(url, "x_400,y_250") {
		t.Errorf("anchor missing: %q", url)
	}
	if !strings.HasSuffix(url, "/certs/template") {
		t.Errorf("template ref missing: %q", url)
	}

	if created[0].PublicID == created[1].PublicID {
		t.Error("public ids must be distinct")
	}
}

func TestGenerate_UnknownEvent(t *testing.T) {
	svc, db := testService(t, false)

	_, err := svc.Generate(context.Background(), 12345, []model.Participant{
		{Name: "Ada", Email: "ada@example.com"},
	})
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err = %v; want ErrEventNotFound", err)
	}

	count, err := store.New(db).CountCertificates(context.Background())
	if err != nil {
		t.Fatalf("counting certificates: %v", err)
	}
	if count != 0 {
		t.Errorf("persisted %d certificates for an unknown event", count)
	}
}

func TestGenerate_Reissue(t *testing.T) {
	svc, db := testService(t, false)
	event := createEvent(t, db)
	participants := []model.Participant{{Name: "Ada Lovelace", Email: "ada@example.com"}}

	first, err := svc.Generate(context.Background(), event.ID, participants)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := svc.Generate(context.Background(), event.ID, participants)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	// Submitting the same list twice issues two certificates
	if first[0].PublicID == second[0].PublicID {
		t.Error("reissued certificate reused the public id")
	}
}

func TestNotify(t *testing.T) {
	svc, db := testService(t, true)
	event := createEvent(t, db)

	created, err := svc.Generate(context.Background(), event.ID, []model.Participant{
		{Name: "Ada Lovelace", Email: "ada@example.com"},
		{Name: "Grace Hopper", Email: "grace@example.com"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	queued, err := svc.Notify(context.Background(), event.Name, created, "See you next year")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if queued != 2 {
		t.Errorf("queued = %d, want 2", queued)
	}

	pending, err := store.New(db).CountOutboxByStatus(context.Background(), model.OutboxStatusPending)
	if err != nil {
		t.Fatalf("counting outbox: %v", err)
	}
	if pending != 2 {
		t.Errorf("pending outbox rows = %d, want 2", pending)
	}
}

func TestNotify_EmailNotConfigured(t *testing.T) {
	svc, db := testService(t, false)
	event := createEvent(t, db)

	created, err := svc.Generate(context.Background(), event.ID, []model.Participant{
		{Name: "Ada Lovelace", Email: "ada@example.com"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	queued, err := svc.Notify(context.Background(), event.Name, created, "")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if queued != 0 {
		t.Errorf("queued = %d without a dispatcher, want 0", queued)
	}
}
