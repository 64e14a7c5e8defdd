package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/notify"
	"github.com/olegiv/certify-go/internal/service"
	"github.com/olegiv/certify-go/internal/store"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
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
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (event_id) REFERENCES events(id)
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

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// stubSender records sent messages without touching the network.
type stubSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubSender) Send(to, subject, htmlBody, textBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

// newTestHandler creates an API handler backed by an in-memory database.
// withEmail controls whether a dispatcher is attached.
func newTestHandler(t *testing.T, withEmail bool) (*Handler, *sql.DB) {
	t.Helper()

	db := testDB(t)
	cfg := &config.Config{BaseURL: "http://localhost:8080", CloudName: "test"}
	logger := slog.New(slog.DiscardHandler)

	var dispatcher *notify.Dispatcher
	if withEmail {
		dispatcher = notify.NewDispatcher(db, &stubSender{}, logger, notify.DefaultConfig())
	}

	certs := service.NewCertificateService(db, imagecdn.NewComposer("test"), dispatcher, cfg, logger)
	return NewHandler(db, certs, dispatcher), db
}

// createTestEvent creates an event template configuration.
func createTestEvent(t *testing.T, db *sql.DB, name string) model.Event {
	t.Helper()

	event, err := store.New(db).CreateEvent(context.Background(), store.CreateEventParams{
		Name:        name,
		TemplateRef: "certs/template",
		TextX:       400,
		TextY:       250,
		FontSize:    50,
		FontFamily:  "Roboto",
		FontColor:   "000000",
	})
	if err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

// decodeResponse decodes a JSON response body into a map.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v\n%s", err, rec.Body.String())
	}
	return body
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
