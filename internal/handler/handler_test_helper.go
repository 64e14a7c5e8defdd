package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/certify-go/internal/auth"
	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/store"
	"github.com/olegiv/certify-go/web"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'organizer',
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX idx_sessions_expiry ON sessions(expiry);

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
		CREATE INDEX idx_certificates_public_id ON certificates(public_id);
		CREATE INDEX idx_certificates_email ON certificates(participant_email);

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

// testFixture bundles the shared dependencies of handler tests.
type testFixture struct {
	db       *sql.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	db := testDB(t)
	sm := testSessionManager(t)
	return &testFixture{db: db, sm: sm, renderer: testRenderer(t, sm)}
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testRenderer creates a renderer over the embedded templates.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("failed to get templates fs: %v", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
	})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return renderer
}

// createTestUser creates a user with a real password hash.
func createTestUser(t *testing.T, db *sql.DB, email, password string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Name:         "Test Admin",
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
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

// createTestCertificate creates one certificate for the given event.
func createTestCertificate(t *testing.T, db *sql.DB, eventID int64, name, email, publicID string) model.Certificate {
	t.Helper()

	created, err := store.New(db).CreateCertificatesBatch(context.Background(), []store.CreateCertificateParams{{
		EventID:          eventID,
		ParticipantName:  name,
		ParticipantEmail: email,
		PublicID:         publicID,
		ImageURL:         "https://res.cloudinary.com/test/image/upload/l_text:x/certs/template",
	}})
	if err != nil {
		t.Fatalf("failed to create test certificate: %v", err)
	}
	return created[0]
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
