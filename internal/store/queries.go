// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/certify-go/internal/model"
)

// DBTX is the subset of database/sql used by Queries, satisfied by both
// *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps a database handle with typed query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// =============================================================================
// USERS
// =============================================================================

const userColumns = `id, email, password_hash, role, name, created_at, updated_at, last_login_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
}

// CreateUser inserts a new user and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.Role, arg.Name, now, now)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUserLastLogin records the time of the user's most recent login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// =============================================================================
// EVENTS
// =============================================================================

const eventColumns = `id, name, template_ref, text_x, text_y, font_size, font_family, font_color, created_at`

func scanEvent(row *sql.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Name, &e.TemplateRef, &e.TextX, &e.TextY,
		&e.FontSize, &e.FontFamily, &e.FontColor, &e.CreatedAt)
	return e, err
}

// CreateEventParams holds the fields for CreateEvent.
type CreateEventParams struct {
	Name        string
	TemplateRef string
	TextX       int64
	TextY       int64
	FontSize    int64
	FontFamily  string
	FontColor   string
}

// CreateEvent inserts a new event template configuration and returns it.
// Events are immutable once created; there is no update query.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (name, template_ref, text_x, text_y, font_size, font_family, font_color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.TemplateRef, arg.TextX, arg.TextY, arg.FontSize,
		arg.FontFamily, arg.FontColor, time.Now())
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return q.GetEventByID(ctx, id)
}

// GetEventByID returns an event by primary key.
func (q *Queries) GetEventByID(ctx context.Context, id int64) (model.Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// ListEvents returns all events, newest first.
func (q *Queries) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.TemplateRef, &e.TextX, &e.TextY,
			&e.FontSize, &e.FontFamily, &e.FontColor, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents returns the total number of events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// =============================================================================
// CERTIFICATES
// =============================================================================

const certificateColumns = `c.id, c.event_id, c.participant_name, c.participant_email,
	c.public_id, c.image_url, c.downloaded, c.created_at`

func scanCertificateWithEvent(rows *sql.Rows) (model.CertificateWithEvent, error) {
	var c model.CertificateWithEvent
	err := rows.Scan(&c.ID, &c.EventID, &c.ParticipantName, &c.ParticipantEmail,
		&c.PublicID, &c.ImageURL, &c.Downloaded, &c.CreatedAt, &c.EventName)
	return c, err
}

// CreateCertificateParams holds the fields for one certificate row.
type CreateCertificateParams struct {
	EventID          int64
	ParticipantName  string
	ParticipantEmail string
	PublicID         string
	ImageURL         string
}

// CreateCertificatesBatch inserts all given certificate rows in a single
// transaction. The batch is all-or-nothing: any failed insert rolls back
// every row. Returns the created records in input order.
//
// Requires q to be bound to *sql.DB (not a transaction).
func (q *Queries) CreateCertificatesBatch(ctx context.Context, batch []CreateCertificateParams) ([]model.Certificate, error) {
	db, ok := q.db.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("batch insert requires a *sql.DB handle")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO certificates (event_id, participant_name, participant_email, public_id, image_url, downloaded, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	created := make([]model.Certificate, 0, len(batch))
	for _, arg := range batch {
		res, err := stmt.ExecContext(ctx, arg.EventID, arg.ParticipantName,
			arg.ParticipantEmail, arg.PublicID, arg.ImageURL, now)
		if err != nil {
			return nil, fmt.Errorf("inserting certificate for %s: %w", arg.ParticipantEmail, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		created = append(created, model.Certificate{
			ID:               id,
			EventID:          arg.EventID,
			ParticipantName:  arg.ParticipantName,
			ParticipantEmail: arg.ParticipantEmail,
			PublicID:         arg.PublicID,
			ImageURL:         arg.ImageURL,
			Downloaded:       false,
			CreatedAt:        now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}
	return created, nil
}

// GetCertificateByPublicID resolves a verification token to a certificate
// joined with its owning event's name. Returns sql.ErrNoRows for unknown
// or mistyped tokens.
func (q *Queries) GetCertificateByPublicID(ctx context.Context, publicID string) (model.CertificateWithEvent, error) {
	var c model.CertificateWithEvent
	err := q.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+`, e.name
		 FROM certificates c
		 JOIN events e ON e.id = c.event_id
		 WHERE c.public_id = ?`, publicID).
		Scan(&c.ID, &c.EventID, &c.ParticipantName, &c.ParticipantEmail,
			&c.PublicID, &c.ImageURL, &c.Downloaded, &c.CreatedAt, &c.EventName)
	return c, err
}

// ListCertificatesParams filters ListCertificates. Zero values disable
// the corresponding filter.
type ListCertificatesParams struct {
	ParticipantEmail string
	EventID          int64
}

// ListCertificates returns certificates newest first, each annotated with
// its event name. Email matching is exact (no case or whitespace
// normalization).
func (q *Queries) ListCertificates(ctx context.Context, arg ListCertificatesParams) ([]model.CertificateWithEvent, error) {
	query := `SELECT ` + certificateColumns + `, e.name
		 FROM certificates c
		 JOIN events e ON e.id = c.event_id`
	var (
		conds []string
		args  []any
	)
	if arg.ParticipantEmail != "" {
		conds = append(conds, "c.participant_email = ?")
		args = append(args, arg.ParticipantEmail)
	}
	if arg.EventID != 0 {
		conds = append(conds, "c.event_id = ?")
		args = append(args, arg.EventID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []model.CertificateWithEvent
	for rows.Next() {
		c, err := scanCertificateWithEvent(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// MarkCertificateDownloaded sets the downloaded flag for a certificate.
// The flag is one-way; repeat calls are no-ops and never error.
// Returns sql.ErrNoRows if the certificate does not exist.
func (q *Queries) MarkCertificateDownloaded(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE certificates SET downloaded = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountCertificates returns the total number of issued certificates.
func (q *Queries) CountCertificates(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&n)
	return n, err
}

// CountDownloadedCertificates returns how many certificates have been downloaded.
func (q *Queries) CountDownloadedCertificates(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM certificates WHERE downloaded = 1`).Scan(&n)
	return n, err
}

// EventStats summarizes certificate engagement for one event.
type EventStats struct {
	EventID      int64
	EventName    string
	Certificates int64
	Downloaded   int64
}

// ListEventStats returns per-event certificate and download counts,
// newest event first. Events with no certificates are included with
// zero counts.
func (q *Queries) ListEventStats(ctx context.Context) ([]EventStats, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT e.id, e.name, COUNT(c.id), COALESCE(SUM(c.downloaded), 0)
		 FROM events e
		 LEFT JOIN certificates c ON c.event_id = e.id
		 GROUP BY e.id, e.name
		 ORDER BY e.created_at DESC, e.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []EventStats
	for rows.Next() {
		var s EventStats
		if err := rows.Scan(&s.EventID, &s.EventName, &s.Certificates, &s.Downloaded); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// =============================================================================
// EMAIL OUTBOX
// =============================================================================

const outboxColumns = `id, certificate_id, recipient, subject, html_body, text_body,
	status, attempts, last_error, next_retry_at, created_at, sent_at`

func scanOutboxRow(scan func(dest ...any) error) (model.OutboxEmail, error) {
	var m model.OutboxEmail
	err := scan(&m.ID, &m.CertificateID, &m.Recipient, &m.Subject, &m.HTMLBody,
		&m.TextBody, &m.Status, &m.Attempts, &m.LastError, &m.NextRetryAt,
		&m.CreatedAt, &m.SentAt)
	return m, err
}

// CreateOutboxEmailParams holds the fields for CreateOutboxEmail.
type CreateOutboxEmailParams struct {
	CertificateID sql.NullInt64
	Recipient     string
	Subject       string
	HTMLBody      string
	TextBody      string
}

// CreateOutboxEmail persists a pending notification and returns its id.
// The row is durable before any delivery attempt is made.
func (q *Queries) CreateOutboxEmail(ctx context.Context, arg CreateOutboxEmailParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO email_outbox (certificate_id, recipient, subject, html_body, text_body, status, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
		arg.CertificateID, arg.Recipient, arg.Subject, arg.HTMLBody, arg.TextBody, time.Now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetOutboxEmail returns an outbox row by id.
func (q *Queries) GetOutboxEmail(ctx context.Context, id int64) (model.OutboxEmail, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+outboxColumns+` FROM email_outbox WHERE id = ?`, id)
	return scanOutboxRow(row.Scan)
}

// ListDueOutboxEmails returns pending emails that are ready for delivery:
// never attempted, or past their retry time.
func (q *Queries) ListDueOutboxEmails(ctx context.Context, now time.Time, limit int) ([]model.OutboxEmail, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+outboxColumns+`
		 FROM email_outbox
		 WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
		 ORDER BY id
		 LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []model.OutboxEmail
	for rows.Next() {
		m, err := scanOutboxRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		emails = append(emails, m)
	}
	return emails, rows.Err()
}

// MarkOutboxSent records a successful delivery.
func (q *Queries) MarkOutboxSent(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE email_outbox SET status = 'sent', sent_at = ?, last_error = NULL WHERE id = ?`,
		at, id)
	return err
}

// MarkOutboxRetry records a failed attempt and schedules the next retry.
func (q *Queries) MarkOutboxRetry(ctx context.Context, id int64, lastError string, nextRetryAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE email_outbox
		 SET attempts = attempts + 1, last_error = ?, next_retry_at = ?
		 WHERE id = ?`, lastError, nextRetryAt, id)
	return err
}

// MarkOutboxFailed records a terminal failure after the attempt budget
// is exhausted.
func (q *Queries) MarkOutboxFailed(ctx context.Context, id int64, lastError string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE email_outbox
		 SET status = 'failed', attempts = attempts + 1, last_error = ?
		 WHERE id = ?`, lastError, id)
	return err
}

// CountOutboxByStatus returns the number of outbox rows with the given status.
func (q *Queries) CountOutboxByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_outbox WHERE status = ?`, status).Scan(&n)
	return n, err
}
