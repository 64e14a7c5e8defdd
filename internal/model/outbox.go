// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Outbox email delivery states.
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxEmail is a queued notification email. Rows are written in the
// same flow that creates certificates and delivered asynchronously by
// the dispatcher, so a crash between enqueue and send never loses mail.
type OutboxEmail struct {
	ID            int64
	CertificateID sql.NullInt64
	Recipient     string
	Subject       string
	HTMLBody      string
	TextBody      string
	Status        string
	Attempts      int64
	LastError     sql.NullString
	NextRetryAt   sql.NullTime
	CreatedAt     time.Time
	SentAt        sql.NullTime
}
