// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Certificate is an issued certificate record. PublicID is the opaque
// verification token embedded in verification URLs and QR codes; it is
// the only identifier exposed to the public.
type Certificate struct {
	ID               int64     `json:"id"`
	EventID          int64     `json:"event_id"`
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	PublicID         string    `json:"public_id"`
	ImageURL         string    `json:"image_url"`
	Downloaded       bool      `json:"downloaded"`
	CreatedAt        time.Time `json:"created_at"`
}

// CertificateWithEvent is a certificate annotated with its owning
// event's name, as returned by lookup and verification queries.
type CertificateWithEvent struct {
	Certificate
	EventName string `json:"event_name"`
}

// Participant is one row of a parsed participant list.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
