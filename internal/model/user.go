// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
)

// User is an admin-UI account. Participants are not users; the public
// portal and verification pages require no account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}
