// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"CERTIFY_DB_PATH" envDefault:"./data/certify.db"`
	SessionSecret string `env:"CERTIFY_SESSION_SECRET,required"`
	ServerHost    string `env:"CERTIFY_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CERTIFY_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CERTIFY_ENV" envDefault:"development"`
	LogLevel      string `env:"CERTIFY_LOG_LEVEL" envDefault:"info"`

	// BaseURL is the externally reachable origin used to build
	// verification links embedded in emails and QR codes.
	BaseURL string `env:"CERTIFY_BASE_URL" envDefault:"http://localhost:8080"`

	// Image CDN configuration. CloudName selects the account on the
	// hosted transformation service that renders certificate images.
	CloudName string `env:"CERTIFY_CLOUD_NAME,required"`

	// SMTP configuration for certificate notification emails.
	// Email sending is disabled when SMTPHost is empty.
	SMTPHost  string `env:"CERTIFY_SMTP_HOST"`
	SMTPPort  int    `env:"CERTIFY_SMTP_PORT" envDefault:"587"`
	SMTPUser  string `env:"CERTIFY_SMTP_USER"`
	SMTPPass  string `env:"CERTIFY_SMTP_PASS"`
	FromEmail string `env:"CERTIFY_FROM_EMAIL" envDefault:"certificates@localhost"`

	// Outbox dispatcher tuning.
	EmailWorkers     int `env:"CERTIFY_EMAIL_WORKERS" envDefault:"3"`
	EmailMaxAttempts int `env:"CERTIFY_EMAIL_MAX_ATTEMPTS" envDefault:"5"`

	// Admin account seeded on first run when the users table is empty.
	AdminEmail    string `env:"CERTIFY_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"CERTIFY_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// EmailEnabled returns true if SMTP delivery is configured.
func (c Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

// VerifyURL returns the public verification URL for a certificate public id.
func (c Config) VerifyURL(publicID string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/verify/" + publicID
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("CERTIFY_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	return cfg, nil
}
