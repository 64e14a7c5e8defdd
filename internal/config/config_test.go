// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "CERTIFY_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")
	setEnv(t, "CERTIFY_CLOUD_NAME", "demo-cloud")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/certify.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/certify.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.EmailEnabled() {
		t.Error("EmailEnabled() = true with no SMTP host configured")
	}
	if cfg.EmailWorkers != 3 {
		t.Errorf("EmailWorkers = %d, want 3", cfg.EmailWorkers)
	}
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "CERTIFY_CLOUD_NAME", "demo-cloud")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without CERTIFY_SESSION_SECRET")
	}
}

func TestLoad_ShortSessionSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "CERTIFY_SESSION_SECRET", "too-short")
	setEnv(t, "CERTIFY_CLOUD_NAME", "demo-cloud")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a session secret shorter than 32 bytes")
	}
}

func TestServerAddr(t *testing.T) {
	cfg := Config{ServerHost: "0.0.0.0", ServerPort: 3000}
	if got := cfg.ServerAddr(); got != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", got, "0.0.0.0:3000")
	}
}

func TestVerifyURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "http://localhost:8080/verify/abc-123"},
		{"https://certs.example.com/", "https://certs.example.com/verify/abc-123"},
	}
	for _, tt := range tests {
		cfg := Config{BaseURL: tt.base}
		if got := cfg.VerifyURL("abc-123"); got != tt.want {
			t.Errorf("VerifyURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
