// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTML handlers for the admin UI and the
// public certificate portal.
package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/certify-go/internal/auth"
	"github.com/olegiv/certify-go/internal/middleware"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/store"
)

const (
	redirectLogin = "/login"
	redirectAdmin = "/admin"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// LoginForm renders the login page. Already-authenticated users are
// sent straight to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{Title: "Sign in"}); err != nil {
		slog.Error("rendering login page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectLogin, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Email and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			flashError(w, r, h.renderer, redirectLogin,
				"Account temporarily locked. Try again in "+formatDuration(remaining)+".")
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for unknown user", "email", email)
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record the failure even for unknown users to prevent enumeration
		h.recordFailure(w, r, email)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !valid {
		if err != nil {
			slog.Error("password check error", "error", err)
		}
		h.recordFailure(w, r, email)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Renew the session token on privilege change
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal failed", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Login failed. Please try again.")
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Warn("updating last login failed", "error", err, "user_id", user.ID)
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
}

func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			flashError(w, r, h.renderer, redirectLogin,
				"Too many failed attempts. Account locked for "+formatDuration(lockDuration)+".")
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, "Invalid email or password")
}

// Logout destroys the session and redirects to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
}
