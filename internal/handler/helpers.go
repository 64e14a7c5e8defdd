// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/certify-go/internal/render"
)

// flashError sets an error flash message and redirects.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirect, message string) {
	renderer.SetFlash(r, message, "error")
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// flashSuccess sets a success flash message and redirects.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirect, message string) {
	renderer.SetFlash(r, message, "success")
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// formatDuration renders a duration in whole minutes for user-facing
// lockout messages.
func formatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
