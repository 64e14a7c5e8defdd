// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imagecdn composes certificate image URLs by layering the
// participant name onto an event's template via CDN transformation
// parameters. No image data is ever fetched or stored locally.
package imagecdn

import (
	"fmt"
	"strings"
)

const baseURL = "https://res.cloudinary.com"

// Defaults applied when an overlay field is unset.
const (
	DefaultFontSize   = 50
	DefaultFontFamily = "Roboto"
	DefaultFontColor  = "000000"
)

// TextOverlay describes where and how the participant name is drawn
// on the template image. X and Y are pixel offsets from the top-left
// corner. Color is a hex RGB value without the leading '#'.
type TextOverlay struct {
	FontFamily string
	FontSize   int64
	Color      string
	X          int64
	Y          int64
}

// Composer builds transformation URLs for a single CDN account.
type Composer struct {
	cloudName string
}

// NewComposer creates a Composer for the given CDN cloud name.
func NewComposer(cloudName string) *Composer {
	return &Composer{cloudName: cloudName}
}

// CertificateURL returns the image URL for a certificate rendered from
// templateRef with participantName overlaid. The same inputs always
// produce the same URL.
func (c *Composer) CertificateURL(templateRef, participantName string, o TextOverlay) string {
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.FontFamily == "" {
		o.FontFamily = DefaultFontFamily
	}
	if o.Color == "" {
		o.Color = DefaultFontColor
	}

	transformations := strings.Join([]string{
		fmt.Sprintf("l_text:%s_%d_bold:%s", o.FontFamily, o.FontSize, encodeName(participantName)),
		"g_north_west",
		fmt.Sprintf("x_%d", o.X),
		fmt.Sprintf("y_%d", o.Y),
		"co_rgb:" + o.Color,
	}, ",")

	return fmt.Sprintf("%s/%s/image/upload/%s/%s", baseURL, c.cloudName, transformations, templateRef)
}

// DownloadURL rewrites a certificate image URL so the CDN serves it as
// a file attachment instead of rendering it inline.
func DownloadURL(imageURL string) string {
	return strings.Replace(imageURL, "/upload/", "/upload/fl_attachment/", 1)
}

// encodeName percent-encodes the participant name for embedding in the
// text overlay segment. Unreserved characters are left as-is; anything
// else, including the comma and slash that would break the
// transformation syntax, is encoded as UTF-8 percent escapes.
func encodeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
