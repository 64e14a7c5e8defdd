// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package qr

import (
	"bytes"
	"strings"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestPNG(t *testing.T) {
	png, err := PNG("https://example.com/verify/abc-123", SizeDownload)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestPNG_EmptyContent(t *testing.T) {
	if _, err := PNG("", SizeDownload); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestPNG_DefaultSize(t *testing.T) {
	png, err := PNG("hello", 0)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty output")
	}
}

func TestDataURL(t *testing.T) {
	u, err := DataURL("https://example.com/verify/abc-123", SizeInline)
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	if !strings.HasPrefix(u, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %q", u[:min(40, len(u))])
	}
}
