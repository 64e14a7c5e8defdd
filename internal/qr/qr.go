// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qr renders QR codes that point at certificate verification
// pages, either as raw PNG bytes or as data URLs for inline embedding.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Standard output sizes in pixels.
const (
	SizeDownload = 300 // served by the QR code endpoint
	SizeInline   = 200 // embedded on the verification page
)

// PNG encodes content as a QR code PNG of the given pixel size.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	if size <= 0 {
		size = SizeDownload
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return png, nil
}

// DataURL encodes content as a QR code and returns it as a
// base64 PNG data URL suitable for an <img> src attribute.
func DataURL(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
