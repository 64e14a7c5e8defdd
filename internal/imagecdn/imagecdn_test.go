// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imagecdn

import (
	"strings"
	"testing"
)

func TestCertificateURL(t *testing.T) {
	c := NewComposer("demo")

	got := c.CertificateURL("certs/template_abc", "Ada Lovelace", TextOverlay{
		FontFamily: "Roboto",
		FontSize:   50,
		Color:      "000000",
		X:          400,
		Y:          250,
	})

	want := "https://res.cloudinary.com/demo/image/upload/" +
		"l_text:Roboto_50_bold:Ada%20Lovelace,g_north_west,x_400,y_250,co_rgb:000000/" +
		"certs/template_abc"
	if got != want {
		t.Errorf("CertificateURL = %q, want %q", got, want)
	}
}

func TestCertificateURL_Deterministic(t *testing.T) {
	c := NewComposer("demo")
	o := TextOverlay{FontFamily: "Montserrat", FontSize: 64, Color: "1a2b3c", X: 120, Y: 480}

	first := c.CertificateURL("tpl", "Grace Hopper", o)
	second := c.CertificateURL("tpl", "Grace Hopper", o)
	if first != second {
		t.Errorf("same inputs produced different URLs:\n%s\n%s", first, second)
	}
}

func TestCertificateURL_Defaults(t *testing.T) {
	c := NewComposer("demo")

	got := c.CertificateURL("tpl", "Jo", TextOverlay{X: 10, Y: 20})
	if !strings.Contains(got, "l_text:Roboto_50_bold:Jo") {
		t.Errorf("defaults not applied: %q", got)
	}
	if !strings.Contains(got, "co_rgb:000000") {
		t.Errorf("default color not applied: %q", got)
	}
}

func TestEncodeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ada Lovelace", "Ada%20Lovelace"},
		{"O'Brien", "O'Brien"},
		{"Smith, Jane", "Smith%2C%20Jane"},
		{"a/b", "a%2Fb"},
		{"José", "Jos%C3%A9"},
		{"Anna-Marie_X.1", "Anna-Marie_X.1"},
	}

	for _, tt := range tests {
		if got := encodeName(tt.in); got != tt.want {
			t.Errorf("encodeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDownloadURL(t *testing.T) {
	in := "https://res.cloudinary.com/demo/image/upload/l_text:Roboto_50_bold:Jo,g_north_west,x_1,y_2,co_rgb:000000/tpl"
	got := DownloadURL(in)

	if !strings.Contains(got, "/upload/fl_attachment/") {
		t.Errorf("DownloadURL missing attachment flag: %q", got)
	}
	if strings.Count(got, "fl_attachment") != 1 {
		t.Errorf("attachment flag inserted more than once: %q", got)
	}
	// Everything after the rewritten segment stays intact
	if !strings.HasSuffix(got, "co_rgb:000000/tpl") {
		t.Errorf("URL tail altered: %q", got)
	}
}
