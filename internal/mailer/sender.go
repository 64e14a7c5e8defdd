// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer delivers certificate notification emails over SMTP.
package mailer

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	mail "github.com/go-mail/mail"
)

// Sender delivers a single email message.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender sends mail through an SMTP server using STARTTLS
// negotiation when the server offers it.
type SMTPSender struct {
	host string
	port int
	from string
	user string
	pass string
}

// NewSMTPSender creates an SMTP-backed Sender.
func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		host: host,
		port: port,
		from: from,
		user: user,
		pass: pass,
	}
}

// Send delivers a multipart/alternative message with plain text and
// HTML bodies.
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	if textBody != "" {
		m.SetBody("text/plain", textBody)
		if htmlBody != "" {
			m.AddAlternative("text/html", htmlBody)
		}
	} else {
		m.SetBody("text/html", htmlBody)
	}

	d := mail.NewDialer(s.host, s.port, s.user, s.pass)
	d.TLSConfig = &tls.Config{ServerName: s.host}

	if err := d.DialAndSend(m); err != nil {
		slog.Error("smtp send failed", "to", to, "error", err)
		return fmt.Errorf("smtp send: %w", err)
	}

	slog.Debug("email sent", "to", to, "subject", subject)
	return nil
}
