// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// CertificateMessage holds everything needed to render a certificate
// notification email for one participant.
type CertificateMessage struct {
	ParticipantName string
	EventName       string
	CertificateURL  string // direct download URL (attachment variant)
	VerifyURL       string
	CustomMessage   string // organizer-supplied, sanitized before rendering
}

// Subject returns the email subject line.
func (m CertificateMessage) Subject() string {
	return fmt.Sprintf("Your Certificate for %s", m.EventName)
}

var (
	sanitizer = bluemonday.UGCPolicy()
	stripTags = bluemonday.StrictPolicy()
)

var htmlTmpl = template.Must(template.New("certificate_email").Parse(`<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
      .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
      .button { display: inline-block; padding: 12px 30px; background: #667eea; color: white; text-decoration: none; border-radius: 5px; margin: 10px 5px; }
      .footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
      .message-box { background: #fff; border-left: 4px solid #667eea; padding: 15px; margin: 20px 0; font-style: italic; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1>Congratulations {{.ParticipantName}}!</h1>
      </div>
      <div class="content">
        <p>You have successfully completed <strong>{{.EventName}}</strong>!</p>
        {{if .CustomMessage}}<div class="message-box">{{.CustomMessage}}</div>{{end}}
        <p>Your certificate of completion is now ready for download.</p>
        <div style="text-align: center; margin: 30px 0;">
          <a href="{{.CertificateURL}}" class="button">Download Certificate</a>
          <a href="{{.VerifyURL}}" class="button">Verify Certificate</a>
        </div>
        <p><strong>What you can do:</strong></p>
        <ul>
          <li>Download your certificate and share it on social media</li>
          <li>Add it to your LinkedIn profile</li>
          <li>Use the verification link to prove authenticity</li>
        </ul>
        <p>Your certificate has a unique verification code. Anyone can verify its authenticity using the verification link above.</p>
      </div>
      <div class="footer">
        <p>This is an automated email. Please do not reply.</p>
        <p>&copy; {{.Year}} All rights reserved.</p>
      </div>
    </div>
  </body>
</html>
`))

// Render produces the HTML and plain text bodies for the message. The
// custom message is run through an HTML sanitizer so organizer input
// cannot inject markup into recipient inboxes.
func (m CertificateMessage) Render() (htmlBody, textBody string, err error) {
	data := struct {
		ParticipantName string
		EventName       string
		CertificateURL  string
		VerifyURL       string
		CustomMessage   template.HTML
		Year            int
	}{
		ParticipantName: m.ParticipantName,
		EventName:       m.EventName,
		CertificateURL:  m.CertificateURL,
		VerifyURL:       m.VerifyURL,
		CustomMessage:   template.HTML(sanitizer.Sanitize(m.CustomMessage)),
		Year:            time.Now().Year(),
	}

	var b strings.Builder
	if err := htmlTmpl.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("render email: %w", err)
	}

	return b.String(), m.renderText(), nil
}

func (m CertificateMessage) renderText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Congratulations %s!\n\n", m.ParticipantName)
	fmt.Fprintf(&b, "You have successfully completed %s.\n\n", m.EventName)
	if msg := strings.TrimSpace(stripTags.Sanitize(m.CustomMessage)); msg != "" {
		fmt.Fprintf(&b, "%s\n\n", msg)
	}
	fmt.Fprintf(&b, "Download your certificate: %s\n", m.CertificateURL)
	fmt.Fprintf(&b, "Verify its authenticity: %s\n\n", m.VerifyURL)
	b.WriteString("This is an automated email. Please do not reply.\n")
	return b.String()
}
