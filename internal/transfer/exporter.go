// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olegiv/certify-go/internal/model"
)

// WriteCertificatesCSV writes certificates as CSV with a header row.
// Rows appear in the order given. verifyURL resolves a public id to its
// verification link.
func WriteCertificatesCSV(w io.Writer, certs []model.CertificateWithEvent, verifyURL func(publicID string) string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"event", "participant_name", "participant_email",
		"public_id", "image_url", "verify_url", "downloaded", "created_at",
	}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, c := range certs {
		record := []string{
			c.EventName,
			c.ParticipantName,
			c.ParticipantEmail,
			c.PublicID,
			c.ImageURL,
			verifyURL(c.PublicID),
			strconv.FormatBool(c.Downloaded),
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row for %s: %w", c.PublicID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
