// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer handles participant list import and certificate
// export in CSV form.
package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olegiv/certify-go/internal/model"
)

// ErrNoParticipants is returned when an import yields zero usable rows.
var ErrNoParticipants = errors.New("no valid participant rows")

// ImportResult holds the outcome of parsing a participant list.
type ImportResult struct {
	Participants []model.Participant
	Skipped      int // rows dropped for a missing name or email
}

// ParseParticipants reads a CSV participant list. The first row must be
// a header containing "name" and "email" columns (case-insensitive,
// any order, extra columns ignored). Rows missing either value are
// skipped and counted rather than failing the import.
func ParseParticipants(r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrNoParticipants)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	nameIdx, emailIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(stripBOM(col))) {
		case "name":
			nameIdx = i
		case "email":
			emailIdx = i
		}
	}
	if nameIdx < 0 || emailIdx < 0 {
		return nil, errors.New(`header must contain "name" and "email" columns`)
	}

	result := &ImportResult{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		var name, email string
		if nameIdx < len(record) {
			name = strings.TrimSpace(record[nameIdx])
		}
		if emailIdx < len(record) {
			email = strings.TrimSpace(record[emailIdx])
		}

		if name == "" || email == "" {
			result.Skipped++
			continue
		}

		result.Participants = append(result.Participants, model.Participant{
			Name:  name,
			Email: email,
		})
	}

	if len(result.Participants) == 0 {
		return result, ErrNoParticipants
	}
	return result, nil
}

// stripBOM removes a UTF-8 byte order mark, which spreadsheet exports
// often prepend to the first header cell.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
