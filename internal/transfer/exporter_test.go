package transfer

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/certify-go/internal/model"
)

func TestWriteCertificatesCSV(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	certs := []model.CertificateWithEvent{
		{
			Certificate: model.Certificate{
				ParticipantName:  "Ada Lovelace",
				ParticipantEmail: "ada@example.com",
				PublicID:         "abc-123",
				ImageURL:         "https://res.cloudinary.com/demo/image/upload/x/tpl",
				Downloaded:       true,
				CreatedAt:        created,
			},
			EventName: "Go Workshop",
		},
	}

	verifyURL := func(publicID string) string {
		return "http://localhost:8080/verify/" + publicID
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCertificatesCSV(&buf, certs, verifyURL))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"event", "participant_name", "participant_email",
		"public_id", "image_url", "verify_url", "downloaded", "created_at",
	}, records[0])
	assert.Equal(t, []string{
		"Go Workshop", "Ada Lovelace", "ada@example.com",
		"abc-123", "https://res.cloudinary.com/demo/image/upload/x/tpl",
		"http://localhost:8080/verify/abc-123",
		"true", "2026-03-14T10:30:00Z",
	}, records[1])
}

func TestWriteCertificatesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCertificatesCSV(&buf, nil, func(string) string { return "" }))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")
}
