package output

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/harperreed/nudge/models"
)

func TestWriteOutreachSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outreach.xlsx")

	rows := []OutreachRow{
		{
			Result: models.MatchResult{
				A: &models.SourceRecord{
					Source: models.SourceGoogle, Name: "Jane Smith",
					Email: "jane@example.com", Company: "Acme",
				},
				B: &models.SourceRecord{
					Source: models.SourceLinkedIn, Name: "Jane Smith",
				},
				Confidence: models.ConfidenceHigh,
				Reason:     "email",
			},
			Message: "Hey Jane!",
		},
		{
			Result: models.MatchResult{
				B: &models.SourceRecord{
					Source: models.SourceLinkedIn, Name: "Sam Okafor", Company: "Northwind",
				},
				Confidence:   models.ConfidenceMedium,
				Reason:       "name",
				ManualReview: true,
			},
		},
	}

	require.NoError(t, WriteOutreachSheet(path, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := f.GetRows("Outreach")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Name", got[0][0])
	assert.Equal(t, "Confidence", got[0][4])

	assert.Equal(t, "Jane Smith", got[1][0])
	assert.Equal(t, "jane@example.com", got[1][1])
	assert.Equal(t, "High", got[1][4])
	assert.Equal(t, "google, linkedin", got[1][7])
	assert.Equal(t, "Hey Jane!", got[1][8])

	assert.Equal(t, "Sam Okafor", got[2][0])
	assert.Equal(t, "Medium", got[2][4])
	assert.Equal(t, "yes", got[2][6])
}

func TestWriteOutreachSheetEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteOutreachSheet(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := f.GetRows("Outreach")
	require.NoError(t, err)
	require.Len(t, got, 1)
}
