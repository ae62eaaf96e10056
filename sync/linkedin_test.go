package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nudge/models"
)

func TestParseLinkedInStandardExport(t *testing.T) {
	csv := `First Name,Last Name,Email Address,Company,Position,Connected On,URL
John,Doe,john@x.com,Acme,Engineer,01 Jan 2024,https://linkedin.com/in/johndoe
Jane,Lee,,Beta Corp,Designer,02 Feb 2024,https://linkedin.com/in/janelee
`
	records, err := parseLinkedIn(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "John Doe", records[0].Name)
	assert.Equal(t, "john@x.com", records[0].Email)
	assert.Equal(t, "Acme", records[0].Company)
	assert.Equal(t, "Engineer", records[0].Role)
	assert.Equal(t, "https://linkedin.com/in/johndoe", records[0].SourceID)
	assert.Equal(t, models.SourceLinkedIn, records[0].Source)

	assert.Equal(t, "Jane Lee", records[1].Name)
	assert.Empty(t, records[1].Email)
}

func TestParseLinkedInHeaderVariations(t *testing.T) {
	csv := `FirstName,LastName,Email,Organization,Title
Pat,Kim,pat@k.io,Gamma,CTO
`
	records, err := parseLinkedIn(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Pat Kim", records[0].Name)
	assert.Equal(t, "Gamma", records[0].Company)
	assert.Equal(t, "CTO", records[0].Role)
}

func TestParseLinkedInSkipsNamelessRows(t *testing.T) {
	csv := `First Name,Last Name,Email Address
,,orphan@x.com
Only,,only@x.com
`
	records, err := parseLinkedIn(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Only", records[0].Name)
}

func TestParseLinkedInBOM(t *testing.T) {
	csv := "\ufeffFirst Name,Last Name\nJohn,Doe\n"
	records, err := parseLinkedIn(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestParseLinkedInNoNameColumns(t *testing.T) {
	csv := "Email Address,Company\na@b.co,Acme\n"
	_, err := parseLinkedIn(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestParseLinkedInCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.csv")
	content := "First Name,Last Name\nJane,Lee\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := ParseLinkedInCSV(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = ParseLinkedInCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
