// ABOUTME: LinkedIn connections CSV parser (source B reader)
// ABOUTME: Tolerates header variations and BOM in LinkedIn exports
package sync

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harperreed/nudge/models"
)

// header aliases LinkedIn has used across export versions
var headerAliases = map[string][]string{
	"first_name": {"first name", "firstname", "first_name"},
	"last_name":  {"last name", "lastname", "last_name"},
	"email":      {"email address", "email", "emailaddress", "email_address"},
	"company":    {"company", "organization", "employer"},
	"role":       {"position", "title", "job title", "role"},
	"url":        {"url", "profile url", "linkedin url", "profile"},
}

// ParseLinkedInCSV reads a LinkedIn connections export into source records.
// Rows without any name are skipped; everything else is kept, even with no
// email or company.
func ParseLinkedInCSV(path string) ([]models.SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open LinkedIn CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parseLinkedIn(f)
}

func parseLinkedIn(r io.Reader) ([]models.SourceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		// Strip UTF-8 BOM some exports carry
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := mapHeader(header)
	if _, ok := columns["first_name"]; !ok {
		if _, ok := columns["last_name"]; !ok {
			return nil, fmt.Errorf("CSV has no recognizable name columns")
		}
	}

	var records []models.SourceRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		rec, ok := parseRow(row, columns)
		if ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

// mapHeader maps standard field names to column indices.
func mapHeader(header []string) map[string]int {
	normalized := make(map[string]int, len(header))
	for i, h := range header {
		normalized[strings.ToLower(strings.TrimSpace(h))] = i
	}

	columns := make(map[string]int)
	for field, aliases := range headerAliases {
		for _, alias := range aliases {
			if idx, ok := normalized[alias]; ok {
				columns[field] = idx
				break
			}
		}
	}
	return columns
}

func parseRow(row []string, columns map[string]int) (models.SourceRecord, bool) {
	get := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	first := get("first_name")
	last := get("last_name")
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return models.SourceRecord{}, false
	}

	return models.SourceRecord{
		Source:   models.SourceLinkedIn,
		SourceID: get("url"),
		Name:     name,
		Email:    get("email"),
		Company:  get("company"),
		Role:     get("role"),
	}, true
}
