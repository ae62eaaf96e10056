// ABOUTME: Identity resolution MCP tool handler
// ABOUTME: Implements the match_sources tool over stored contacts and a LinkedIn export
package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/match"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/sync"
)

type MatchHandlers struct {
	db *sql.DB
}

func NewMatchHandlers(database *sql.DB) *MatchHandlers {
	return &MatchHandlers{db: database}
}

type MatchSourcesInput struct {
	LinkedInCSV string `json:"linkedin_csv" jsonschema:"Path to a LinkedIn connections CSV export (required)"`
	Import      bool   `json:"import,omitempty" jsonschema:"Persist matched clusters into the contact store"`
}

type MatchPairOutput struct {
	Name         string `json:"name"`
	Confidence   string `json:"confidence"`
	Reason       string `json:"reason,omitempty"`
	ManualReview bool   `json:"manual_review,omitempty"`
	Sources      int    `json:"sources"`
}

type MatchSourcesOutput struct {
	Results   []MatchPairOutput `json:"results"`
	High      int               `json:"high"`
	Medium    int               `json:"medium"`
	None      int               `json:"none"`
	Imported  int               `json:"imported,omitempty"`
	Updated   int               `json:"updated,omitempty"`
	Ambiguous int               `json:"ambiguous,omitempty"`
}

func (h *MatchHandlers) MatchSources(_ context.Context, request *mcp.CallToolRequest, input MatchSourcesInput) (*mcp.CallToolResult, MatchSourcesOutput, error) {
	if input.LinkedInCSV == "" {
		return nil, MatchSourcesOutput{}, fmt.Errorf("linkedin_csv is required")
	}

	linkedin, err := sync.ParseLinkedInCSV(input.LinkedInCSV)
	if err != nil {
		return nil, MatchSourcesOutput{}, fmt.Errorf("failed to parse LinkedIn export: %w", err)
	}

	contacts, err := db.AllContacts(h.db)
	if err != nil {
		return nil, MatchSourcesOutput{}, fmt.Errorf("failed to load contacts: %w", err)
	}

	results := match.Match(contactRecords(contacts), linkedin)

	output := MatchSourcesOutput{Results: make([]MatchPairOutput, len(results))}
	for i := range results {
		r := &results[i]
		sources := 0
		if r.A != nil {
			sources++
		}
		if r.B != nil {
			sources++
		}
		output.Results[i] = MatchPairOutput{
			Name:         r.DisplayName(),
			Confidence:   string(r.Confidence),
			Reason:       r.Reason,
			ManualReview: r.ManualReview,
			Sources:      sources,
		}
		switch r.Confidence {
		case models.ConfidenceHigh:
			output.High++
		case models.ConfidenceMedium:
			output.Medium++
		default:
			output.None++
		}
	}

	if input.Import {
		stats, err := sync.NewImporter(h.db).ImportResults(results)
		if err != nil {
			return nil, MatchSourcesOutput{}, fmt.Errorf("failed to import results: %w", err)
		}
		output.Imported = stats.Created
		output.Updated = stats.Updated
		output.Ambiguous = stats.Ambiguous
	}

	return nil, output, nil
}

// contactRecords projects stored contacts into source records so the
// matcher can pair them against an export.
func contactRecords(contacts []models.Contact) []models.SourceRecord {
	records := make([]models.SourceRecord, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		records[i] = models.SourceRecord{
			Source:   models.SourceGoogle,
			SourceID: c.SourceIDs[models.SourceGoogle],
			Name:     c.Name,
			Email:    c.PrimaryEmail(),
			Phone:    c.PrimaryPhone(),
			Company:  c.Company,
			Category: c.Category,
		}
	}
	return records
}
