// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements search_contacts, list_contacts_by_category, request_category_change, add_contact_note, and contact_history tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/lifecycle"
	"github.com/harperreed/nudge/models"
)

type ContactHandlers struct {
	db *sql.DB
	sm *lifecycle.StateMachine
}

func NewContactHandlers(database *sql.DB) *ContactHandlers {
	return &ContactHandlers{db: database, sm: lifecycle.NewStateMachine(database)}
}

type ContactOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Emails    []string `json:"emails,omitempty"`
	Phones    []string `json:"phones,omitempty"`
	Company   string   `json:"company,omitempty"`
	Category  string   `json:"category"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type SearchContactsInput struct {
	Query    string `json:"query,omitempty" jsonschema:"Search query (searches name and email)"`
	Category string `json:"category,omitempty" jsonschema:"Filter by category (e.g. professional-active)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type ContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) SearchContacts(_ context.Context, request *mcp.CallToolRequest, input SearchContactsInput) (*mcp.CallToolResult, ContactsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	category := models.Category(input.Category)
	if input.Category != "" && !category.Valid() {
		return nil, ContactsOutput{}, fmt.Errorf("invalid category: %s", input.Category)
	}

	contacts, err := db.FindContacts(h.db, input.Query, category, limit)
	if err != nil {
		return nil, ContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	return nil, ContactsOutput{Contacts: contactsToOutput(contacts)}, nil
}

type ListByCategoryInput struct {
	Category string `json:"category" jsonschema:"Category to list (required, e.g. friend-active)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

func (h *ContactHandlers) ListContactsByCategory(_ context.Context, request *mcp.CallToolRequest, input ListByCategoryInput) (*mcp.CallToolResult, ContactsOutput, error) {
	category := models.Category(input.Category)
	if !category.Valid() {
		return nil, ContactsOutput{}, fmt.Errorf("invalid category: %s", input.Category)
	}

	contacts, err := db.FindContacts(h.db, "", category, input.Limit)
	if err != nil {
		return nil, ContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	return nil, ContactsOutput{Contacts: contactsToOutput(contacts)}, nil
}

type CategoryChangeInput struct {
	ContactID     string `json:"contact_id" jsonschema:"Contact ID (required)"`
	Category      string `json:"category" jsonschema:"Target category (required)"`
	Note          string `json:"note,omitempty" jsonschema:"Reason for the change, recorded on the contact"`
	Override      bool   `json:"override,omitempty" jsonschema:"Allow moving across category groups (explicit override)"`
	EffectiveDate string `json:"effective_date,omitempty" jsonschema:"When the change takes effect (ISO 8601, defaults to now)"`
}

func (h *ContactHandlers) RequestCategoryChange(_ context.Context, request *mcp.CallToolRequest, input CategoryChangeInput) (*mcp.CallToolResult, ContactOutput, error) {
	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}

	target := models.Category(input.Category)
	if !target.Valid() {
		return nil, ContactOutput{}, fmt.Errorf("invalid category: %s", input.Category)
	}

	effective := time.Now()
	if input.EffectiveDate != "" {
		effective, err = time.Parse(time.RFC3339, input.EffectiveDate)
		if err != nil {
			return nil, ContactOutput{}, fmt.Errorf("invalid effective_date format (use ISO 8601/RFC3339): %w", err)
		}
	}

	if input.Override {
		err = h.sm.Override(contactID, target, input.Note, effective)
	} else {
		err = h.sm.RequestTransition(contactID, target, input.Note, effective)
	}
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("category change failed: %w", err)
	}

	contact, err := db.GetContact(h.db, contactID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to reload contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type AddNoteInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
	Note      string `json:"note" jsonschema:"Note text (required)"`
	Date      string `json:"date,omitempty" jsonschema:"Note date (ISO 8601, defaults to now)"`
}

func (h *ContactHandlers) AddContactNote(_ context.Context, request *mcp.CallToolRequest, input AddNoteInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.Note == "" {
		return nil, ContactOutput{}, fmt.Errorf("note is required")
	}

	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}

	date := time.Now()
	if input.Date != "" {
		date, err = time.Parse(time.RFC3339, input.Date)
		if err != nil {
			return nil, ContactOutput{}, fmt.Errorf("invalid date format (use ISO 8601/RFC3339): %w", err)
		}
	}

	if err := db.AppendContactNote(h.db, contactID, models.Note{Date: date, Text: input.Note}); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to add note: %w", err)
	}

	contact, err := db.GetContact(h.db, contactID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to reload contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type ContactHistoryInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
	AfterID   string `json:"after_id,omitempty" jsonschema:"Return entries after this entry ID (pagination cursor)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 50)"`
}

type EntryOutput struct {
	ID        string            `json:"id"`
	Timestamp string            `json:"timestamp"`
	Kind      string            `json:"kind"`
	Payload   map[string]string `json:"payload,omitempty"`
}

type ContactHistoryOutput struct {
	Entries []EntryOutput `json:"entries"`
	NextID  string        `json:"next_id,omitempty"`
}

func (h *ContactHandlers) ContactHistory(_ context.Context, request *mcp.CallToolRequest, input ContactHistoryInput) (*mcp.CallToolResult, ContactHistoryOutput, error) {
	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, ContactHistoryOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = 50
	}

	entries, err := db.HistoryPage(h.db, contactID, input.AfterID, limit)
	if err != nil {
		return nil, ContactHistoryOutput{}, fmt.Errorf("failed to load history: %w", err)
	}

	output := ContactHistoryOutput{Entries: make([]EntryOutput, len(entries))}
	for i, entry := range entries {
		output.Entries[i] = EntryOutput{
			ID:        entry.ID,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
			Kind:      string(entry.Kind),
			Payload:   entry.Payload,
		}
	}
	if len(entries) == limit {
		output.NextID = entries[len(entries)-1].ID
	}
	return nil, output, nil
}

type ReviewQueueInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of contacts (default 10)"`
}

func (h *ContactHandlers) ReviewQueue(_ context.Context, request *mcp.CallToolRequest, input ReviewQueueInput) (*mcp.CallToolResult, ContactsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	contacts, err := db.OldestReviewedContacts(h.db, limit)
	if err != nil {
		return nil, ContactsOutput{}, fmt.Errorf("failed to load review queue: %w", err)
	}
	return nil, ContactsOutput{Contacts: contactsToOutput(contacts)}, nil
}

func contactToOutput(contact *models.Contact) ContactOutput {
	return ContactOutput{
		ID:        contact.ID.String(),
		Name:      contact.Name,
		Emails:    contact.Emails,
		Phones:    contact.Phones,
		Company:   contact.Company,
		Category:  string(contact.Category),
		CreatedAt: contact.CreatedAt.Format(time.RFC3339),
		UpdatedAt: contact.UpdatedAt.Format(time.RFC3339),
	}
}

func contactsToOutput(contacts []models.Contact) []ContactOutput {
	result := make([]ContactOutput, len(contacts))
	for i := range contacts {
		result[i] = contactToOutput(&contacts[i])
	}
	return result
}
