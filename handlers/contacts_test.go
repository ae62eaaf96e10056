// ABOUTME: Tests for contact MCP tool handlers
// ABOUTME: Validates tool input/output and error handling
package handlers

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedContact(t *testing.T, database *sql.DB, name string, category models.Category) *models.Contact {
	t.Helper()
	contact := &models.Contact{Name: name, Category: category, Emails: []string{"x@example.com"}}
	if err := db.CreateContact(database, contact); err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	return contact
}

func updateContact(t *testing.T, database *sql.DB, contact *models.Contact) {
	t.Helper()
	if err := db.UpdateContact(database, contact); err != nil {
		t.Fatalf("failed to update contact: %v", err)
	}
}

func TestSearchContactsHandler(t *testing.T) {
	database := setupTestDB(t)
	handler := NewContactHandlers(database)

	seedContact(t, database, "John Doe", models.CategoryProfessionalActive)
	seedContact(t, database, "Jane Smith", models.CategoryFriendActive)

	_, output, err := handler.SearchContacts(context.Background(), nil, SearchContactsInput{Query: "john"})
	if err != nil {
		t.Fatalf("SearchContacts failed: %v", err)
	}
	if len(output.Contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(output.Contacts))
	}
	if output.Contacts[0].Name != "John Doe" {
		t.Errorf("expected 'John Doe', got %q", output.Contacts[0].Name)
	}

	_, _, err = handler.SearchContacts(context.Background(), nil, SearchContactsInput{Category: "bogus"})
	if err == nil {
		t.Error("expected error for invalid category")
	}
}

func TestListContactsByCategoryHandler(t *testing.T) {
	database := setupTestDB(t)
	handler := NewContactHandlers(database)

	seedContact(t, database, "John Doe", models.CategoryProfessionalActive)
	seedContact(t, database, "Jane Smith", models.CategoryFriendActive)

	_, output, err := handler.ListContactsByCategory(context.Background(), nil, ListByCategoryInput{
		Category: string(models.CategoryFriendActive),
	})
	if err != nil {
		t.Fatalf("ListContactsByCategory failed: %v", err)
	}
	if len(output.Contacts) != 1 || output.Contacts[0].Name != "Jane Smith" {
		t.Errorf("unexpected contacts: %+v", output.Contacts)
	}
}

func TestRequestCategoryChangeHandler(t *testing.T) {
	database := setupTestDB(t)
	handler := NewContactHandlers(database)
	contact := seedContact(t, database, "John Doe", models.CategoryProfessionalActive)

	_, output, err := handler.RequestCategoryChange(context.Background(), nil, CategoryChangeInput{
		ContactID: contact.ID.String(),
		Category:  string(models.CategoryProfessionalLost),
		Note:      "no response since spring",
	})
	if err != nil {
		t.Fatalf("RequestCategoryChange failed: %v", err)
	}
	if output.Category != string(models.CategoryProfessionalLost) {
		t.Errorf("expected professional-lost, got %q", output.Category)
	}

	// Cross-group moves need the override flag
	_, _, err = handler.RequestCategoryChange(context.Background(), nil, CategoryChangeInput{
		ContactID: contact.ID.String(),
		Category:  string(models.CategoryFriendActive),
	})
	if err == nil {
		t.Fatal("expected cross-group change to fail without override")
	}

	_, output, err = handler.RequestCategoryChange(context.Background(), nil, CategoryChangeInput{
		ContactID: contact.ID.String(),
		Category:  string(models.CategoryFriendActive),
		Override:  true,
	})
	if err != nil {
		t.Fatalf("override change failed: %v", err)
	}
	if output.Category != string(models.CategoryFriendActive) {
		t.Errorf("expected friend-active, got %q", output.Category)
	}
}

func TestAddContactNoteHandler(t *testing.T) {
	database := setupTestDB(t)
	handler := NewContactHandlers(database)
	contact := seedContact(t, database, "John Doe", models.CategoryOther)

	_, _, err := handler.AddContactNote(context.Background(), nil, AddNoteInput{
		ContactID: contact.ID.String(),
		Note:      "met at the conference",
	})
	if err != nil {
		t.Fatalf("AddContactNote failed: %v", err)
	}

	got, err := db.GetContact(database, contact.ID)
	if err != nil {
		t.Fatalf("failed to reload contact: %v", err)
	}
	if len(got.Notes) != 1 || got.Notes[0].Text != "met at the conference" {
		t.Errorf("unexpected notes: %+v", got.Notes)
	}

	_, _, err = handler.AddContactNote(context.Background(), nil, AddNoteInput{ContactID: contact.ID.String()})
	if err == nil {
		t.Error("expected error for empty note")
	}
}

func TestContactHistoryHandler(t *testing.T) {
	database := setupTestDB(t)
	handler := NewContactHandlers(database)
	contact := seedContact(t, database, "John Doe", models.CategoryOther)

	for i := 0; i < 3; i++ {
		err := db.AppendEntry(database, &models.InteractionEntry{
			ContactID: contact.ID,
			Kind:      models.EntryReviewed,
		})
		if err != nil {
			t.Fatalf("failed to append entry: %v", err)
		}
	}

	_, output, err := handler.ContactHistory(context.Background(), nil, ContactHistoryInput{
		ContactID: contact.ID.String(),
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("ContactHistory failed: %v", err)
	}
	if len(output.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(output.Entries))
	}
	if output.NextID == "" {
		t.Error("expected pagination cursor")
	}

	_, next, err := handler.ContactHistory(context.Background(), nil, ContactHistoryInput{
		ContactID: contact.ID.String(),
		AfterID:   output.NextID,
	})
	if err != nil {
		t.Fatalf("ContactHistory page 2 failed: %v", err)
	}
	if len(next.Entries) != 1 {
		t.Fatalf("expected 1 entry on page 2, got %d", len(next.Entries))
	}
}

func TestContactHistoryInvalidID(t *testing.T) {
	database := setupTestDB(t)
	handler := NewContactHandlers(database)

	_, _, err := handler.ContactHistory(context.Background(), nil, ContactHistoryInput{ContactID: "nope"})
	if err == nil {
		t.Error("expected error for invalid contact id")
	}

	_, output, err := handler.ContactHistory(context.Background(), nil, ContactHistoryInput{
		ContactID: uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("ContactHistory failed: %v", err)
	}
	if len(output.Entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(output.Entries))
	}
}
