package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nudge/models"
)

func TestCreateAndGetContact(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{
		Name:     "Alice Johnson",
		Emails:   []string{"alice@acme.com"},
		Phones:   []string{"+13125550123"},
		Company:  "Acme",
		Category: models.CategoryProfessionalActive,
		SourceIDs: map[string]string{
			models.SourceGoogle: "people/c100",
		},
	}
	require.NoError(t, CreateContact(database, contact))
	require.NotEqual(t, uuid.Nil, contact.ID)

	got, err := GetContact(database, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice Johnson", got.Name)
	assert.Equal(t, []string{"alice@acme.com"}, got.Emails)
	assert.Equal(t, []string{"+13125550123"}, got.Phones)
	assert.Equal(t, models.CategoryProfessionalActive, got.Category)
	assert.Equal(t, "people/c100", got.SourceIDs[models.SourceGoogle])
}

func TestGetContactNotFound(t *testing.T) {
	database := setupTestDB(t)

	got, err := GetContact(database, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindContactBySource(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{
		Name:      "Bob Smith",
		Category:  models.CategoryNodeActive,
		SourceIDs: map[string]string{models.SourceLinkedIn: "bob-smith-123"},
	}
	require.NoError(t, CreateContact(database, contact))

	got, err := FindContactBySource(database, models.SourceLinkedIn, "bob-smith-123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, contact.ID, got.ID)

	missing, err := FindContactBySource(database, models.SourceGoogle, "bob-smith-123")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindContactsByCategoryAndQuery(t *testing.T) {
	database := setupTestDB(t)

	for _, c := range []*models.Contact{
		{Name: "Alice Johnson", Emails: []string{"alice@acme.com"}, Category: models.CategoryProfessionalActive},
		{Name: "Bob Smith", Category: models.CategoryProfessionalActive},
		{Name: "Carol Danvers", Category: models.CategoryFriendActive},
	} {
		require.NoError(t, CreateContact(database, c))
	}

	pros, err := FindContacts(database, "", models.CategoryProfessionalActive, 0)
	require.NoError(t, err)
	assert.Len(t, pros, 2)

	byEmail, err := FindContacts(database, "alice@", "", 0)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Alice Johnson", byEmail[0].Name)

	both, err := FindContacts(database, "smith", models.CategoryProfessionalActive, 0)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Bob Smith", both[0].Name)
}

func TestContactsByEmailIsExact(t *testing.T) {
	database := setupTestDB(t)

	for _, c := range []*models.Contact{
		{Name: "Jane Doe", Emails: []string{"jane@example.com"}, Category: models.CategoryOther},
		{Name: "Mary Jane", Emails: []string{"mjane@example.com"}, Category: models.CategoryOther},
	} {
		require.NoError(t, CreateContact(database, c))
	}

	got, err := ContactsByEmail(database, "jane@example.com", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].Name)

	none, err := ContactsByEmail(database, "ane@example.com", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSetContactCategory(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Dana", Category: models.CategoryNodeActive}
	require.NoError(t, CreateContact(database, contact))

	require.NoError(t, SetContactCategory(database, contact.ID, models.CategoryNodeLost))

	got, err := GetContact(database, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryNodeLost, got.Category)

	err = SetContactCategory(database, uuid.New(), models.CategoryNodeLost)
	assert.Error(t, err)
}

func TestAppendContactNote(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Erin", Category: models.CategoryFriendActive}
	require.NoError(t, CreateContact(database, contact))

	note := models.Note{Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Text: "met at conference"}
	require.NoError(t, AppendContactNote(database, contact.ID, note))

	got, err := GetContact(database, contact.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "met at conference", got.Notes[0].Text)
}

func TestOldestReviewedContactsOrdering(t *testing.T) {
	database := setupTestDB(t)

	never := &models.Contact{Name: "Never Reviewed", Category: models.CategoryOther}
	old := &models.Contact{Name: "Old Review", Category: models.CategoryOther}
	recent := &models.Contact{Name: "Recent Review", Category: models.CategoryOther}
	for _, c := range []*models.Contact{never, old, recent} {
		require.NoError(t, CreateContact(database, c))
	}

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, AppendEntry(database, &models.InteractionEntry{
		ContactID: old.ID, Kind: models.EntryReviewed, Timestamp: base,
	}))
	require.NoError(t, AppendEntry(database, &models.InteractionEntry{
		ContactID: recent.ID, Kind: models.EntryReviewed, Timestamp: base.Add(time.Hour),
	}))

	contacts, err := OldestReviewedContacts(database, 10)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, "Never Reviewed", contacts[0].Name)
	assert.Equal(t, "Old Review", contacts[1].Name)
	assert.Equal(t, "Recent Review", contacts[2].Name)
}
