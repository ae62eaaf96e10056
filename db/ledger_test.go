package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nudge/models"
)

func TestAppendAndHistoryOldestFirst(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Alice", Category: models.CategoryProfessionalActive}
	require.NoError(t, CreateContact(database, contact))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	kinds := []models.EntryKind{
		models.EntryReviewed,
		models.EntryMessageGenerated,
		models.EntryMessageSent,
	}
	for i, kind := range kinds {
		require.NoError(t, AppendEntry(database, &models.InteractionEntry{
			ContactID: contact.ID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Kind:      kind,
		}))
	}

	history, err := History(database, contact.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, kind := range kinds {
		assert.Equal(t, kind, history[i].Kind)
	}
	// Oldest first: ids strictly increase.
	assert.Less(t, history[0].ID, history[1].ID)
	assert.Less(t, history[1].ID, history[2].ID)
}

func TestHistoryPageRestartsFromCursor(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Bob", Category: models.CategoryNodeActive}
	require.NoError(t, CreateContact(database, contact))

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, AppendEntry(database, &models.InteractionEntry{
			ContactID: contact.ID,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Kind:      models.EntryReviewed,
		}))
	}

	page1, err := HistoryPage(database, contact.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := HistoryPage(database, contact.ID, page1[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, page2, 3)
	assert.Less(t, page1[1].ID, page2[0].ID)
}

func TestLastReturnsMostRecentOfKind(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Carol", Category: models.CategoryFriendActive}
	require.NoError(t, CreateContact(database, contact))

	base := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, AppendEntry(database, &models.InteractionEntry{
		ContactID: contact.ID, Timestamp: base, Kind: models.EntryReviewed,
		Payload: map[string]string{models.PayloadNote: "first"},
	}))
	require.NoError(t, AppendEntry(database, &models.InteractionEntry{
		ContactID: contact.ID, Timestamp: base.Add(time.Hour), Kind: models.EntryReviewed,
		Payload: map[string]string{models.PayloadNote: "second"},
	}))

	last, err := Last(database, contact.ID, models.EntryReviewed)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "second", last.Payload[models.PayloadNote])

	none, err := Last(database, contact.ID, models.EntryMessageSent)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestHasSentEntryMatchesEventAndChannel(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Dave", Category: models.CategoryProfessionalActive}
	require.NoError(t, CreateContact(database, contact))

	require.NoError(t, AppendEntry(database, &models.InteractionEntry{
		ContactID: contact.ID,
		Kind:      models.EntryMessageSent,
		Payload: map[string]string{
			models.PayloadEventID: "newyear-2026",
			models.PayloadChannel: string(models.ChannelSMS),
		},
	}))

	sent, err := HasSentEntry(database, contact.ID, "newyear-2026", models.ChannelSMS)
	require.NoError(t, err)
	assert.True(t, sent)

	otherChannel, err := HasSentEntry(database, contact.ID, "newyear-2026", models.ChannelEmail)
	require.NoError(t, err)
	assert.False(t, otherChannel)

	otherEvent, err := HasSentEntry(database, contact.ID, "diwali-2026", models.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, otherEvent)
}

func TestLedgerIsAppendOnly(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Eve", Category: models.CategoryOther}
	require.NoError(t, CreateContact(database, contact))

	for i := 0; i < 3; i++ {
		require.NoError(t, AppendEntry(database, &models.InteractionEntry{
			ContactID: contact.ID, Kind: models.EntryReviewed,
		}))
	}

	before, err := CountEntries(database, contact.ID)
	require.NoError(t, err)

	// More appends only ever grow the ledger.
	require.NoError(t, AppendEntry(database, &models.InteractionEntry{
		ContactID: contact.ID, Kind: models.EntryManualFollowup,
	}))

	after, err := CountEntries(database, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestAppendRejectsUnknownKind(t *testing.T) {
	database := setupTestDB(t)

	contact := &models.Contact{Name: "Frank", Category: models.CategoryOther}
	require.NoError(t, CreateContact(database, contact))

	err := AppendEntry(database, &models.InteractionEntry{
		ContactID: contact.ID,
		Kind:      models.EntryKind("vibed"),
	})
	assert.Error(t, err)

	_, err = Last(database, uuid.New(), models.EntryReviewed)
	assert.NoError(t, err)
}
