package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/models"
)

type stubGenerator struct {
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, contact *models.Contact, eventID string, _ []models.InteractionEntry) (string, error) {
	g.calls++
	return fmt.Sprintf("Hi %s! Thinking of you for %s.", contact.Name, eventID), nil
}

type stubTransport struct {
	sends int
	err   error
}

func (t *stubTransport) Send(_ context.Context, _ *models.Contact, _ *models.MessageDraft) error {
	t.sends++
	return t.err
}

func newTestCoordinator(t *testing.T, policy models.ExecutionPolicy) (*Coordinator, *stubGenerator, *stubTransport, *models.Contact) {
	t.Helper()
	database := setupTestDB(t)
	gen := &stubGenerator{}
	transport := &stubTransport{}

	coord := NewCoordinator(database, gen, policy)
	coord.RegisterTransport(models.ChannelSMS, transport)

	contact := &models.Contact{
		Name:     "Alice Johnson",
		Phones:   []string{"+1 (312) 555-0123"},
		Category: models.CategoryProfessionalActive,
	}
	require.NoError(t, db.CreateContact(database, contact))

	return coord, gen, transport, contact
}

func TestGeneratePersistsDraftAndLedger(t *testing.T) {
	coord, gen, _, contact := newTestCoordinator(t, models.PolicyGenerateOnly)

	draft, err := coord.Generate(context.Background(), contact.ID, "newyear-2026", models.ChannelSMS)
	require.NoError(t, err)
	assert.Contains(t, draft.Body, "Alice Johnson")
	assert.False(t, draft.Approved)
	assert.False(t, draft.Sent)
	assert.Equal(t, 1, gen.calls)

	entry, err := db.Last(coord.db, contact.ID, models.EntryMessageGenerated)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "newyear-2026", entry.Payload[models.PayloadEventID])
}

func TestGenerateReusesExistingDraft(t *testing.T) {
	coord, gen, _, contact := newTestCoordinator(t, models.PolicyGenerateOnly)

	first, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	second, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, gen.calls, "generator should not run for an existing draft")
}

func TestAutonomousPolicyGoesAllTheWay(t *testing.T) {
	coord, _, transport, contact := newTestCoordinator(t, models.PolicyAutonomous)

	draft, err := coord.Run(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	assert.True(t, draft.Approved)
	assert.True(t, draft.Sent)
	assert.Equal(t, 1, transport.sends)

	sent, err := db.Last(coord.db, contact.ID, models.EntryMessageSent)
	require.NoError(t, err)
	require.NotNil(t, sent)
}

func TestReviewedPolicyStopsAtDrafted(t *testing.T) {
	coord, _, transport, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Run(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, draft.Approved)
	assert.False(t, draft.Sent)
	assert.Zero(t, transport.sends)
}

func TestSendRequiresApproval(t *testing.T) {
	coord, _, transport, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)

	err = coord.Send(context.Background(), draft.ID)
	require.ErrorIs(t, err, models.ErrNotApproved)
	assert.Zero(t, transport.sends)
}

func TestDoubleSendFailsWithAlreadySent(t *testing.T) {
	coord, _, transport, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	require.NoError(t, coord.Approve(draft.ID))
	require.NoError(t, coord.Send(context.Background(), draft.ID))

	before, err := db.CountEntries(coord.db, contact.ID)
	require.NoError(t, err)

	err = coord.Send(context.Background(), draft.ID)
	require.ErrorIs(t, err, models.ErrAlreadySent)
	assert.Equal(t, 1, transport.sends, "transport must not be invoked twice")

	// No duplicate ledger entry either.
	after, err := db.CountEntries(coord.db, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestNonDomesticPhoneNeverReachesTransport(t *testing.T) {
	coord, _, transport, _ := newTestCoordinator(t, models.PolicyAutonomous)

	ukContact := &models.Contact{
		Name:     "Nigel",
		Phones:   []string{"+44 7700 900123"},
		Category: models.CategoryFriendActive,
	}
	require.NoError(t, db.CreateContact(coord.db, ukContact))

	draft, err := coord.Run(context.Background(), ukContact.ID, "ev", models.ChannelSMS)
	require.ErrorIs(t, err, models.ErrIneligibleChannel)
	assert.Zero(t, transport.sends)

	// Draft stays approved but unsent: a terminal state for a human.
	got, err := db.GetDraft(coord.db, draft.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.False(t, got.Sent)

	flag, err := db.Last(coord.db, ukContact.ID, models.EntryManualFollowup)
	require.NoError(t, err)
	require.NotNil(t, flag)

	// A retry flags exactly once.
	err = coord.Send(context.Background(), draft.ID)
	require.ErrorIs(t, err, models.ErrIneligibleChannel)

	history, err := db.History(coord.db, ukContact.ID)
	require.NoError(t, err)
	flags := 0
	for _, e := range history {
		if e.Kind == models.EntryManualFollowup {
			flags++
		}
	}
	assert.Equal(t, 1, flags)
}

func TestTransportFailureFlagsManualFollowup(t *testing.T) {
	coord, _, transport, contact := newTestCoordinator(t, models.PolicyReviewed)
	transport.err = errors.New("messages web unreachable")

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	require.NoError(t, coord.Approve(draft.ID))

	err = coord.Send(context.Background(), draft.ID)
	require.Error(t, err)

	// Never marked sent without positive confirmation.
	got, err := db.GetDraft(coord.db, draft.ID)
	require.NoError(t, err)
	assert.False(t, got.Sent)

	flag, err := db.Last(coord.db, contact.ID, models.EntryManualFollowup)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Contains(t, flag.Payload[models.PayloadReason], "unreachable")
}

func TestDiscardedDraftCannotBeSent(t *testing.T) {
	coord, _, transport, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	require.NoError(t, coord.Discard(draft.ID))

	err = coord.Approve(draft.ID)
	require.ErrorIs(t, err, models.ErrDraftDiscarded)

	err = coord.Send(context.Background(), draft.ID)
	require.ErrorIs(t, err, models.ErrDraftDiscarded)
	assert.Zero(t, transport.sends)
}

func TestApprovedDraftCannotBeDiscarded(t *testing.T) {
	coord, _, _, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	require.NoError(t, coord.Approve(draft.ID))

	err = coord.Discard(draft.ID)
	require.ErrorIs(t, err, models.ErrAlreadyApproved)

	got, err := db.GetDraft(coord.db, draft.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.False(t, got.Discarded)
}

func TestApproveIsIdempotent(t *testing.T) {
	coord, _, _, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)
	require.NoError(t, coord.Approve(draft.ID))
	require.NoError(t, coord.Approve(draft.ID))

	history, err := db.History(coord.db, contact.ID)
	require.NoError(t, err)
	approvals := 0
	for _, e := range history {
		if e.Kind == models.EntryMessageApproved {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)
}

func TestHistoryNeverShrinksAcrossARun(t *testing.T) {
	coord, _, _, contact := newTestCoordinator(t, models.PolicyAutonomous)

	before, err := db.CountEntries(coord.db, contact.ID)
	require.NoError(t, err)

	_, err = coord.Run(context.Background(), contact.ID, "ev", models.ChannelSMS)
	require.NoError(t, err)

	after, err := db.CountEntries(coord.db, contact.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after, before)
}

func TestMissingTransport(t *testing.T) {
	coord, _, _, contact := newTestCoordinator(t, models.PolicyReviewed)

	draft, err := coord.Generate(context.Background(), contact.ID, "ev", models.ChannelEmail)
	require.NoError(t, err)
	require.NoError(t, coord.Approve(draft.ID))

	err = coord.Send(context.Background(), draft.ID)
	assert.Error(t, err)
}
