// ABOUTME: Message lifecycle coordinator sequencing generate, approval, and send
// ABOUTME: Owns neither the ledger nor categories; issues append and update requests
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/normalize"
)

// Generator produces drafted message text for a contact and event. The
// coordinator treats it as an opaque text source.
type Generator interface {
	Generate(ctx context.Context, contact *models.Contact, eventID string, history []models.InteractionEntry) (string, error)
}

// Transport delivers an approved draft. A nil return is the definitive
// success signal; any error is a definitive failure. Retries, if any,
// happen inside the transport.
type Transport interface {
	Send(ctx context.Context, contact *models.Contact, draft *models.MessageDraft) error
}

// Coordinator drives drafts through Drafted -> Approved -> Sent (or
// Drafted -> Discarded) under one of the execution policies.
type Coordinator struct {
	db         *sql.DB
	generator  Generator
	transports map[models.Channel]Transport
	policy     models.ExecutionPolicy
}

func NewCoordinator(database *sql.DB, generator Generator, policy models.ExecutionPolicy) *Coordinator {
	return &Coordinator{
		db:         database,
		generator:  generator,
		transports: make(map[models.Channel]Transport),
		policy:     policy,
	}
}

// RegisterTransport wires a delivery channel.
func (c *Coordinator) RegisterTransport(channel models.Channel, transport Transport) {
	c.transports[channel] = transport
}

// Policy returns the active execution policy.
func (c *Coordinator) Policy() models.ExecutionPolicy {
	return c.policy
}

// Generate drafts a message for a contact and event. If a draft already
// exists for the (contact, event, channel) key it is returned as is; the
// ledger records message_generated only for fresh drafts.
func (c *Coordinator) Generate(ctx context.Context, contactID uuid.UUID, eventID string, channel models.Channel) (*models.MessageDraft, error) {
	contact, err := db.GetContact(c.db, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, fmt.Errorf("contact %s not found", contactID)
	}

	existing, err := db.GetDraftByKey(c.db, contactID, eventID, channel)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	history, err := db.History(c.db, contactID)
	if err != nil {
		return nil, err
	}

	body, err := c.generator.Generate(ctx, contact, eventID, history)
	if err != nil {
		return nil, fmt.Errorf("message generation failed: %w", err)
	}

	draft := &models.MessageDraft{
		ContactID: contactID,
		EventID:   eventID,
		Channel:   channel,
		Body:      body,
	}

	tx, err := c.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.CreateDraft(tx, draft); err != nil {
		return nil, err
	}
	err = db.AppendEntry(tx, &models.InteractionEntry{
		ContactID: contactID,
		Kind:      models.EntryMessageGenerated,
		Payload: map[string]string{
			models.PayloadEventID: eventID,
			models.PayloadChannel: string(channel),
		},
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return draft, nil
}

// Approve flips a draft to approved and records it. Approving twice is a
// no-op; a discarded draft cannot be approved.
func (c *Coordinator) Approve(draftID uuid.UUID) error {
	draft, err := db.GetDraft(c.db, draftID)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("draft %s not found", draftID)
	}
	if draft.Discarded {
		return models.ErrDraftDiscarded
	}
	if draft.Approved {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.MarkDraftApproved(tx, draftID, time.Now().UTC()); err != nil {
		return err
	}
	err = db.AppendEntry(tx, &models.InteractionEntry{
		ContactID: draft.ContactID,
		Kind:      models.EntryMessageApproved,
		Payload: map[string]string{
			models.PayloadEventID: draft.EventID,
			models.PayloadChannel: string(draft.Channel),
		},
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Discard skips a draft during review. Only unapproved, unsent drafts
// can be discarded; an approved draft has left review.
func (c *Coordinator) Discard(draftID uuid.UUID) error {
	draft, err := db.GetDraft(c.db, draftID)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("draft %s not found", draftID)
	}
	if draft.Sent {
		return models.ErrAlreadySent
	}
	if draft.Approved {
		return models.ErrAlreadyApproved
	}
	return db.MarkDraftDiscarded(c.db, draftID)
}

// Send delivers an approved draft through its channel transport. The draft
// is marked sent only after the transport confirms delivery; a definitive
// transport failure or an ineligible channel routes to a manual-followup
// flag instead of failing hard.
func (c *Coordinator) Send(ctx context.Context, draftID uuid.UUID) error {
	draft, err := db.GetDraft(c.db, draftID)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("draft %s not found", draftID)
	}
	if draft.Discarded {
		return models.ErrDraftDiscarded
	}
	if draft.Sent {
		return models.ErrAlreadySent
	}
	if !draft.Approved {
		return models.ErrNotApproved
	}

	// Duplicate-send guard on the ledger itself, in case the draft flag and
	// the ledger ever disagree.
	sent, err := db.HasSentEntry(c.db, draft.ContactID, draft.EventID, draft.Channel)
	if err != nil {
		return err
	}
	if sent {
		return models.ErrAlreadySent
	}

	contact, err := db.GetContact(c.db, draft.ContactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("contact %s not found", draft.ContactID)
	}

	if draft.Channel == models.ChannelSMS && !hasDomesticPhone(contact) {
		// Terminal state, not a retryable failure: the draft stays approved
		// and unsent, and a human takes over.
		if err := c.flagOnce(contact.ID, draft, "phone not eligible for SMS"); err != nil {
			return err
		}
		return models.ErrIneligibleChannel
	}

	transport, ok := c.transports[draft.Channel]
	if !ok {
		return fmt.Errorf("no transport registered for channel %s", draft.Channel)
	}

	if err := transport.Send(ctx, contact, draft); err != nil {
		// Definitive failure (or cancellation before confirmation): never
		// mark sent, flag for a human instead of dropping the draft.
		if flagErr := c.flagOnce(contact.ID, draft, err.Error()); flagErr != nil {
			return flagErr
		}
		return fmt.Errorf("send failed: %w", err)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.MarkDraftSent(tx, draftID, time.Now().UTC()); err != nil {
		return err
	}
	err = db.AppendEntry(tx, &models.InteractionEntry{
		ContactID: draft.ContactID,
		Kind:      models.EntryMessageSent,
		Payload: map[string]string{
			models.PayloadEventID: draft.EventID,
			models.PayloadChannel: string(draft.Channel),
		},
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Run takes one contact through the active policy for an event: always
// generate, and under the autonomous policy continue through approval and
// send. The reviewed policy stops after generation for explicit review.
func (c *Coordinator) Run(ctx context.Context, contactID uuid.UUID, eventID string, channel models.Channel) (*models.MessageDraft, error) {
	draft, err := c.Generate(ctx, contactID, eventID, channel)
	if err != nil {
		return nil, err
	}

	if c.policy != models.PolicyAutonomous {
		return draft, nil
	}

	if err := c.Approve(draft.ID); err != nil {
		return draft, err
	}
	if err := c.Send(ctx, draft.ID); err != nil {
		return draft, err
	}
	return db.GetDraft(c.db, draft.ID)
}

// MarkReviewed records a cleanup review of a contact.
func (c *Coordinator) MarkReviewed(contactID uuid.UUID, note string) error {
	return db.AppendEntry(c.db, &models.InteractionEntry{
		ContactID: contactID,
		Kind:      models.EntryReviewed,
		Payload:   map[string]string{models.PayloadNote: note},
	})
}

// FlagManualFollowup records that automated handling is not possible for a
// contact.
func (c *Coordinator) FlagManualFollowup(contactID uuid.UUID, reason string) error {
	return db.AppendEntry(c.db, &models.InteractionEntry{
		ContactID: contactID,
		Kind:      models.EntryManualFollowup,
		Payload:   map[string]string{models.PayloadReason: reason},
	})
}

// flagOnce appends a manual-followup entry for a draft unless one already
// exists for the same event and channel.
func (c *Coordinator) flagOnce(contactID uuid.UUID, draft *models.MessageDraft, reason string) error {
	flagged, err := hasFollowupFlag(c.db, contactID, draft.EventID, draft.Channel)
	if err != nil {
		return err
	}
	if flagged {
		return nil
	}
	return db.AppendEntry(c.db, &models.InteractionEntry{
		ContactID: contactID,
		Kind:      models.EntryManualFollowup,
		Payload: map[string]string{
			models.PayloadEventID: draft.EventID,
			models.PayloadChannel: string(draft.Channel),
			models.PayloadReason:  reason,
		},
	})
}

func hasFollowupFlag(q db.DBTX, contactID uuid.UUID, eventID string, channel models.Channel) (bool, error) {
	var count int
	err := q.QueryRow(`
		SELECT COUNT(*) FROM ledger
		WHERE contact_id = ? AND kind = 'manual_followup_flagged'
		  AND json_extract(payload, '$.event_id') = ?
		  AND json_extract(payload, '$.channel') = ?
	`, contactID.String(), eventID, string(channel)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func hasDomesticPhone(contact *models.Contact) bool {
	for _, p := range contact.Phones {
		if normalize.IsDomestic(p) {
			return true
		}
	}
	return false
}
