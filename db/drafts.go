// ABOUTME: Message draft store operations
// ABOUTME: Drafts are keyed by (contact, event, channel); approved/sent flags are monotonic
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/nudge/models"
)

const draftColumns = `id, contact_id, event_id, channel, body, generated_at, approved, approved_at, sent, sent_at, discarded`

func CreateDraft(q DBTX, draft *models.MessageDraft) error {
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	if draft.GeneratedAt.IsZero() {
		draft.GeneratedAt = time.Now().UTC()
	}

	_, err := q.Exec(`
		INSERT INTO drafts (`+draftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, draft.ID.String(), draft.ContactID.String(), draft.EventID, string(draft.Channel),
		draft.Body, draft.GeneratedAt, draft.Approved, draft.ApprovedAt,
		draft.Sent, draft.SentAt, draft.Discarded)

	return err
}

func GetDraft(q DBTX, id uuid.UUID) (*models.MessageDraft, error) {
	row := q.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id.String())
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return draft, err
}

// GetDraftByKey looks up the draft for a (contact, event, channel) triple.
func GetDraftByKey(q DBTX, contactID uuid.UUID, eventID string, channel models.Channel) (*models.MessageDraft, error) {
	row := q.QueryRow(`
		SELECT `+draftColumns+` FROM drafts
		WHERE contact_id = ? AND event_id = ? AND channel = ?
	`, contactID.String(), eventID, string(channel))
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return draft, err
}

func ListDraftsByEvent(q DBTX, eventID string) ([]models.MessageDraft, error) {
	rows, err := q.Query(`
		SELECT `+draftColumns+` FROM drafts
		WHERE event_id = ? ORDER BY generated_at, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanDrafts(rows)
}

// ListPendingDrafts returns drafts awaiting review for an event: generated,
// not yet approved, not discarded.
func ListPendingDrafts(q DBTX, eventID string) ([]models.MessageDraft, error) {
	rows, err := q.Query(`
		SELECT `+draftColumns+` FROM drafts
		WHERE event_id = ? AND approved = 0 AND discarded = 0
		ORDER BY generated_at, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanDrafts(rows)
}

// MarkDraftApproved flips approved to true. Approving an already approved
// draft is a no-op; a discarded draft cannot be approved.
func MarkDraftApproved(q DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(`
		UPDATE drafts SET approved = 1, approved_at = COALESCE(approved_at, ?)
		WHERE id = ? AND discarded = 0
	`, at, id.String())
	return err
}

// MarkDraftSent flips sent to true. Never reversed.
func MarkDraftSent(q DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(`
		UPDATE drafts SET sent = 1, sent_at = COALESCE(sent_at, ?)
		WHERE id = ?
	`, at, id.String())
	return err
}

// MarkDraftDiscarded discards an unsent, unapproved draft. Approved and
// sent rows are left untouched.
func MarkDraftDiscarded(q DBTX, id uuid.UUID) error {
	_, err := q.Exec(`
		UPDATE drafts SET discarded = 1
		WHERE id = ? AND sent = 0 AND approved = 0
	`, id.String())
	return err
}

// EventSummary aggregates draft counts for one event.
type EventSummary struct {
	EventID   string
	Total     int
	Approved  int
	Sent      int
	Discarded int
	ByChannel map[models.Channel]int
}

func SummarizeEvent(q DBTX, eventID string) (*EventSummary, error) {
	drafts, err := ListDraftsByEvent(q, eventID)
	if err != nil {
		return nil, err
	}

	summary := &EventSummary{
		EventID:   eventID,
		ByChannel: make(map[models.Channel]int),
	}
	for _, d := range drafts {
		summary.Total++
		if d.Approved {
			summary.Approved++
		}
		if d.Sent {
			summary.Sent++
		}
		if d.Discarded {
			summary.Discarded++
		}
		summary.ByChannel[d.Channel]++
	}
	return summary, nil
}

func scanDraft(row rowScanner) (*models.MessageDraft, error) {
	draft := &models.MessageDraft{}
	var idStr, contactIDStr string

	err := row.Scan(&idStr, &contactIDStr, &draft.EventID, &draft.Channel,
		&draft.Body, &draft.GeneratedAt, &draft.Approved, &draft.ApprovedAt,
		&draft.Sent, &draft.SentAt, &draft.Discarded)
	if err != nil {
		return nil, err
	}

	draft.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft ID: %w", err)
	}
	draft.ContactID, err = uuid.Parse(contactIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contact ID: %w", err)
	}

	return draft, nil
}

func scanDrafts(rows *sql.Rows) ([]models.MessageDraft, error) {
	var drafts []models.MessageDraft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}
