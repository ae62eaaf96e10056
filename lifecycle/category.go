// ABOUTME: Category state machine for relationship transitions
// ABOUTME: Sole owner of category mutations; every transition lands in the ledger
package lifecycle

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/models"
)

// StateMachine governs legal transitions between relationship categories.
// Transitions within a category group are automatic; crossing groups needs
// an explicit override. The contact update and the ledger append commit in
// one transaction.
type StateMachine struct {
	db *sql.DB
}

func NewStateMachine(database *sql.DB) *StateMachine {
	return &StateMachine{db: database}
}

// RequestTransition moves a contact to target without override authority.
// Requesting the current category is an idempotent no-op that still records
// a reviewed entry; a cross-group target fails with ErrInvalidTransition
// and leaves the contact untouched.
func (s *StateMachine) RequestTransition(contactID uuid.UUID, target models.Category, note string, effectiveDate time.Time) error {
	return s.transition(contactID, target, note, effectiveDate, false)
}

// Override moves a contact to any valid category, recording the transition
// with override=true.
func (s *StateMachine) Override(contactID uuid.UUID, target models.Category, note string, effectiveDate time.Time) error {
	return s.transition(contactID, target, note, effectiveDate, true)
}

func (s *StateMachine) transition(contactID uuid.UUID, target models.Category, note string, effectiveDate time.Time, override bool) error {
	if !target.Valid() {
		return fmt.Errorf("unknown category %q", target)
	}
	if effectiveDate.IsZero() {
		effectiveDate = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	contact, err := db.GetContact(tx, contactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("contact %s not found", contactID)
	}

	if contact.Category == target {
		// Confirmed unchanged: record the review, touch nothing else.
		err = db.AppendEntry(tx, &models.InteractionEntry{
			ContactID: contactID,
			Timestamp: effectiveDate,
			Kind:      models.EntryReviewed,
			Payload: map[string]string{
				models.PayloadFrom: string(contact.Category),
				models.PayloadTo:   string(target),
				models.PayloadNote: note,
			},
		})
		if err != nil {
			return err
		}
		return tx.Commit()
	}

	if !override && !contact.Category.SameGroup(target) {
		return fmt.Errorf("%s -> %s: %w", contact.Category, target, models.ErrInvalidTransition)
	}

	if err := db.SetContactCategory(tx, contactID, target); err != nil {
		return err
	}
	if note != "" {
		if err := db.AppendContactNote(tx, contactID, models.Note{Date: effectiveDate, Text: note}); err != nil {
			return err
		}
	}
	err = db.AppendEntry(tx, &models.InteractionEntry{
		ContactID: contactID,
		Timestamp: effectiveDate,
		Kind:      models.EntryCategoryChanged,
		Payload: map[string]string{
			models.PayloadFrom:     string(contact.Category),
			models.PayloadTo:       string(target),
			models.PayloadNote:     note,
			models.PayloadOverride: strconv.FormatBool(override),
		},
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}
