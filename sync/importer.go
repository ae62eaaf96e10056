// ABOUTME: Reconciles match results into the persistent contact store
// ABOUTME: Upserts identity clusters; source ids and field sets only ever grow
package sync

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/normalize"
)

// Importer folds matcher output into the contact store. An identity cluster
// maps onto one stored contact; re-importing the same results is a no-op.
type Importer struct {
	db *sql.DB
}

func NewImporter(database *sql.DB) *Importer {
	return &Importer{db: database}
}

type ImportStats struct {
	Created   int
	Updated   int
	Ambiguous int
}

// ImportResults upserts one contact per match result that carries any
// identity. Pure None results with no usable name are skipped (there is
// nothing to key an identity on). A result whose email maps to more than
// one stored contact is left out of the store entirely and flagged for
// manual review; merging on a guess would corrupt both clusters.
func (im *Importer) ImportResults(results []models.MatchResult) (ImportStats, error) {
	var stats ImportStats

	for i := range results {
		created, updated, ambiguous, err := im.importResult(&results[i])
		if err != nil {
			return stats, fmt.Errorf("failed to import %q: %w", results[i].DisplayName(), err)
		}
		if created {
			stats.Created++
		}
		if updated {
			stats.Updated++
		}
		if ambiguous {
			stats.Ambiguous++
		}
	}

	return stats, nil
}

func (im *Importer) importResult(result *models.MatchResult) (created, updated, ambiguous bool, err error) {
	existing, ambiguous, err := im.findExisting(result)
	if err != nil {
		return false, false, false, err
	}
	if ambiguous {
		result.ManualReview = true
		return false, false, true, nil
	}

	if existing == nil {
		contact := contactFromResult(result)
		if contact == nil {
			return false, false, false, nil
		}
		return true, false, false, db.CreateContact(im.db, contact)
	}

	if mergeResult(existing, result) {
		return false, true, false, db.UpdateContact(im.db, existing)
	}
	return false, false, false, nil
}

// findExisting looks the cluster up by source id first, then by exact
// email. An email shared by more than one stored contact is reported as
// ambiguous instead of picking one.
func (im *Importer) findExisting(result *models.MatchResult) (*models.Contact, bool, error) {
	for _, rec := range []*models.SourceRecord{result.A, result.B} {
		if rec == nil || rec.SourceID == "" {
			continue
		}
		contact, err := db.FindContactBySource(im.db, rec.Source, rec.SourceID)
		if err != nil {
			return nil, false, err
		}
		if contact != nil {
			return contact, false, nil
		}
	}

	for _, rec := range []*models.SourceRecord{result.A, result.B} {
		if rec == nil {
			continue
		}
		email := normalize.Email(rec.Email)
		if email == "" {
			continue
		}
		contacts, err := db.ContactsByEmail(im.db, email, 2)
		if err != nil {
			return nil, false, err
		}
		if len(contacts) > 1 {
			return nil, true, nil
		}
		if len(contacts) == 1 {
			return &contacts[0], false, nil
		}
	}

	return nil, false, nil
}

func contactFromResult(result *models.MatchResult) *models.Contact {
	contact := &models.Contact{Category: models.CategoryOther}
	if !mergeResult(contact, result) || contact.Name == "" {
		return nil
	}
	return contact
}

// mergeResult folds record fields into the contact, reporting whether
// anything changed. Fields are only ever added, never removed.
func mergeResult(contact *models.Contact, result *models.MatchResult) bool {
	changed := false

	for _, rec := range []*models.SourceRecord{result.A, result.B} {
		if rec == nil {
			continue
		}

		if contact.Name == "" && rec.Name != "" {
			contact.Name = rec.Name
			changed = true
		}
		if email := normalize.Email(rec.Email); email != "" && !contains(contact.Emails, email) {
			contact.Emails = append(contact.Emails, email)
			changed = true
		}
		if phone := normalize.Phone(rec.Phone); phone != "" && !contains(contact.Phones, phone) {
			contact.Phones = append(contact.Phones, phone)
			changed = true
		}
		if contact.Company == "" && rec.Company != "" {
			contact.Company = rec.Company
			changed = true
		}
		if rec.SourceID != "" && !contact.HasSourceID(rec.Source) {
			contact.AddSourceID(rec.Source, rec.SourceID)
			changed = true
		}
		// Source A is authoritative for the initial category only; later
		// changes go through the state machine.
		if rec.Source == models.SourceGoogle && rec.Category.Valid() &&
			contact.Category == models.CategoryOther && rec.Category != models.CategoryOther {
			contact.Category = rec.Category
			changed = true
		}
	}

	return changed
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
