// ABOUTME: Contact store operations
// ABOUTME: Handles contact CRUD with JSON-encoded email/phone/source-id sets
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/nudge/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so store operations can run
// standalone or inside a transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const contactColumns = `id, name, emails, phones, company, category, source_ids, notes, created_at, updated_at`

func CreateContact(q DBTX, contact *models.Contact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	emails, phones, sourceIDs, notes, err := encodeContactFields(contact)
	if err != nil {
		return err
	}

	_, err = q.Exec(`
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.Name, emails, phones, contact.Company,
		string(contact.Category), sourceIDs, notes, contact.CreatedAt, contact.UpdatedAt)

	return err
}

func GetContact(q DBTX, id uuid.UUID) (*models.Contact, error) {
	row := q.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id.String())
	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return contact, err
}

// FindContactBySource looks a contact up by the id a source system knows it
// under.
func FindContactBySource(q DBTX, source, sourceID string) (*models.Contact, error) {
	row := q.QueryRow(`
		SELECT `+contactColumns+` FROM contacts
		WHERE json_extract(source_ids, '$.' || ?) = ?
	`, source, sourceID)
	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return contact, err
}

// AllContacts returns the full contact store ordered by name.
// ContactsByEmail returns every contact whose email set contains the
// given address exactly. Callers normalize before looking up; substring
// hits (a@x.com inside ma@x.com) never match.
func ContactsByEmail(q DBTX, email string, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.Query(`
		SELECT `+contactColumns+` FROM contacts
		WHERE EXISTS (
			SELECT 1 FROM json_each(contacts.emails) WHERE json_each.value = ?
		)
		ORDER BY name LIMIT ?
	`, email, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

func AllContacts(q DBTX) ([]models.Contact, error) {
	rows, err := q.Query(`SELECT ` + contactColumns + ` FROM contacts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

// ContactsByCategory returns every contact in one category.
func ContactsByCategory(q DBTX, category models.Category) ([]models.Contact, error) {
	rows, err := q.Query(`
		SELECT `+contactColumns+` FROM contacts WHERE category = ? ORDER BY name
	`, string(category))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

// FindContacts searches by name or email substring, optionally filtered by
// category.
func FindContacts(q DBTX, query string, category models.Category, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	switch {
	case category != "" && query != "":
		pattern := "%" + strings.ToLower(query) + "%"
		rows, err = q.Query(`
			SELECT `+contactColumns+` FROM contacts
			WHERE category = ? AND (LOWER(name) LIKE ? OR LOWER(emails) LIKE ?)
			ORDER BY name LIMIT ?
		`, string(category), pattern, pattern, limit)
	case category != "":
		rows, err = q.Query(`
			SELECT `+contactColumns+` FROM contacts
			WHERE category = ? ORDER BY name LIMIT ?
		`, string(category), limit)
	case query != "":
		pattern := "%" + strings.ToLower(query) + "%"
		rows, err = q.Query(`
			SELECT `+contactColumns+` FROM contacts
			WHERE LOWER(name) LIKE ? OR LOWER(emails) LIKE ?
			ORDER BY name LIMIT ?
		`, pattern, pattern, limit)
	default:
		rows, err = q.Query(`
			SELECT `+contactColumns+` FROM contacts ORDER BY name LIMIT ?
		`, limit)
	}

	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

// UpdateContact persists every mutable contact field.
func UpdateContact(q DBTX, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	emails, phones, sourceIDs, notes, err := encodeContactFields(contact)
	if err != nil {
		return err
	}

	_, err = q.Exec(`
		UPDATE contacts
		SET name = ?, emails = ?, phones = ?, company = ?, category = ?,
		    source_ids = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, contact.Name, emails, phones, contact.Company, string(contact.Category),
		sourceIDs, notes, contact.UpdatedAt, contact.ID.String())

	return err
}

// SetContactCategory updates only the category column. The category state
// machine calls this inside the same transaction as its ledger append.
func SetContactCategory(q DBTX, id uuid.UUID, category models.Category) error {
	res, err := q.Exec(`
		UPDATE contacts SET category = ?, updated_at = ? WHERE id = ?
	`, string(category), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("contact %s not found", id)
	}
	return nil
}

// AppendContactNote adds a dated note to the contact's note list.
func AppendContactNote(q DBTX, id uuid.UUID, note models.Note) error {
	contact, err := GetContact(q, id)
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("contact %s not found", id)
	}
	contact.Notes = append(contact.Notes, note)
	return UpdateContact(q, contact)
}

// OldestReviewedContacts returns contacts ordered for cleanup review:
// never-reviewed contacts first, then by least-recent reviewed entry.
func OldestReviewedContacts(q DBTX, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.Query(`
		SELECT c.id, c.name, c.emails, c.phones, c.company, c.category,
		       c.source_ids, c.notes, c.created_at, c.updated_at
		FROM contacts c
		LEFT JOIN ledger l ON l.contact_id = c.id AND l.kind = 'reviewed'
		GROUP BY c.id
		ORDER BY MAX(l.id) IS NOT NULL, MAX(l.id) ASC, c.name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	contact := &models.Contact{}
	var idStr, emails, phones, sourceIDs, notes string
	var company sql.NullString

	err := row.Scan(&idStr, &contact.Name, &emails, &phones, &company,
		&contact.Category, &sourceIDs, &notes, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, err
	}

	contact.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contact ID: %w", err)
	}
	contact.Company = company.String

	if err := json.Unmarshal([]byte(emails), &contact.Emails); err != nil {
		return nil, fmt.Errorf("failed to decode emails: %w", err)
	}
	if err := json.Unmarshal([]byte(phones), &contact.Phones); err != nil {
		return nil, fmt.Errorf("failed to decode phones: %w", err)
	}
	if err := json.Unmarshal([]byte(sourceIDs), &contact.SourceIDs); err != nil {
		return nil, fmt.Errorf("failed to decode source ids: %w", err)
	}
	if err := json.Unmarshal([]byte(notes), &contact.Notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}

	return contact, nil
}

func scanContacts(rows *sql.Rows) ([]models.Contact, error) {
	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func encodeContactFields(c *models.Contact) (emails, phones, sourceIDs, notes string, err error) {
	eb, err := json.Marshal(emptySlice(c.Emails))
	if err != nil {
		return "", "", "", "", err
	}
	pb, err := json.Marshal(emptySlice(c.Phones))
	if err != nil {
		return "", "", "", "", err
	}
	sids := c.SourceIDs
	if sids == nil {
		sids = map[string]string{}
	}
	sb, err := json.Marshal(sids)
	if err != nil {
		return "", "", "", "", err
	}
	ns := c.Notes
	if ns == nil {
		ns = []models.Note{}
	}
	nb, err := json.Marshal(ns)
	if err != nil {
		return "", "", "", "", err
	}
	return string(eb), string(pb), string(sb), string(nb), nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
