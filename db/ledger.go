// ABOUTME: Append-only interaction ledger store
// ABOUTME: ULID-keyed entries; appends are durable before returning
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/nudge/models"
)

// AppendEntry persists one ledger entry. The id (a ULID) and timestamp are
// assigned here when unset. Entries are never updated or deleted.
func AppendEntry(q DBTX, entry *models.InteractionEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = ulid.MustNew(ulid.Timestamp(entry.Timestamp), ulid.DefaultEntropy()).String()
	}

	payload := entry.Payload
	if payload == nil {
		payload = map[string]string{}
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	_, err = q.Exec(`
		INSERT INTO ledger (id, contact_id, timestamp, kind, payload)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.ContactID.String(), entry.Timestamp, string(entry.Kind), string(pb))

	return err
}

// History returns all entries for a contact, oldest first.
func History(q DBTX, contactID uuid.UUID) ([]models.InteractionEntry, error) {
	return HistoryPage(q, contactID, "", 0)
}

// HistoryPage reads entries for a contact after a given entry id, oldest
// first. An empty afterID starts from the beginning; limit <= 0 means no
// limit. Because ids are ULIDs the cursor restarts cleanly.
func HistoryPage(q DBTX, contactID uuid.UUID, afterID string, limit int) ([]models.InteractionEntry, error) {
	query := `
		SELECT id, contact_id, timestamp, kind, payload
		FROM ledger WHERE contact_id = ? AND id > ?
		ORDER BY id ASC
	`
	args := []any{contactID.String(), afterID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.InteractionEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Last returns the most recent entry of a given kind for a contact, or nil.
func Last(q DBTX, contactID uuid.UUID, kind models.EntryKind) (*models.InteractionEntry, error) {
	row := q.QueryRow(`
		SELECT id, contact_id, timestamp, kind, payload
		FROM ledger WHERE contact_id = ? AND kind = ?
		ORDER BY id DESC LIMIT 1
	`, contactID.String(), string(kind))

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// HasSentEntry reports whether a message_sent entry already exists for the
// given event and channel. A second send for the same draft is blocked on
// this.
func HasSentEntry(q DBTX, contactID uuid.UUID, eventID string, channel models.Channel) (bool, error) {
	var count int
	err := q.QueryRow(`
		SELECT COUNT(*) FROM ledger
		WHERE contact_id = ? AND kind = 'message_sent'
		  AND json_extract(payload, '$.event_id') = ?
		  AND json_extract(payload, '$.channel') = ?
	`, contactID.String(), eventID, string(channel)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountEntries returns the total number of ledger entries for a contact.
func CountEntries(q DBTX, contactID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM ledger WHERE contact_id = ?`,
		contactID.String()).Scan(&count)
	return count, err
}

func scanEntry(row rowScanner) (*models.InteractionEntry, error) {
	entry := &models.InteractionEntry{}
	var contactIDStr, payload string

	err := row.Scan(&entry.ID, &contactIDStr, &entry.Timestamp, &entry.Kind, &payload)
	if err != nil {
		return nil, err
	}

	entry.ContactID, err = uuid.Parse(contactIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contact ID: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	return entry, nil
}
