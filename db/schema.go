// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	emails TEXT NOT NULL DEFAULT '[]',
	phones TEXT NOT NULL DEFAULT '[]',
	company TEXT,
	category TEXT NOT NULL,
	source_ids TEXT NOT NULL DEFAULT '{}',
	notes TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);
CREATE INDEX IF NOT EXISTS idx_contacts_category ON contacts(category);

CREATE TABLE IF NOT EXISTS ledger (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN (
		'reviewed', 'message_generated', 'message_approved',
		'message_sent', 'category_changed', 'manual_followup_flagged'
	)),
	payload TEXT NOT NULL DEFAULT '{}',
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);

CREATE INDEX IF NOT EXISTS idx_ledger_contact ON ledger(contact_id, id);
CREATE INDEX IF NOT EXISTS idx_ledger_kind ON ledger(contact_id, kind, id);

CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	event_id TEXT NOT NULL,
	channel TEXT NOT NULL,
	body TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	approved INTEGER NOT NULL DEFAULT 0,
	approved_at DATETIME,
	sent INTEGER NOT NULL DEFAULT 0,
	sent_at DATETIME,
	discarded INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (contact_id) REFERENCES contacts(id),
	UNIQUE(contact_id, event_id, channel)
);

CREATE INDEX IF NOT EXISTS idx_drafts_event ON drafts(event_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
