// ABOUTME: Data models for contacts, matching, the interaction ledger, and drafts
// ABOUTME: Defines Contact, SourceRecord, MatchResult, InteractionEntry, MessageDraft
package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact source identifiers.
const (
	SourceGoogle   = "google"
	SourceLinkedIn = "linkedin"
)

// Note is a dated free-text annotation on a contact.
type Note struct {
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

// Contact is the identity-bearing record the engine maintains. SourceIDs
// grows monotonically: once a source system knows this person, its id is
// never dropped.
type Contact struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Emails    []string          `json:"emails,omitempty"`
	Phones    []string          `json:"phones,omitempty"`
	Company   string            `json:"company,omitempty"`
	Category  Category          `json:"category"`
	SourceIDs map[string]string `json:"source_ids,omitempty"`
	Notes     []Note            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// HasSourceID reports whether a source system already knows this contact.
func (c *Contact) HasSourceID(source string) bool {
	_, ok := c.SourceIDs[source]
	return ok
}

// AddSourceID records a source system id. Existing ids are never replaced.
func (c *Contact) AddSourceID(source, id string) {
	if c.SourceIDs == nil {
		c.SourceIDs = make(map[string]string)
	}
	if _, ok := c.SourceIDs[source]; !ok {
		c.SourceIDs[source] = id
	}
}

// PrimaryEmail returns the first email, or "".
func (c *Contact) PrimaryEmail() string {
	if len(c.Emails) > 0 {
		return c.Emails[0]
	}
	return ""
}

// PrimaryPhone returns the first phone, or "".
func (c *Contact) PrimaryPhone() string {
	if len(c.Phones) > 0 {
		return c.Phones[0]
	}
	return ""
}

// SourceRecord is a single contact record as read from one source system,
// before identity resolution.
type SourceRecord struct {
	Source   string   `json:"source"`
	SourceID string   `json:"source_id,omitempty"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Company  string   `json:"company,omitempty"`
	Role     string   `json:"role,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Category Category `json:"category,omitempty"`
}

// MatchConfidence grades how certain a cross-source match is.
type MatchConfidence string

const (
	ConfidenceHigh   MatchConfidence = "High"
	ConfidenceMedium MatchConfidence = "Medium"
	ConfidenceNone   MatchConfidence = "None"
)

// MatchResult pairs zero-or-one record from each source. Every input record
// appears in exactly one result; unmatched records get ConfidenceNone with
// the other side nil.
type MatchResult struct {
	A            *SourceRecord   `json:"a,omitempty"`
	B            *SourceRecord   `json:"b,omitempty"`
	Confidence   MatchConfidence `json:"confidence"`
	Reason       string          `json:"reason,omitempty"`
	ManualReview bool            `json:"manual_review,omitempty"`
}

// DisplayName returns the best display name across both sides.
func (m *MatchResult) DisplayName() string {
	if m.A != nil && m.A.Name != "" {
		return m.A.Name
	}
	if m.B != nil {
		return m.B.Name
	}
	return ""
}

// EntryKind enumerates interaction ledger entry kinds.
type EntryKind string

const (
	EntryReviewed         EntryKind = "reviewed"
	EntryMessageGenerated EntryKind = "message_generated"
	EntryMessageApproved  EntryKind = "message_approved"
	EntryMessageSent      EntryKind = "message_sent"
	EntryCategoryChanged  EntryKind = "category_changed"
	EntryManualFollowup   EntryKind = "manual_followup_flagged"
)

// InteractionEntry is one immutable row of a contact's audit trail. IDs are
// ULIDs, so lexicographic order is creation order.
type InteractionEntry struct {
	ID        string            `json:"id"`
	ContactID uuid.UUID         `json:"contact_id"`
	Timestamp time.Time         `json:"timestamp"`
	Kind      EntryKind         `json:"kind"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// Payload keys used by the lifecycle engine.
const (
	PayloadFrom     = "from"
	PayloadTo       = "to"
	PayloadNote     = "note"
	PayloadOverride = "override"
	PayloadEventID  = "event_id"
	PayloadChannel  = "channel"
	PayloadReason   = "reason"
)

// Channel is an outreach channel for a generated message.
type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelLinkedIn Channel = "LinkedIn"
	ChannelEmail    Channel = "Email"
)

// MessageDraft is a generated outreach message keyed by
// (contact, event, channel). Approved and Sent only ever flip false to true.
type MessageDraft struct {
	ID          uuid.UUID  `json:"id"`
	ContactID   uuid.UUID  `json:"contact_id"`
	EventID     string     `json:"event_id"`
	Channel     Channel    `json:"channel"`
	Body        string     `json:"body"`
	GeneratedAt time.Time  `json:"generated_at"`
	Approved    bool       `json:"approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	Sent        bool       `json:"sent"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	Discarded   bool       `json:"discarded"`
}

// ExecutionPolicy selects how far the coordinator advances a draft on its own.
type ExecutionPolicy string

const (
	PolicyGenerateOnly ExecutionPolicy = "generate-only"
	PolicyReviewed     ExecutionPolicy = "reviewed"
	PolicyAutonomous   ExecutionPolicy = "autonomous"
)

// ParsePolicy validates a policy flag value.
func ParsePolicy(s string) (ExecutionPolicy, bool) {
	switch ExecutionPolicy(s) {
	case PolicyGenerateOnly, PolicyReviewed, PolicyAutonomous:
		return ExecutionPolicy(s), true
	}
	return "", false
}
