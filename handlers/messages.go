// ABOUTME: Message lifecycle MCP tool handlers
// ABOUTME: Implements generate_message, approve_message, discard_message, send_message, flag_manual_followup, and event_summary tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/lifecycle"
	"github.com/harperreed/nudge/models"
)

type MessageHandlers struct {
	db          *sql.DB
	coordinator *lifecycle.Coordinator
}

func NewMessageHandlers(database *sql.DB, coordinator *lifecycle.Coordinator) *MessageHandlers {
	return &MessageHandlers{db: database, coordinator: coordinator}
}

type DraftOutput struct {
	ID          string `json:"id"`
	ContactID   string `json:"contact_id"`
	EventID     string `json:"event_id"`
	Channel     string `json:"channel"`
	Body        string `json:"body"`
	GeneratedAt string `json:"generated_at"`
	Approved    bool   `json:"approved"`
	Sent        bool   `json:"sent"`
	Discarded   bool   `json:"discarded"`
}

type GenerateMessageInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
	EventID   string `json:"event_id" jsonschema:"Event the outreach is for (required)"`
	Channel   string `json:"channel,omitempty" jsonschema:"Delivery channel: SMS, LinkedIn, or Email (default SMS)"`
}

func (h *MessageHandlers) GenerateMessage(ctx context.Context, request *mcp.CallToolRequest, input GenerateMessageInput) (*mcp.CallToolResult, DraftOutput, error) {
	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}
	if input.EventID == "" {
		return nil, DraftOutput{}, fmt.Errorf("event_id is required")
	}

	channel, err := parseChannel(input.Channel)
	if err != nil {
		return nil, DraftOutput{}, err
	}

	draft, err := h.coordinator.Generate(ctx, contactID, input.EventID, channel)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to generate message: %w", err)
	}
	return nil, draftToOutput(draft), nil
}

type DraftActionInput struct {
	DraftID string `json:"draft_id" jsonschema:"Draft ID (required)"`
}

func (h *MessageHandlers) ApproveMessage(_ context.Context, request *mcp.CallToolRequest, input DraftActionInput) (*mcp.CallToolResult, DraftOutput, error) {
	draftID, err := uuid.Parse(input.DraftID)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("invalid draft_id: %w", err)
	}
	if err := h.coordinator.Approve(draftID); err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to approve draft: %w", err)
	}
	return h.reloadDraft(draftID)
}

func (h *MessageHandlers) DiscardMessage(_ context.Context, request *mcp.CallToolRequest, input DraftActionInput) (*mcp.CallToolResult, DraftOutput, error) {
	draftID, err := uuid.Parse(input.DraftID)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("invalid draft_id: %w", err)
	}
	if err := h.coordinator.Discard(draftID); err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to discard draft: %w", err)
	}
	return h.reloadDraft(draftID)
}

func (h *MessageHandlers) SendMessage(ctx context.Context, request *mcp.CallToolRequest, input DraftActionInput) (*mcp.CallToolResult, DraftOutput, error) {
	draftID, err := uuid.Parse(input.DraftID)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("invalid draft_id: %w", err)
	}
	if err := h.coordinator.Send(ctx, draftID); err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to send draft: %w", err)
	}
	return h.reloadDraft(draftID)
}

type FlagFollowupInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
	Reason    string `json:"reason" jsonschema:"Why automated handling is not possible (required)"`
}

type FlagFollowupOutput struct {
	Success bool `json:"success"`
}

func (h *MessageHandlers) FlagManualFollowup(_ context.Context, request *mcp.CallToolRequest, input FlagFollowupInput) (*mcp.CallToolResult, FlagFollowupOutput, error) {
	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, FlagFollowupOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}
	if input.Reason == "" {
		return nil, FlagFollowupOutput{}, fmt.Errorf("reason is required")
	}
	if err := h.coordinator.FlagManualFollowup(contactID, input.Reason); err != nil {
		return nil, FlagFollowupOutput{}, fmt.Errorf("failed to flag followup: %w", err)
	}
	return nil, FlagFollowupOutput{Success: true}, nil
}

type EventSummaryInput struct {
	EventID string `json:"event_id" jsonschema:"Event ID (required)"`
}

type EventSummaryOutput struct {
	EventID   string         `json:"event_id"`
	Total     int            `json:"total"`
	Approved  int            `json:"approved"`
	Sent      int            `json:"sent"`
	Discarded int            `json:"discarded"`
	ByChannel map[string]int `json:"by_channel,omitempty"`
}

func (h *MessageHandlers) EventSummary(_ context.Context, request *mcp.CallToolRequest, input EventSummaryInput) (*mcp.CallToolResult, EventSummaryOutput, error) {
	if input.EventID == "" {
		return nil, EventSummaryOutput{}, fmt.Errorf("event_id is required")
	}

	summary, err := db.SummarizeEvent(h.db, input.EventID)
	if err != nil {
		return nil, EventSummaryOutput{}, fmt.Errorf("failed to summarize event: %w", err)
	}

	output := EventSummaryOutput{
		EventID:   summary.EventID,
		Total:     summary.Total,
		Approved:  summary.Approved,
		Sent:      summary.Sent,
		Discarded: summary.Discarded,
		ByChannel: make(map[string]int, len(summary.ByChannel)),
	}
	for channel, count := range summary.ByChannel {
		output.ByChannel[string(channel)] = count
	}
	return nil, output, nil
}

func (h *MessageHandlers) reloadDraft(draftID uuid.UUID) (*mcp.CallToolResult, DraftOutput, error) {
	draft, err := db.GetDraft(h.db, draftID)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to reload draft: %w", err)
	}
	if draft == nil {
		return nil, DraftOutput{}, fmt.Errorf("draft not found")
	}
	return nil, draftToOutput(draft), nil
}

func parseChannel(s string) (models.Channel, error) {
	if s == "" {
		return models.ChannelSMS, nil
	}
	switch models.Channel(s) {
	case models.ChannelSMS, models.ChannelLinkedIn, models.ChannelEmail:
		return models.Channel(s), nil
	}
	return "", fmt.Errorf("invalid channel: %s", s)
}

func draftToOutput(draft *models.MessageDraft) DraftOutput {
	return DraftOutput{
		ID:          draft.ID.String(),
		ContactID:   draft.ContactID.String(),
		EventID:     draft.EventID,
		Channel:     string(draft.Channel),
		Body:        draft.Body,
		GeneratedAt: draft.GeneratedAt.Format(time.RFC3339),
		Approved:    draft.Approved,
		Sent:        draft.Sent,
		Discarded:   draft.Discarded,
	}
}
