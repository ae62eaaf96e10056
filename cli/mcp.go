// ABOUTME: MCP server subcommand
// ABOUTME: Exposes contact, category, matching, and message tools over stdio
package cli

import (
	"context"
	"database/sql"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nudge/handlers"
	"github.com/harperreed/nudge/models"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(database *sql.DB) error {
	log.Println("Starting nudge MCP server...")

	coordinator, err := buildCoordinator(database, models.PolicyReviewed, "")
	if err != nil {
		return err
	}

	contactHandlers := handlers.NewContactHandlers(database)
	messageHandlers := handlers.NewMessageHandlers(database, coordinator)
	matchHandlers := handlers.NewMatchHandlers(database)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nudge",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_contacts",
		Description: "Search contacts by name or email, optionally filtered by category",
	}, contactHandlers.SearchContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts_by_category",
		Description: "List every contact in one relationship category",
	}, contactHandlers.ListContactsByCategory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "request_category_change",
		Description: "Move a contact to a new category; cross-group moves need the override flag",
	}, contactHandlers.RequestCategoryChange)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact_note",
		Description: "Append a dated note to a contact",
	}, contactHandlers.AddContactNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "contact_history",
		Description: "Read a contact's interaction ledger, oldest first, with pagination",
	}, contactHandlers.ContactHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_queue",
		Description: "List contacts that have gone longest without a cleanup review",
	}, contactHandlers.ReviewQueue)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_sources",
		Description: "Match stored contacts against a LinkedIn connections CSV export",
	}, matchHandlers.MatchSources)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_message",
		Description: "Draft an outreach message for a contact and event",
	}, messageHandlers.GenerateMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "approve_message",
		Description: "Approve a drafted message for sending",
	}, messageHandlers.ApproveMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "discard_message",
		Description: "Discard a drafted message during review",
	}, messageHandlers.DiscardMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send an approved message through its channel transport",
	}, messageHandlers.SendMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "flag_manual_followup",
		Description: "Record that a contact needs manual followup instead of automated outreach",
	}, messageHandlers.FlagManualFollowup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "event_summary",
		Description: "Summarize draft, approval, and send counts for one event",
	}, messageHandlers.EventSummary)

	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
