// ABOUTME: Message lifecycle CLI commands
// ABOUTME: Drives generation, review, sending, and event summaries
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/lifecycle"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/transport"
	"github.com/harperreed/nudge/tui"
)

// GenerateCommand drafts messages for every contact in a category for one
// event. Under the autonomous policy it also approves and sends them.
func GenerateCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	eventID := fs.String("event", "", "Event ID (required)")
	category := fs.String("category", "", "Only contacts in this category")
	channel := fs.String("channel", string(models.ChannelSMS), "Delivery channel: SMS, LinkedIn, or Email")
	policy := fs.String("policy", string(models.PolicyGenerateOnly), "Execution policy: generate-only, reviewed, or autonomous")
	template := fs.String("template", "", "Custom message template")
	_ = fs.Parse(args)

	if *eventID == "" {
		return fmt.Errorf("--event is required")
	}
	ch, err := parseChannel(*channel)
	if err != nil {
		return err
	}
	execPolicy, ok := models.ParsePolicy(*policy)
	if !ok {
		return fmt.Errorf("invalid policy: %s", *policy)
	}

	cat := models.Category(*category)
	if *category != "" && !cat.Valid() {
		return fmt.Errorf("invalid category: %s (valid: %s)", *category, categoryList())
	}

	coordinator, err := buildCoordinator(database, execPolicy, *template)
	if err != nil {
		return err
	}

	var contacts []models.Contact
	if cat != "" {
		contacts, err = db.ContactsByCategory(database, cat)
	} else {
		contacts, err = db.AllContacts(database)
	}
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	ctx := context.Background()
	generated, failed := 0, 0
	for i := range contacts {
		_, err := coordinator.Run(ctx, contacts[i].ID, *eventID, ch)
		if err != nil {
			failed++
			fmt.Printf("  ✗ %s: %v\n", contacts[i].Name, err)
			continue
		}
		generated++
	}

	fmt.Printf("✓ %d drafts processed for %s", generated, *eventID)
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Println()

	if execPolicy == models.PolicyGenerateOnly {
		fmt.Printf("Review drafts with 'nudge review --event %s'\n", *eventID)
	}
	return nil
}

// ReviewCommand opens the interactive review screen for an event's pending
// drafts.
func ReviewCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	eventID := fs.String("event", "", "Event ID (required)")
	_ = fs.Parse(args)

	if *eventID == "" {
		return fmt.Errorf("--event is required")
	}

	coordinator, err := buildCoordinator(database, models.PolicyReviewed, "")
	if err != nil {
		return err
	}
	return tui.RunReview(database, coordinator, *eventID)
}

// SendCommand delivers every approved draft for an event. Ineligible
// channels and transport failures are flagged for manual followup and do
// not stop the run.
func SendCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	eventID := fs.String("event", "", "Event ID (required)")
	draftID := fs.String("draft", "", "Send a single draft by ID instead")
	_ = fs.Parse(args)

	coordinator, err := buildCoordinator(database, models.PolicyReviewed, "")
	if err != nil {
		return err
	}
	ctx := context.Background()

	if *draftID != "" {
		id, err := uuid.Parse(*draftID)
		if err != nil {
			return fmt.Errorf("invalid draft ID: %w", err)
		}
		if err := coordinator.Send(ctx, id); err != nil {
			return err
		}
		fmt.Println("✓ Sent")
		return nil
	}

	if *eventID == "" {
		return fmt.Errorf("--event or --draft is required")
	}

	drafts, err := db.ListDraftsByEvent(database, *eventID)
	if err != nil {
		return fmt.Errorf("failed to load drafts: %w", err)
	}

	sent, skipped, flagged := 0, 0, 0
	for i := range drafts {
		d := &drafts[i]
		if !d.Approved || d.Sent || d.Discarded {
			skipped++
			continue
		}
		err := coordinator.Send(ctx, d.ID)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, models.ErrIneligibleChannel):
			flagged++
			fmt.Printf("  ⚑ draft %s flagged for manual followup (channel not eligible)\n", d.ID)
		case errors.Is(err, models.ErrAlreadySent):
			skipped++
		default:
			flagged++
			fmt.Printf("  ✗ draft %s: %v\n", d.ID, err)
		}
	}

	fmt.Printf("✓ %d sent, %d skipped, %d flagged for %s\n", sent, skipped, flagged, *eventID)
	return nil
}

// EventSummaryCommand prints draft counts for one event.
func EventSummaryCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	eventID := fs.String("event", "", "Event ID (required)")
	_ = fs.Parse(args)

	if *eventID == "" {
		return fmt.Errorf("--event is required")
	}

	summary, err := db.SummarizeEvent(database, *eventID)
	if err != nil {
		return fmt.Errorf("failed to summarize event: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Event\t%s\n", summary.EventID)
	_, _ = fmt.Fprintf(w, "Drafts\t%d\n", summary.Total)
	_, _ = fmt.Fprintf(w, "Approved\t%d\n", summary.Approved)
	_, _ = fmt.Fprintf(w, "Sent\t%d\n", summary.Sent)
	_, _ = fmt.Fprintf(w, "Discarded\t%d\n", summary.Discarded)
	for channel, count := range summary.ByChannel {
		_, _ = fmt.Fprintf(w, "  %s\t%d\n", channel, count)
	}
	return w.Flush()
}

// PairCommand runs the Google Messages QR pairing flow for the SMS
// transport.
func PairCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("pair", flag.ExitOnError)
	_ = fs.Parse(args)

	sms, err := transport.NewSMSTransport()
	if err != nil {
		return err
	}

	fmt.Println("Opening Google Messages for Web...")
	fmt.Println("On your Android phone: Messages → Device pairing → QR scanner")
	if err := sms.Pair(context.Background()); err != nil {
		return err
	}
	fmt.Println("✓ Paired. SMS sending is ready.")
	return nil
}

func buildCoordinator(database *sql.DB, policy models.ExecutionPolicy, template string) (*lifecycle.Coordinator, error) {
	generator, err := transport.NewTemplateGenerator(template)
	if err != nil {
		return nil, err
	}

	coordinator := lifecycle.NewCoordinator(database, generator, policy)

	sms, err := transport.NewSMSTransport()
	if err != nil {
		return nil, err
	}
	coordinator.RegisterTransport(models.ChannelSMS, sms)

	return coordinator, nil
}

func parseChannel(s string) (models.Channel, error) {
	switch models.Channel(s) {
	case models.ChannelSMS, models.ChannelLinkedIn, models.ChannelEmail:
		return models.Channel(s), nil
	}
	return "", fmt.Errorf("invalid channel: %s", s)
}
