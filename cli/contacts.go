// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for listing, recategorizing, and annotating contacts
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/lifecycle"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/tui"
)

// ListContactsCommand lists contacts, optionally filtered.
func ListContactsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("query", "", "Search query (name or email)")
	category := fs.String("category", "", "Filter by category")
	limit := fs.Int("limit", 50, "Maximum number of results")
	_ = fs.Parse(args)

	cat := models.Category(*category)
	if *category != "" && !cat.Valid() {
		return fmt.Errorf("invalid category: %s (valid: %s)", *category, categoryList())
	}

	contacts, err := db.FindContacts(database, *query, cat, *limit)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	if len(contacts) == 0 {
		fmt.Println("No contacts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tEMAIL\tCOMPANY")
	for i := range contacts {
		c := &contacts[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Category, c.PrimaryEmail(), c.Company)
	}
	return w.Flush()
}

// SetCategoryCommand moves a contact to a new category through the state
// machine. Cross-group moves need --override.
func SetCategoryCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("set-category", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	category := fs.String("category", "", "Target category (required)")
	note := fs.String("note", "", "Reason for the change")
	override := fs.Bool("override", false, "Allow moving across category groups")
	date := fs.String("date", "", "Effective date (YYYY-MM-DD, default today)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	contactID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid contact ID: %w", err)
	}

	target := models.Category(*category)
	if !target.Valid() {
		return fmt.Errorf("invalid category: %s (valid: %s)", *category, categoryList())
	}

	effective := time.Now()
	if *date != "" {
		effective, err = time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid --date (use YYYY-MM-DD): %w", err)
		}
	}

	sm := lifecycle.NewStateMachine(database)
	if *override {
		err = sm.Override(contactID, target, *note, effective)
	} else {
		err = sm.RequestTransition(contactID, target, *note, effective)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Contact %s moved to %s\n", contactID, target)
	return nil
}

// AddNoteCommand appends a dated note to a contact.
func AddNoteCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-note", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	note := fs.String("note", "", "Note text (required)")
	_ = fs.Parse(args)

	if *id == "" || *note == "" {
		return fmt.Errorf("--id and --note are required")
	}
	contactID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid contact ID: %w", err)
	}

	err = db.AppendContactNote(database, contactID, models.Note{Date: time.Now(), Text: *note})
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}

	fmt.Println("✓ Note added")
	return nil
}

// HistoryCommand prints a contact's interaction ledger, oldest first.
func HistoryCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	after := fs.String("after", "", "Show entries after this entry ID")
	limit := fs.Int("limit", 50, "Maximum number of entries")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	contactID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid contact ID: %w", err)
	}

	entries, err := db.HistoryPage(database, contactID, *after, *limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No history")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTIME\tKIND\tDETAIL")
	for i := range entries {
		e := &entries[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), e.Kind, entryDetail(e))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(entries) == *limit {
		fmt.Printf("\nMore entries: rerun with --after %s\n", entries[len(entries)-1].ID)
	}
	return nil
}

// ReviewQueueCommand lists the contacts that have gone longest without a
// cleanup review.
func ReviewQueueCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("review-queue", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum number of contacts")
	_ = fs.Parse(args)

	contacts, err := db.OldestReviewedContacts(database, *limit)
	if err != nil {
		return fmt.Errorf("failed to load review queue: %w", err)
	}

	if len(contacts) == 0 {
		fmt.Println("No contacts to review")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
	for i := range contacts {
		c := &contacts[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Category)
	}
	return w.Flush()
}

// CleanupCommand opens the interactive cleanup review screen.
func CleanupCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of contacts to review")
	_ = fs.Parse(args)

	coordinator, err := buildCoordinator(database, models.PolicyReviewed, "")
	if err != nil {
		return err
	}
	return tui.RunCleanup(database, coordinator, *limit)
}

func entryDetail(e *models.InteractionEntry) string {
	switch e.Kind {
	case models.EntryCategoryChanged:
		return fmt.Sprintf("%s → %s", e.Payload[models.PayloadFrom], e.Payload[models.PayloadTo])
	case models.EntryManualFollowup:
		return e.Payload[models.PayloadReason]
	case models.EntryReviewed:
		return e.Payload[models.PayloadNote]
	default:
		if e.Payload[models.PayloadEventID] != "" {
			return fmt.Sprintf("%s via %s", e.Payload[models.PayloadEventID], e.Payload[models.PayloadChannel])
		}
		return ""
	}
}

func categoryList() string {
	s := ""
	for i, c := range models.AllCategories {
		if i > 0 {
			s += ", "
		}
		s += string(c)
	}
	return s
}
