// ABOUTME: Identity resolution CLI command
// ABOUTME: Matches stored contacts against a LinkedIn export, imports clusters, writes outreach sheets
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/match"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/output"
	"github.com/harperreed/nudge/sync"
)

// MatchCommand runs identity resolution between the contact store and a
// LinkedIn connections export.
func MatchCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	linkedinCSV := fs.String("linkedin", "", "Path to LinkedIn connections CSV (required)")
	doImport := fs.Bool("import", false, "Persist matched clusters into the contact store")
	xlsxPath := fs.String("xlsx", "", "Write results to an outreach spreadsheet at this path")
	showAll := fs.Bool("all", false, "Show unmatched records too")
	_ = fs.Parse(args)

	if *linkedinCSV == "" {
		return fmt.Errorf("--linkedin is required")
	}

	linkedin, err := sync.ParseLinkedInCSV(*linkedinCSV)
	if err != nil {
		return fmt.Errorf("failed to parse LinkedIn export: %w", err)
	}

	contacts, err := db.AllContacts(database)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	results := match.Match(ContactRecords(contacts), linkedin)

	high, medium, none, review := 0, 0, 0, 0
	for i := range results {
		switch results[i].Confidence {
		case models.ConfidenceHigh:
			high++
		case models.ConfidenceMedium:
			medium++
		default:
			none++
		}
		if results[i].ManualReview {
			review++
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCONFIDENCE\tREASON\tREVIEW")
	for i := range results {
		r := &results[i]
		if r.Confidence == models.ConfidenceNone && !*showAll {
			continue
		}
		needsReview := ""
		if r.ManualReview {
			needsReview = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.DisplayName(), r.Confidence, r.Reason, needsReview)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d records: %d high, %d medium, %d unmatched", len(results), high, medium, none)
	if review > 0 {
		fmt.Printf(" (%d need manual review)", review)
	}
	fmt.Println()

	if *xlsxPath != "" {
		rows := make([]output.OutreachRow, len(results))
		for i := range results {
			rows[i] = output.OutreachRow{Result: results[i]}
		}
		if err := output.WriteOutreachSheet(*xlsxPath, rows); err != nil {
			return err
		}
		fmt.Printf("✓ Outreach sheet written to %s\n", *xlsxPath)
	}

	if *doImport {
		stats, err := sync.NewImporter(database).ImportResults(results)
		if err != nil {
			return fmt.Errorf("failed to import results: %w", err)
		}
		fmt.Printf("✓ Imported %d new contacts, updated %d\n", stats.Created, stats.Updated)
		if stats.Ambiguous > 0 {
			fmt.Printf("  %d results matched multiple contacts and need manual review\n", stats.Ambiguous)
		}
	}

	return nil
}

// ContactRecords projects stored contacts into source records for matching.
func ContactRecords(contacts []models.Contact) []models.SourceRecord {
	records := make([]models.SourceRecord, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		records[i] = models.SourceRecord{
			Source:   models.SourceGoogle,
			SourceID: c.SourceIDs[models.SourceGoogle],
			Name:     c.Name,
			Email:    c.PrimaryEmail(),
			Phone:    c.PrimaryPhone(),
			Company:  c.Company,
			Category: c.Category,
		}
	}
	return records
}
