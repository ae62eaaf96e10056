// ABOUTME: Google sync CLI commands
// ABOUTME: Handles OAuth setup, People API import, and category label push-back
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/sync"
)

// AuthCommand runs the Google OAuth flow and stores the token.
func AuthCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()

	config, err := sync.RequireConfig()
	if err != nil {
		return fmt.Errorf("failed to get OAuth config: %w", err)
	}

	callbackChan := make(chan *oauth2.Token)
	errChan := make(chan error)

	http.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8080"}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := sync.SaveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		fmt.Printf("\n✓ Authenticated successfully\n")
		fmt.Printf("✓ Tokens saved to %s\n\n", sync.TokenPath())
		fmt.Println("Ready to sync! Run 'nudge sync' to import contacts.")

		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// SyncCommand imports Google contacts into the store. With --push it also
// writes category labels back for contacts Google already knows.
func SyncCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	push := fs.Bool("push", false, "Write category labels back to Google")
	_ = fs.Parse(args)

	ctx := context.Background()

	token, err := sync.LoadToken()
	if err != nil {
		return fmt.Errorf("no authentication token found. Run 'nudge auth' first: %w", err)
	}

	service, err := sync.NewPeopleService(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create People client: %w", err)
	}
	source := sync.NewGoogleSource(service)

	fmt.Println("Syncing Google contacts...")
	records, err := source.FetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch contacts: %w", err)
	}
	fmt.Printf("  → %d records fetched\n", len(records))

	results := make([]models.MatchResult, len(records))
	for i := range records {
		results[i] = models.MatchResult{A: &records[i], Confidence: models.ConfidenceNone}
	}

	stats, err := sync.NewImporter(database).ImportResults(results)
	if err != nil {
		return fmt.Errorf("failed to import contacts: %w", err)
	}
	fmt.Printf("✓ Imported %d new contacts, updated %d\n", stats.Created, stats.Updated)

	if *push {
		return pushCategories(ctx, database, source)
	}
	return nil
}

// pushCategories mirrors stored categories back onto Google contact
// groups for every contact with a Google source id.
func pushCategories(ctx context.Context, database *sql.DB, source *sync.GoogleSource) error {
	contacts, err := db.AllContacts(database)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	pushed := 0
	for i := range contacts {
		c := &contacts[i]
		sourceID, ok := c.SourceIDs[models.SourceGoogle]
		if !ok {
			continue
		}
		if err := source.SetCategory(ctx, sourceID, c.Category, ""); err != nil {
			fmt.Printf("  ✗ %s: %v\n", c.Name, err)
			continue
		}
		pushed++
	}

	fmt.Printf("✓ Pushed categories for %d contacts\n", pushed)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
