// ABOUTME: Entry point for the nudge CLI and MCP server
// ABOUTME: Routes to contact, matching, message, and sync commands
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/harperreed/nudge/cli"
	"github.com/harperreed/nudge/db"
)

const version = "0.1.0"

func main() {
	// Env file is optional; real env vars win either way
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/nudge/nudge.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("nudge version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	database, err := db.OpenDatabase(getDatabasePath(*dbPath))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	if *initOnly {
		log.Println("Database initialized successfully")
		os.Exit(0)
	}

	switch command {
	case "mcp":
		if err := cli.MCPCommand(database); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	// Contact commands
	case "list":
		run(cli.ListContactsCommand(database, commandArgs))
	case "set-category":
		run(cli.SetCategoryCommand(database, commandArgs))
	case "add-note":
		run(cli.AddNoteCommand(database, commandArgs))
	case "history":
		run(cli.HistoryCommand(database, commandArgs))
	case "review-queue":
		run(cli.ReviewQueueCommand(database, commandArgs))
	case "cleanup":
		run(cli.CleanupCommand(database, commandArgs))

	// Identity resolution
	case "match":
		run(cli.MatchCommand(database, commandArgs))

	// Message lifecycle
	case "generate":
		run(cli.GenerateCommand(database, commandArgs))
	case "review":
		run(cli.ReviewCommand(database, commandArgs))
	case "send":
		run(cli.SendCommand(database, commandArgs))
	case "summary":
		run(cli.EventSummaryCommand(database, commandArgs))
	case "pair":
		run(cli.PairCommand(database, commandArgs))

	// Google sync
	case "auth":
		run(cli.AuthCommand(database, commandArgs))
	case "sync":
		run(cli.SyncCommand(database, commandArgs))

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func getDatabasePath(override string) string {
	if override != "" {
		return override
	}
	if envPath := os.Getenv("NUDGE_DB_PATH"); envPath != "" {
		return envPath
	}
	return filepath.Join(xdg.DataHome, "nudge", "nudge.db")
}

func printUsage() {
	fmt.Println(`nudge - contact identity resolution and relationship lifecycle engine

Usage:
  nudge <command> [flags]

Contacts:
  list            List contacts (--query, --category, --limit)
  set-category    Move a contact to a new category (--id, --category, --note, --override)
  add-note        Append a dated note to a contact (--id, --note)
  history         Show a contact's interaction ledger (--id, --after, --limit)
  review-queue    Contacts longest without a cleanup review (--limit)
  cleanup         Interactively review the oldest contacts (--limit)

Matching:
  match           Match contacts against a LinkedIn export (--linkedin, --import, --xlsx)

Messages:
  generate        Draft messages for an event (--event, --category, --channel, --policy)
  review          Interactively approve or discard drafts (--event)
  send            Send approved drafts (--event or --draft)
  summary         Draft counts for an event (--event)
  pair            Pair Google Messages for SMS sending

Google sync:
  auth            Authenticate with Google
  sync            Import Google contacts (--push writes categories back)

Other:
  mcp             Start the MCP server on stdio

Global flags:
  --db-path       Database path (default: ~/.local/share/nudge/nudge.db)
  --init          Initialize database and exit
  --version       Show version`)
}
