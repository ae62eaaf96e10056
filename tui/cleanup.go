// ABOUTME: Interactive cleanup review screen
// ABOUTME: Walks the oldest-reviewed contacts and records review passes
package tui

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/lifecycle"
	"github.com/harperreed/nudge/models"
)

type cleanupModel struct {
	db          *sql.DB
	coordinator *lifecycle.Coordinator
	table       table.Model
	contacts    []models.Contact
	reviewed    map[int]bool
	err         error
}

// RunCleanup opens the cleanup screen over the contacts that have gone
// longest without a review.
func RunCleanup(database *sql.DB, coordinator *lifecycle.Coordinator, limit int) error {
	contacts, err := db.OldestReviewedContacts(database, limit)
	if err != nil {
		return fmt.Errorf("failed to load review queue: %w", err)
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts to review")
		return nil
	}

	model := cleanupModel{
		db:          database,
		coordinator: coordinator,
		contacts:    contacts,
		reviewed:    make(map[int]bool),
	}
	model.table = newCleanupTable(contacts, model.reviewed)

	_, err = tea.NewProgram(model).Run()
	return err
}

func newCleanupTable(contacts []models.Contact, reviewed map[int]bool) table.Model {
	columns := []table.Column{
		{Title: "", Width: 2},
		{Title: "Name", Width: 25},
		{Title: "Category", Width: 20},
		{Title: "Email", Width: 30},
	}

	var rows []table.Row
	for i := range contacts {
		c := &contacts[i]
		mark := ""
		if reviewed[i] {
			mark = "✓"
		}
		rows = append(rows, table.Row{mark, c.Name, string(c.Category), c.PrimaryEmail()})
	}

	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)
}

func (m cleanupModel) Init() tea.Cmd {
	return nil
}

func (m cleanupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "r", "enter":
		cursor := m.table.Cursor()
		if cursor >= 0 && cursor < len(m.contacts) && !m.reviewed[cursor] {
			err := m.coordinator.MarkReviewed(m.contacts[cursor].ID, "cleanup review")
			if err != nil {
				m.err = err
			} else {
				m.reviewed[cursor] = true
				m.err = nil
				m.table = newCleanupTable(m.contacts, m.reviewed)
				if cursor < len(m.contacts)-1 {
					m.table.SetCursor(cursor + 1)
				} else {
					m.table.SetCursor(cursor)
				}
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(keyMsg)
	return m, cmd
}

func (m cleanupModel) View() string {
	var s strings.Builder

	s.WriteString(reviewTitleStyle.Render("Contact cleanup review"))
	s.WriteString("\n")
	s.WriteString(m.table.View())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(reviewDiscardedStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	}

	help := []string{
		"r/Enter: Mark reviewed",
		"↑/↓: Navigate",
		"q: Done",
	}
	s.WriteString(reviewHelpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}
