// ABOUTME: Interactive draft review screen
// ABOUTME: Walks an event's pending drafts with approve, discard, and skip actions
package tui

import (
	"database/sql"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/nudge/db"
	"github.com/harperreed/nudge/lifecycle"
	"github.com/harperreed/nudge/models"
)

var (
	reviewTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("170")).
				MarginBottom(1)

	reviewNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	reviewBodyStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(70)

	reviewApprovedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10"))

	reviewDiscardedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))

	reviewHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type reviewItem struct {
	draft   models.MessageDraft
	contact *models.Contact
	status  string
}

type reviewModel struct {
	db          *sql.DB
	coordinator *lifecycle.Coordinator
	eventID     string
	items       []reviewItem
	cursor      int
	err         error
}

// RunReview opens the review screen for an event's pending drafts.
func RunReview(database *sql.DB, coordinator *lifecycle.Coordinator, eventID string) error {
	drafts, err := db.ListPendingDrafts(database, eventID)
	if err != nil {
		return fmt.Errorf("failed to load drafts: %w", err)
	}
	if len(drafts) == 0 {
		fmt.Printf("No pending drafts for %s\n", eventID)
		return nil
	}

	items := make([]reviewItem, len(drafts))
	for i := range drafts {
		contact, err := db.GetContact(database, drafts[i].ContactID)
		if err != nil {
			return fmt.Errorf("failed to load contact: %w", err)
		}
		items[i] = reviewItem{draft: drafts[i], contact: contact}
	}

	model := reviewModel{
		db:          database,
		coordinator: coordinator,
		eventID:     eventID,
		items:       items,
	}

	_, err = tea.NewProgram(model).Run()
	return err
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j", "n":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "a", "y":
		item := &m.items[m.cursor]
		if item.status == "" {
			if err := m.coordinator.Approve(item.draft.ID); err != nil {
				m.err = err
			} else {
				item.status = "approved"
				m.err = nil
				m.advance()
			}
		}

	case "d", "x":
		item := &m.items[m.cursor]
		if item.status == "" {
			if err := m.coordinator.Discard(item.draft.ID); err != nil {
				m.err = err
			} else {
				item.status = "discarded"
				m.err = nil
				m.advance()
			}
		}
	}

	return m, nil
}

func (m *reviewModel) advance() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m reviewModel) View() string {
	var s strings.Builder

	s.WriteString(reviewTitleStyle.Render(fmt.Sprintf("Reviewing drafts for %s", m.eventID)))
	s.WriteString("\n")

	reviewed := 0
	for i := range m.items {
		if m.items[i].status != "" {
			reviewed++
		}
	}
	s.WriteString(fmt.Sprintf("Draft %d of %d (%d reviewed)\n\n", m.cursor+1, len(m.items), reviewed))

	item := &m.items[m.cursor]

	name := "(unknown contact)"
	detail := ""
	if item.contact != nil {
		name = item.contact.Name
		detail = fmt.Sprintf("%s • %s", item.contact.Category, item.contact.PrimaryPhone())
	}
	s.WriteString(reviewNameStyle.Render(name))
	if detail != "" {
		s.WriteString(reviewHelpStyle.Render("  " + detail))
	}
	s.WriteString("\n")
	s.WriteString(reviewBodyStyle.Render(item.draft.Body))
	s.WriteString("\n")

	switch item.status {
	case "approved":
		s.WriteString(reviewApprovedStyle.Render("✓ Approved"))
		s.WriteString("\n")
	case "discarded":
		s.WriteString(reviewDiscardedStyle.Render("✗ Discarded"))
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString(reviewDiscardedStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	help := []string{
		"a: Approve",
		"d: Discard",
		"↑/↓: Navigate",
		"q: Done",
	}
	s.WriteString(reviewHelpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}
