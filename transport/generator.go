// ABOUTME: Deterministic template-based message generator
// ABOUTME: Fallback Generator used when no LLM-backed generator is configured
package transport

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/harperreed/nudge/models"
)

// DefaultMessageTemplate is the body used when no custom template is given.
// Fields come from the contact record and the event id.
const DefaultMessageTemplate = `Hey {{.FirstName}}! It's been a while — would love to catch up. Are you around for {{.Event}}?`

// TemplateGenerator renders a fixed text/template per contact and event.
// Same inputs always produce the same message, which keeps the generate
// step reviewable and testable.
type TemplateGenerator struct {
	tmpl *template.Template
}

type templateData struct {
	Name      string
	FirstName string
	Company   string
	Event     string
	Contacted bool
}

// NewTemplateGenerator compiles the template text, falling back to
// DefaultMessageTemplate when text is empty.
func NewTemplateGenerator(text string) (*TemplateGenerator, error) {
	if text == "" {
		text = DefaultMessageTemplate
	}
	tmpl, err := template.New("message").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message template: %w", err)
	}
	return &TemplateGenerator{tmpl: tmpl}, nil
}

// Generate renders the template. History is consulted only for the
// Contacted flag (whether any message was ever sent to this contact).
func (g *TemplateGenerator) Generate(ctx context.Context, contact *models.Contact, eventID string, history []models.InteractionEntry) (string, error) {
	data := templateData{
		Name:      contact.Name,
		FirstName: firstName(contact.Name),
		Company:   contact.Company,
		Event:     eventID,
	}
	for i := range history {
		if history[i].Kind == models.EntryMessageSent {
			data.Contacted = true
			break
		}
	}

	var sb strings.Builder
	if err := g.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render message for %s: %w", contact.Name, err)
	}

	body := strings.TrimSpace(sb.String())
	if body == "" {
		return "", fmt.Errorf("message template produced empty body for %s", contact.Name)
	}
	return body, nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
