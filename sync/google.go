// ABOUTME: Google People API source-A reader and write-back client
// ABOUTME: Fetches labeled contacts; supports category label swaps and note appends
package sync

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/nudge/models"
)

// NewPeopleService creates an authenticated People API service. The OAuth
// client refreshes tokens automatically.
func NewPeopleService(ctx context.Context, token *oauth2.Token) (*people.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	service, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return service, nil
}

// GoogleSource reads and writes the address book through the People API.
type GoogleSource struct {
	service *people.Service

	// group resource name -> label, populated lazily
	groupNames map[string]string
}

func NewGoogleSource(service *people.Service) *GoogleSource {
	return &GoogleSource{service: service}
}

const personFields = "names,emailAddresses,phoneNumbers,organizations,biographies,memberships"

// FetchRecords pulls every connection, mapping category labels onto the
// record. Records without a name and email are still returned; the matcher
// decides what to do with them.
func (g *GoogleSource) FetchRecords(ctx context.Context) ([]models.SourceRecord, error) {
	if err := g.loadGroups(ctx); err != nil {
		return nil, err
	}

	var records []models.SourceRecord
	pageToken := ""

	for {
		call := g.service.People.Connections.List("people/me").
			PageSize(1000).
			PersonFields(personFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		if response == nil || response.Connections == nil {
			break
		}

		for _, person := range response.Connections {
			records = append(records, g.convertPerson(person))
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return records, nil
}

// SetCategory swaps the contact's category label for the one matching the
// target category and appends the note to the biography.
func (g *GoogleSource) SetCategory(ctx context.Context, sourceID string, category models.Category, note string) error {
	label, ok := LabelForCategory(category)
	if !ok {
		return fmt.Errorf("no label for category %q", category)
	}

	if err := g.loadGroups(ctx); err != nil {
		return err
	}

	// Remove membership in every other category group first.
	for resource, name := range g.groupNames {
		if !IsCategoryLabel(name) || strings.EqualFold(name, label) {
			continue
		}
		_, err := g.service.ContactGroups.Members.Modify(resource, &people.ModifyContactGroupMembersRequest{
			ResourceNamesToRemove: []string{sourceID},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to remove label %q: %w", name, err)
		}
	}

	groupResource, err := g.findOrCreateGroup(ctx, label)
	if err != nil {
		return err
	}
	_, err = g.service.ContactGroups.Members.Modify(groupResource, &people.ModifyContactGroupMembersRequest{
		ResourceNamesToAdd: []string{sourceID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add label %q: %w", label, err)
	}

	if note != "" {
		return g.AddNote(ctx, sourceID, note)
	}
	return nil
}

// AddNote appends text to the contact's biography.
func (g *GoogleSource) AddNote(ctx context.Context, sourceID, note string) error {
	person, err := g.service.People.Get(sourceID).
		PersonFields("biographies").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}

	existing := ""
	if len(person.Biographies) > 0 {
		existing = person.Biographies[0].Value
	}
	value := note
	if existing != "" {
		value = existing + "\n" + note
	}

	update := &people.Person{
		Etag: person.Etag,
		Biographies: []*people.Biography{
			{Value: value, ContentType: "TEXT_PLAIN"},
		},
	}
	_, err = g.service.People.UpdateContact(sourceID, update).
		UpdatePersonFields("biographies").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	return nil
}

func (g *GoogleSource) loadGroups(ctx context.Context) error {
	if g.groupNames != nil {
		return nil
	}

	response, err := g.service.ContactGroups.List().PageSize(200).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to list contact groups: %w", err)
	}

	g.groupNames = make(map[string]string)
	for _, group := range response.ContactGroups {
		g.groupNames[group.ResourceName] = group.Name
	}
	return nil
}

func (g *GoogleSource) findOrCreateGroup(ctx context.Context, label string) (string, error) {
	for resource, name := range g.groupNames {
		if strings.EqualFold(name, label) {
			return resource, nil
		}
	}

	created, err := g.service.ContactGroups.Create(&people.CreateContactGroupRequest{
		ContactGroup: &people.ContactGroup{Name: label},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create group %q: %w", label, err)
	}
	g.groupNames[created.ResourceName] = created.Name
	return created.ResourceName, nil
}

// convertPerson maps a People API person to a source record.
func (g *GoogleSource) convertPerson(person *people.Person) models.SourceRecord {
	rec := models.SourceRecord{
		Source:   models.SourceGoogle,
		SourceID: person.ResourceName,
	}

	if len(person.Names) > 0 {
		rec.Name = person.Names[0].DisplayName
	}

	// Prefer the primary email, otherwise first available
	for _, email := range person.EmailAddresses {
		if email.Value == "" {
			continue
		}
		if rec.Email == "" {
			rec.Email = email.Value
		}
		if email.Metadata != nil && email.Metadata.Primary {
			rec.Email = email.Value
			break
		}
	}

	for _, phone := range person.PhoneNumbers {
		if phone.Value == "" {
			continue
		}
		if rec.Phone == "" {
			rec.Phone = phone.Value
		}
		if phone.Metadata != nil && phone.Metadata.Primary {
			rec.Phone = phone.Value
			break
		}
	}

	if len(person.Organizations) > 0 {
		rec.Company = person.Organizations[0].Name
		rec.Role = person.Organizations[0].Title
	}

	if len(person.Biographies) > 0 {
		rec.Notes = person.Biographies[0].Value
	}

	var labels []string
	for _, m := range person.Memberships {
		if m.ContactGroupMembership == nil {
			continue
		}
		if name, ok := g.groupNames[m.ContactGroupMembership.ContactGroupResourceName]; ok {
			labels = append(labels, name)
		}
	}
	if category, ok := CategoryForLabels(labels); ok {
		rec.Category = category
	}

	return rec
}
