// ABOUTME: Mapping between Google contact-group labels and Category values
// ABOUTME: Label strings follow the "category N - description" convention
package sync

import (
	"strings"

	"github.com/harperreed/nudge/models"
)

// labelToCategory maps the contact-group labels used in the address book to
// the closed category set. Several historical labels collapse into one
// category.
var labelToCategory = map[string]models.Category{
	"category 1 - professional nodes - friends or acquaintances": models.CategoryProfessionalActive,
	"category 2 - professional nodes":                            models.CategoryProfessionalActive,
	"category 3 - lost professional nodes":                       models.CategoryProfessionalLost,
	"category 4 - nodes - friends or acquaintances":              models.CategoryNodeActive,
	"category 5 - nodes":                                         models.CategoryNodeActive,
	"category 6 - lost nodes":                                    models.CategoryNodeLost,
	"category 7 - close friends":                                 models.CategoryFriendActive,
	"category 8 - friends":                                       models.CategoryFriendActive,
	"category 9 - acquaintances":                                 models.CategoryFriendActive,
	"category 10 - lost friends and acquaintances":               models.CategoryFriendLost,
	"category 15 - family":                                       models.CategoryFamily,
	"category 102 - other":                                       models.CategoryOther,
}

// categoryToLabel is the canonical label written back per category.
var categoryToLabel = map[models.Category]string{
	models.CategoryProfessionalActive: "category 2 - professional nodes",
	models.CategoryProfessionalLost:   "category 3 - lost professional nodes",
	models.CategoryNodeActive:         "category 5 - nodes",
	models.CategoryNodeLost:           "category 6 - lost nodes",
	models.CategoryFriendActive:       "category 8 - friends",
	models.CategoryFriendLost:         "category 10 - lost friends and acquaintances",
	models.CategoryFamily:             "category 15 - family",
	models.CategoryOther:              "category 102 - other",
}

// CategoryForLabel resolves a contact-group label to a category.
func CategoryForLabel(label string) (models.Category, bool) {
	c, ok := labelToCategory[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}

// CategoryForLabels picks the first label that maps to a category.
func CategoryForLabels(labels []string) (models.Category, bool) {
	for _, l := range labels {
		if c, ok := CategoryForLabel(l); ok {
			return c, true
		}
	}
	return "", false
}

// LabelForCategory returns the canonical group label for a category.
func LabelForCategory(c models.Category) (string, bool) {
	l, ok := categoryToLabel[c]
	return l, ok
}

// IsCategoryLabel reports whether a group label belongs to the category
// convention at all.
func IsCategoryLabel(label string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), "category")
}
