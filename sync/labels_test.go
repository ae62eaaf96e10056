package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harperreed/nudge/models"
)

func TestCategoryForLabel(t *testing.T) {
	tests := []struct {
		label    string
		category models.Category
		ok       bool
	}{
		{"category 2 - professional nodes", models.CategoryProfessionalActive, true},
		{"Category 3 - Lost Professional Nodes", models.CategoryProfessionalLost, true},
		{"  category 15 - family  ", models.CategoryFamily, true},
		{"category 7 - close friends", models.CategoryFriendActive, true},
		{"starred", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		c, ok := CategoryForLabel(tt.label)
		assert.Equal(t, tt.ok, ok, "label %q", tt.label)
		assert.Equal(t, tt.category, c, "label %q", tt.label)
	}
}

func TestCategoryForLabelsPicksFirstMatch(t *testing.T) {
	c, ok := CategoryForLabels([]string{"myContacts", "category 6 - lost nodes", "category 8 - friends"})
	assert.True(t, ok)
	assert.Equal(t, models.CategoryNodeLost, c)

	_, ok = CategoryForLabels([]string{"myContacts", "starred"})
	assert.False(t, ok)
}

func TestLabelRoundTrip(t *testing.T) {
	for _, c := range models.AllCategories {
		label, ok := LabelForCategory(c)
		assert.True(t, ok, "category %s has no canonical label", c)

		back, ok := CategoryForLabel(label)
		assert.True(t, ok)
		assert.Equal(t, c, back)
	}
}

func TestIsCategoryLabel(t *testing.T) {
	assert.True(t, IsCategoryLabel("category 2 - professional nodes"))
	assert.True(t, IsCategoryLabel("  Category 102 - other"))
	assert.False(t, IsCategoryLabel("starred"))
}
