// ABOUTME: Relationship category enumeration and group membership table
// ABOUTME: Categories are a closed set; transitions may only cross groups via override
package models

// Category classifies where a contact sits in the network. Each category
// belongs to exactly one CategoryGroup; the "lost" variants are only
// reachable from their active siblings in the same group.
type Category string

const (
	CategoryProfessionalActive Category = "professional-active"
	CategoryProfessionalLost   Category = "professional-lost"
	CategoryNodeActive         Category = "node-active"
	CategoryNodeLost           Category = "node-lost"
	CategoryFriendActive       Category = "friend-active"
	CategoryFriendLost         Category = "friend-lost"
	CategoryFamily             Category = "family"
	CategoryOther              Category = "other"
)

type CategoryGroup string

const (
	GroupProfessional CategoryGroup = "professional"
	GroupNode         CategoryGroup = "node"
	GroupFriend       CategoryGroup = "friend"
	GroupOther        CategoryGroup = "other"
)

var categoryGroups = map[Category]CategoryGroup{
	CategoryProfessionalActive: GroupProfessional,
	CategoryProfessionalLost:   GroupProfessional,
	CategoryNodeActive:         GroupNode,
	CategoryNodeLost:           GroupNode,
	CategoryFriendActive:       GroupFriend,
	CategoryFriendLost:         GroupFriend,
	CategoryFamily:             GroupOther,
	CategoryOther:              GroupOther,
}

// AllCategories lists every valid category, in a stable order.
var AllCategories = []Category{
	CategoryProfessionalActive,
	CategoryProfessionalLost,
	CategoryNodeActive,
	CategoryNodeLost,
	CategoryFriendActive,
	CategoryFriendLost,
	CategoryFamily,
	CategoryOther,
}

// Group returns the category group, or false for an unknown category.
func (c Category) Group() (CategoryGroup, bool) {
	g, ok := categoryGroups[c]
	return g, ok
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryGroups[c]
	return ok
}

// SameGroup reports whether two categories share a group. Unknown
// categories never share a group.
func (c Category) SameGroup(other Category) bool {
	g1, ok1 := categoryGroups[c]
	g2, ok2 := categoryGroups[other]
	return ok1 && ok2 && g1 == g2
}

// Lost reports whether the category is a "lost" variant.
func (c Category) Lost() bool {
	return c == CategoryProfessionalLost || c == CategoryNodeLost || c == CategoryFriendLost
}
