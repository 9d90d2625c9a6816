package model

import (
	"fmt"
	"sort"
	"strconv"
)

// CategoryID identifies a category. Assigned by the store at creation.
type CategoryID int64

// String returns the decimal form of the ID.
func (id CategoryID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseCategoryID parses a decimal category ID. Zero and negative values
// are rejected since the store never assigns them.
func ParseCategoryID(s string) (CategoryID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid category id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid category id %q: must be positive", s)
	}
	return CategoryID(n), nil
}

// Category is a node of the taxonomy.
type Category struct {
	ID   CategoryID `json:"category_id" yaml:"id"`
	Name string     `json:"category_name" yaml:"name"`
}

// String renders the category as "id name".
func (c Category) String() string {
	return fmt.Sprintf("%d %s", c.ID, c.Name)
}

// ClosurePath is one materialized ancestor-descendant pair.
// The reflexive pair (c, c) is part of the closure.
type ClosurePath struct {
	Ancestor   CategoryID `json:"ancestor"`
	Descendant CategoryID `json:"descendant"`
}

// IsReflexive reports whether the path links a category to itself.
func (p ClosurePath) IsReflexive() bool {
	return p.Ancestor == p.Descendant
}

// String renders the path as "(ancestor,descendant)".
func (p ClosurePath) String() string {
	return fmt.Sprintf("(%d,%d)", p.Ancestor, p.Descendant)
}

// Snapshot is a point-in-time copy of both tables, read inside a single
// transaction. Used by the consistency validator.
type Snapshot struct {
	Categories []Category    `json:"categories"`
	Paths      []ClosurePath `json:"paths"`
}

// SortPaths orders paths by (ancestor, descendant) ascending.
func SortPaths(paths []ClosurePath) {
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Ancestor != paths[j].Ancestor {
			return paths[i].Ancestor < paths[j].Ancestor
		}
		return paths[i].Descendant < paths[j].Descendant
	})
}

// IDs returns the IDs of the given categories in order.
func IDs(cats []Category) []CategoryID {
	ids := make([]CategoryID, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

// RemovePolicy selects what happens to a removed category's descendants.
type RemovePolicy string

const (
	// RejectIfHasChildren refuses to remove a category that has descendants.
	RejectIfHasChildren RemovePolicy = "reject"

	// ReparentChildrenToParent moves each direct child under the removed
	// category's parent. Children of a removed root become roots.
	ReparentChildrenToParent RemovePolicy = "reparent"
)

// ValidRemovePolicies lists the accepted policy names.
var ValidRemovePolicies = map[RemovePolicy]bool{
	RejectIfHasChildren:      true,
	ReparentChildrenToParent: true,
}

// ParseRemovePolicy converts a policy name to a RemovePolicy.
func ParseRemovePolicy(s string) (RemovePolicy, error) {
	p := RemovePolicy(s)
	if !ValidRemovePolicies[p] {
		return "", fmt.Errorf("invalid remove policy %q: must be %q or %q",
			s, RejectIfHasChildren, ReparentChildrenToParent)
	}
	return p, nil
}
