// Package validate checks closure-table invariants over a snapshot of the
// category and category_path tables.
//
// Check is a pure function with no side effects. It reports the first
// violated invariant together with the offending rows and never attempts
// repair. The mutation engine runs it as a precommit guard in strict mode;
// the CLI runs it standalone to detect drift from out-of-band writes.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/taxon/internal/model"
)

// Invariant names one closure-table invariant.
type Invariant string

// Invariants in the order Check evaluates them.
const (
	Uniqueness           Invariant = "uniqueness"
	ReferentialIntegrity Invariant = "referential_integrity"
	Reflexivity          Invariant = "reflexivity"
	Acyclicity           Invariant = "acyclicity"
	Transitivity         Invariant = "transitivity"
	SingleParent         Invariant = "single_parent"
)

// Violation describes the first invariant a snapshot breaks.
type Violation struct {
	Invariant Invariant `json:"invariant"`
	Message   string    `json:"message"`

	// Rows are the offending closure rows, if any.
	Rows []model.ClosurePath `json:"rows,omitempty"`

	// CategoryIDs are the offending categories, if any.
	CategoryIDs []model.CategoryID `json:"category_ids,omitempty"`
}

// Error implements the error interface.
func (v *Violation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", v.Invariant, v.Message)
	if len(v.Rows) > 0 {
		parts := make([]string, len(v.Rows))
		for i, r := range v.Rows {
			parts[i] = r.String()
		}
		fmt.Fprintf(&b, " (rows %s)", strings.Join(parts, " "))
	}
	return b.String()
}

// Check verifies every invariant and returns the first violation, or nil
// if the snapshot is consistent.
//
// Order: uniqueness, referential integrity, reflexivity, acyclicity,
// transitivity, single parent. Within one invariant, rows are visited in
// (ancestor, descendant) order so the report is deterministic.
func Check(snap model.Snapshot) *Violation {
	paths := make([]model.ClosurePath, len(snap.Paths))
	copy(paths, snap.Paths)
	model.SortPaths(paths)

	c := newChecker(snap.Categories, paths)
	checks := []func() *Violation{
		c.checkUniqueness,
		c.checkReferentialIntegrity,
		c.checkReflexivity,
		c.checkAcyclicity,
		c.checkTransitivity,
		c.checkSingleParent,
	}
	for _, check := range checks {
		if v := check(); v != nil {
			return v
		}
	}
	return nil
}

// checker holds the indexes shared by the individual checks.
type checker struct {
	categories []model.CategoryID // ascending, may contain duplicates
	exists     map[model.CategoryID]bool
	paths      []model.ClosurePath // sorted
	rows       map[model.ClosurePath]bool

	// Built from the sorted paths, so both lists are ascending.
	descendants map[model.CategoryID][]model.CategoryID
	ancestors   map[model.CategoryID][]model.CategoryID
}

func newChecker(cats []model.Category, paths []model.ClosurePath) *checker {
	c := &checker{
		categories:  make([]model.CategoryID, 0, len(cats)),
		exists:      make(map[model.CategoryID]bool, len(cats)),
		paths:       paths,
		rows:        make(map[model.ClosurePath]bool, len(paths)),
		descendants: make(map[model.CategoryID][]model.CategoryID),
		ancestors:   make(map[model.CategoryID][]model.CategoryID),
	}
	for _, cat := range cats {
		c.categories = append(c.categories, cat.ID)
		c.exists[cat.ID] = true
	}
	sort.Slice(c.categories, func(i, j int) bool { return c.categories[i] < c.categories[j] })

	for _, p := range paths {
		if c.rows[p] {
			continue
		}
		c.rows[p] = true
		if !p.IsReflexive() {
			c.descendants[p.Ancestor] = append(c.descendants[p.Ancestor], p.Descendant)
			c.ancestors[p.Descendant] = append(c.ancestors[p.Descendant], p.Ancestor)
		}
	}
	return c
}

func (c *checker) checkUniqueness() *Violation {
	for i := 1; i < len(c.categories); i++ {
		if c.categories[i] == c.categories[i-1] {
			return &Violation{
				Invariant:   Uniqueness,
				Message:     fmt.Sprintf("category %d appears more than once", c.categories[i]),
				CategoryIDs: []model.CategoryID{c.categories[i]},
			}
		}
	}
	for i := 1; i < len(c.paths); i++ {
		if c.paths[i] == c.paths[i-1] {
			return &Violation{
				Invariant: Uniqueness,
				Message:   fmt.Sprintf("path %s appears more than once", c.paths[i]),
				Rows:      []model.ClosurePath{c.paths[i-1], c.paths[i]},
			}
		}
	}
	return nil
}

func (c *checker) checkReferentialIntegrity() *Violation {
	for _, p := range c.paths {
		var missing []model.CategoryID
		if !c.exists[p.Ancestor] {
			missing = append(missing, p.Ancestor)
		}
		if !c.exists[p.Descendant] && p.Descendant != p.Ancestor {
			missing = append(missing, p.Descendant)
		}
		if len(missing) > 0 {
			return &Violation{
				Invariant:   ReferentialIntegrity,
				Message:     fmt.Sprintf("path %s references missing categories", p),
				Rows:        []model.ClosurePath{p},
				CategoryIDs: missing,
			}
		}
	}
	return nil
}

func (c *checker) checkReflexivity() *Violation {
	for _, id := range c.categories {
		if !c.rows[model.ClosurePath{Ancestor: id, Descendant: id}] {
			return &Violation{
				Invariant:   Reflexivity,
				Message:     fmt.Sprintf("category %d has no reflexive path (%d,%d)", id, id, id),
				CategoryIDs: []model.CategoryID{id},
			}
		}
	}
	return nil
}

func (c *checker) checkAcyclicity() *Violation {
	for _, p := range c.paths {
		if p.IsReflexive() {
			continue
		}
		back := model.ClosurePath{Ancestor: p.Descendant, Descendant: p.Ancestor}
		if c.rows[back] {
			return &Violation{
				Invariant:   Acyclicity,
				Message:     fmt.Sprintf("categories %d and %d are ancestors of each other", p.Ancestor, p.Descendant),
				Rows:        []model.ClosurePath{p, back},
				CategoryIDs: []model.CategoryID{p.Ancestor, p.Descendant},
			}
		}
	}
	return nil
}

func (c *checker) checkTransitivity() *Violation {
	for _, ab := range c.paths {
		if ab.IsReflexive() {
			continue
		}
		for _, d := range c.descendants[ab.Descendant] {
			ad := model.ClosurePath{Ancestor: ab.Ancestor, Descendant: d}
			if ad.IsReflexive() || c.rows[ad] {
				continue
			}
			return &Violation{
				Invariant: Transitivity,
				Message:   fmt.Sprintf("path %s is implied but missing", ad),
				Rows: []model.ClosurePath{
					ab,
					{Ancestor: ab.Descendant, Descendant: d},
				},
				CategoryIDs: []model.CategoryID{ab.Ancestor, d},
			}
		}
	}
	return nil
}

// checkSingleParent requires the strict ancestors of each category to be
// pairwise related, i.e. to form one chain up to a root.
func (c *checker) checkSingleParent() *Violation {
	for _, id := range c.categories {
		anc := c.ancestors[id]
		for i := 0; i < len(anc); i++ {
			for j := i + 1; j < len(anc); j++ {
				a1, a2 := anc[i], anc[j]
				if c.rows[model.ClosurePath{Ancestor: a1, Descendant: a2}] ||
					c.rows[model.ClosurePath{Ancestor: a2, Descendant: a1}] {
					continue
				}
				return &Violation{
					Invariant: SingleParent,
					Message:   fmt.Sprintf("category %d has unrelated ancestors %d and %d", id, a1, a2),
					Rows: []model.ClosurePath{
						{Ancestor: a1, Descendant: id},
						{Ancestor: a2, Descendant: id},
					},
					CategoryIDs: []model.CategoryID{id},
				}
			}
		}
	}
	return nil
}
