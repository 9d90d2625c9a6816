package querysql

import (
	"fmt"

	"github.com/roach88/taxon/internal/model"
)

// Kind selects one of the closure-table read shapes.
type Kind int

const (
	// Subtree selects every strict descendant of ID.
	Subtree Kind = iota + 1

	// LeafFrontier selects the members of ID's subtree (ID included) that
	// have no strict descendants.
	LeafFrontier

	// ClosestAncestor selects the strict ancestors of ID below which no other
	// strict ancestor of ID lies. A consistent closure yields zero or one row.
	ClosestAncestor

	// Children selects the strict descendants of ID whose closest ancestor is ID.
	Children

	// Ancestors selects every strict ancestor of ID, root first.
	Ancestors

	// Roots selects every category without strict ancestors. ID is ignored.
	Roots
)

var kindNames = map[Kind]string{
	Subtree:         "subtree",
	LeafFrontier:    "leaf_frontier",
	ClosestAncestor: "closest_ancestor",
	Children:        "children",
	Ancestors:       "ancestors",
	Roots:           "roots",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Query is a closure-table read anchored at one category.
type Query struct {
	Kind Kind
	ID   model.CategoryID
}

// SQLCompiler compiles closure queries to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
//
// Every compiled statement selects exactly (category_id, category_name).
// The predicates never rely on reflexive rows being present: strictness is
// expressed as ancestor <> descendant rather than by subtracting (c, c).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a closure query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q Query) (string, []any, error) {
	if q.Kind != Roots && q.ID <= 0 {
		return "", nil, fmt.Errorf("compile %s: invalid category id %d", q.Kind, q.ID)
	}

	switch q.Kind {
	case Subtree:
		return c.compileSubtree(q.ID)
	case LeafFrontier:
		return c.compileLeafFrontier(q.ID)
	case ClosestAncestor:
		return c.compileClosestAncestor(q.ID)
	case Children:
		return c.compileChildren(q.ID)
	case Ancestors:
		return c.compileAncestors(q.ID)
	case Roots:
		return c.compileRoots()
	default:
		return "", nil, fmt.Errorf("unsupported query kind: %s", q.Kind)
	}
}

const selectColumns = "SELECT c.category_id, c.category_name FROM category c"

// stableOrderKey returns the ORDER BY clause shared by every query.
// MANDATORY: every compiled query ends with this key.
func (c *SQLCompiler) stableOrderKey() string {
	return " ORDER BY c.category_id ASC"
}

func (c *SQLCompiler) compileSubtree(id model.CategoryID) (string, []any, error) {
	sql := selectColumns + `
		JOIN category_path p ON c.category_id = p.descendant
		WHERE p.ancestor = ?
		AND p.descendant <> p.ancestor` + c.stableOrderKey()
	return sql, []any{int64(id)}, nil
}

// compileLeafFrontier matches the root itself even when its reflexive row
// is missing, so a leaf root always reports itself.
func (c *SQLCompiler) compileLeafFrontier(id model.CategoryID) (string, []any, error) {
	sql := selectColumns + `
		WHERE (c.category_id = ? OR EXISTS (
			SELECT 1 FROM category_path p
			WHERE p.ancestor = ? AND p.descendant = c.category_id
		))
		AND NOT EXISTS (
			SELECT 1 FROM category_path below
			WHERE below.ancestor = c.category_id
			AND below.descendant <> below.ancestor
		)` + c.stableOrderKey()
	return sql, []any{int64(id), int64(id)}, nil
}

// compileClosestAncestor keeps a strict ancestor only if no other strict
// ancestor of the node is one of its descendants.
func (c *SQLCompiler) compileClosestAncestor(id model.CategoryID) (string, []any, error) {
	sql := selectColumns + `
		JOIN category_path up ON c.category_id = up.ancestor
		WHERE up.descendant = ?
		AND up.ancestor <> up.descendant
		AND NOT EXISTS (
			SELECT 1 FROM category_path mid
			JOIN category_path link
				ON link.ancestor = up.ancestor AND link.descendant = mid.ancestor
			WHERE mid.descendant = up.descendant
			AND mid.ancestor <> mid.descendant
			AND mid.ancestor <> up.ancestor
		)` + c.stableOrderKey()
	return sql, []any{int64(id)}, nil
}

// compileChildren keeps a strict descendant only if none of its other strict
// ancestors sits below the anchor.
func (c *SQLCompiler) compileChildren(id model.CategoryID) (string, []any, error) {
	sql := selectColumns + `
		JOIN category_path down ON c.category_id = down.descendant
		WHERE down.ancestor = ?
		AND down.descendant <> down.ancestor
		AND NOT EXISTS (
			SELECT 1 FROM category_path mid
			JOIN category_path link
				ON link.ancestor = down.ancestor AND link.descendant = mid.ancestor
			WHERE mid.descendant = down.descendant
			AND mid.ancestor <> mid.descendant
			AND mid.ancestor <> down.ancestor
		)` + c.stableOrderKey()
	return sql, []any{int64(id)}, nil
}

// compileAncestors orders by depth (number of strict ancestors) before the
// stable key so the root comes first.
func (c *SQLCompiler) compileAncestors(id model.CategoryID) (string, []any, error) {
	sql := selectColumns + `
		JOIN category_path up ON c.category_id = up.ancestor
		WHERE up.descendant = ?
		AND up.ancestor <> up.descendant
		ORDER BY (
			SELECT COUNT(*) FROM category_path depth
			WHERE depth.descendant = c.category_id
			AND depth.ancestor <> depth.descendant
		) ASC, c.category_id ASC`
	return sql, []any{int64(id)}, nil
}

func (c *SQLCompiler) compileRoots() (string, []any, error) {
	sql := selectColumns + `
		WHERE NOT EXISTS (
			SELECT 1 FROM category_path up
			WHERE up.descendant = c.category_id
			AND up.ancestor <> up.descendant
		)` + c.stableOrderKey()
	return sql, []any{}, nil
}
