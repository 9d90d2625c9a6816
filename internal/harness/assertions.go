package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/taxon/internal/engine"
	"github.com/roach88/taxon/internal/model"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	ID       model.CategoryID
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.ID != 0 {
		fmt.Fprintf(&buf, "(%d)", e.ID)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)

	return buf.String()
}

// EvaluateAssertions evaluates every assertion against the engine's current
// state and returns the failure messages, in assertion order.
func EvaluateAssertions(ctx context.Context, eng *engine.Engine, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluateAssertion(ctx, eng, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluateAssertion(ctx context.Context, eng *engine.Engine, a Assertion) error {
	switch a.Type {
	case AssertSubtree:
		return assertIDs(a, func() ([]model.Category, error) { return eng.Subtree(ctx, a.ID) })
	case AssertLeaves:
		return assertIDs(a, func() ([]model.Category, error) { return eng.LeafFrontier(ctx, a.ID) })
	case AssertChildren:
		return assertIDs(a, func() ([]model.Category, error) { return eng.Children(ctx, a.ID) })
	case AssertAncestors:
		return assertIDs(a, func() ([]model.Category, error) { return eng.Ancestors(ctx, a.ID) })
	case AssertRoots:
		return assertIDs(a, func() ([]model.Category, error) { return eng.Roots(ctx) })
	case AssertParent:
		return assertIDs(a, func() ([]model.Category, error) {
			parent, err := eng.Parent(ctx, a.ID)
			if err != nil || parent == nil {
				return nil, err
			}
			return []model.Category{*parent}, nil
		})
	case AssertCategory:
		return assertCategory(ctx, eng, a)
	case AssertConsistent:
		return assertConsistent(ctx, eng, a)
	case AssertViolation:
		return assertViolation(ctx, eng, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertIDs compares a query's result IDs, in order, against a.Expect.
func assertIDs(a Assertion, query func() ([]model.Category, error)) error {
	cats, err := query()
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			ID:       a.ID,
			Expected: formatIDs(a.Expect),
			Actual:   fmt.Sprintf("error: %v", err),
		}
	}

	got := model.IDs(cats)
	if !equalIDs(got, a.Expect) {
		return &AssertionError{
			Type:     a.Type,
			ID:       a.ID,
			Expected: formatIDs(a.Expect),
			Actual:   formatIDs(got),
		}
	}
	return nil
}

func assertCategory(ctx context.Context, eng *engine.Engine, a Assertion) error {
	c, err := eng.Get(ctx, a.ID)

	if a.Name == "" {
		if engine.IsNotFound(err) {
			return nil
		}
		actual := fmt.Sprintf("%q", c.Name)
		if err != nil {
			actual = fmt.Sprintf("error: %v", err)
		}
		return &AssertionError{Type: a.Type, ID: a.ID, Expected: "category absent", Actual: actual}
	}

	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			ID:       a.ID,
			Expected: fmt.Sprintf("%q", a.Name),
			Actual:   fmt.Sprintf("error: %v", err),
		}
	}
	if c.Name != a.Name {
		return &AssertionError{
			Type:     a.Type,
			ID:       a.ID,
			Expected: fmt.Sprintf("%q", a.Name),
			Actual:   fmt.Sprintf("%q", c.Name),
		}
	}
	return nil
}

func assertConsistent(ctx context.Context, eng *engine.Engine, a Assertion) error {
	report, err := eng.Validate(ctx)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "no violation", Actual: fmt.Sprintf("error: %v", err)}
	}
	if !report.OK() {
		return &AssertionError{Type: a.Type, Expected: "no violation", Actual: report.Violation.Error()}
	}
	return nil
}

func assertViolation(ctx context.Context, eng *engine.Engine, a Assertion) error {
	report, err := eng.Validate(ctx)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: a.Invariant, Actual: fmt.Sprintf("error: %v", err)}
	}
	if report.OK() {
		return &AssertionError{Type: a.Type, Expected: a.Invariant, Actual: "no violation"}
	}
	if string(report.Violation.Invariant) != a.Invariant {
		return &AssertionError{Type: a.Type, Expected: a.Invariant, Actual: report.Violation.Error()}
	}
	return nil
}

// equalIDs compares two ID lists in order, treating nil and empty as equal.
func equalIDs(got, want []model.CategoryID) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func formatIDs(ids []model.CategoryID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
