package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/taxon/internal/engine"
	"github.com/roach88/taxon/internal/model"
)

// listQuery is an engine query keyed by a category ID.
type listQuery func(eng *engine.Engine, ctx context.Context, id model.CategoryID) ([]model.Category, error)

// newListCommand builds a read-only command that prints the categories a
// per-ID query returns.
func newListCommand(rootOpts *RootOptions, use, short, long string, query listQuery) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <id>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			id, err := parseIDArg(f, args[0])
			if err != nil {
				return err
			}

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			cats, err := query(sess.engine, cmd.Context(), id)
			if err != nil {
				return f.EngineError(err)
			}
			return f.Success(newCategoryList(cats))
		},
	}
}

// NewSubtreeCommand creates the subtree command.
func NewSubtreeCommand(rootOpts *RootOptions) *cobra.Command {
	return newListCommand(rootOpts, "subtree", "List strict descendants",
		`List every strict descendant of a category, ordered by ID.

Example:
  taxon subtree 2`,
		(*engine.Engine).Subtree)
}

// NewLeavesCommand creates the leaves command.
func NewLeavesCommand(rootOpts *RootOptions) *cobra.Command {
	return newListCommand(rootOpts, "leaves", "List leaf descendants",
		`List the members of a category's subtree, the category included,
that have no descendants of their own, ordered by ID. A leaf category
is its own frontier.

Example:
  taxon leaves 1`,
		(*engine.Engine).LeafFrontier)
}

// NewChildrenCommand creates the children command.
func NewChildrenCommand(rootOpts *RootOptions) *cobra.Command {
	return newListCommand(rootOpts, "children", "List direct children",
		`List the categories whose parent is the given category.

Example:
  taxon children 7`,
		(*engine.Engine).Children)
}

// NewAncestorsCommand creates the ancestors command.
func NewAncestorsCommand(rootOpts *RootOptions) *cobra.Command {
	return newListCommand(rootOpts, "ancestors", "List strict ancestors",
		`List the strict ancestors of a category from the root down.

Example:
  taxon ancestors 6`,
		(*engine.Engine).Ancestors)
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Show a category",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			id, err := parseIDArg(f, args[0])
			if err != nil {
				return err
			}

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			c, err := sess.engine.Get(cmd.Context(), id)
			if err != nil {
				return f.EngineError(err)
			}
			return f.Success(c)
		},
	}
}

// NewParentCommand creates the parent command.
func NewParentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <id>",
		Short: "Show the closest ancestor",
		Long: `Show the closest strict ancestor of a category, or "(root)" for a
top-level category.

Example:
  taxon parent 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			id, err := parseIDArg(f, args[0])
			if err != nil {
				return err
			}

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			p, err := sess.engine.Parent(cmd.Context(), id)
			if err != nil {
				return f.EngineError(err)
			}
			return f.Success(parentResult{Parent: p})
		},
	}
}

// NewRootsCommand creates the roots command.
func NewRootsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "roots",
		Short:         "List top-level categories",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			cats, err := sess.engine.Roots(cmd.Context())
			if err != nil {
				return f.EngineError(err)
			}
			return f.Success(newCategoryList(cats))
		},
	}
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify closure-table invariants",
		Long: `Read both tables in one transaction and verify uniqueness,
referential integrity, reflexivity, acyclicity, transitivity and single
parent. The first violation found is reported.

Exit codes:
  0 - All invariants hold
  1 - An invariant is violated
  2 - Command error (database not found, storage failure)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			report, err := sess.engine.Validate(cmd.Context())
			if err != nil {
				return f.EngineError(err)
			}
			if !report.OK() {
				_ = f.Error(string(engine.ErrCodeIntegrityViolation), report.Violation.Error(), report)
				return WrapExitError(ExitFailure, "consistency check failed", report.Violation)
			}
			return f.Success(checkResult(report))
		},
	}
}
