package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/taxon/internal/model"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Insert a category",
		Long: `Insert a category as a root, or under --parent.

Examples:
  taxon add 数学
  taxon add 高校数学 --parent 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			var parentID *model.CategoryID
			if cmd.Flags().Changed("parent") {
				id, err := parseIDArg(f, parent)
				if err != nil {
					return err
				}
				parentID = &id
			}

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			c, err := sess.engine.Insert(cmd.Context(), args[0], parentID)
			if err != nil {
				return f.EngineError(err)
			}
			return f.Success(c)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent category ID (default: insert as root)")

	return cmd
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		parent string
		toRoot bool
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a category and its subtree",
		Long: `Move a category, with its whole subtree, under a new parent or to
the top level. Moving a category under itself or one of its descendants
is rejected with CYCLE_DETECTED.

Examples:
  taxon move 4 --parent 3
  taxon move 4 --root`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			id, err := parseIDArg(f, args[0])
			if err != nil {
				return err
			}

			var parentID *model.CategoryID
			if !toRoot {
				pid, err := parseIDArg(f, parent)
				if err != nil {
					return err
				}
				parentID = &pid
			}

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.engine.Move(cmd.Context(), id, parentID); err != nil {
				return f.EngineError(err)
			}
			return f.Success(moveResult{ID: id, Parent: parentID})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "new parent category ID")
	cmd.Flags().BoolVar(&toRoot, "root", false, "move to the top level")
	cmd.MarkFlagsOneRequired("parent", "root")
	cmd.MarkFlagsMutuallyExclusive("parent", "root")

	return cmd
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a category",
		Long: `Remove a category. With policy "reject" a category that has
descendants is refused with HAS_CHILDREN; with "reparent" its direct
children move under its parent (or become roots) first.

The default policy comes from the config file's remove_policy.

Examples:
  taxon rm 6
  taxon rm 2 --policy reparent`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			id, err := parseIDArg(f, args[0])
			if err != nil {
				return err
			}

			name := rootOpts.Config.RemovePolicy
			if cmd.Flags().Changed("policy") {
				name = policy
			}
			p, err := model.ParseRemovePolicy(name)
			if err != nil {
				return f.UsageError(err)
			}

			sess, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.engine.Remove(cmd.Context(), id, p); err != nil {
				return f.EngineError(err)
			}
			return f.Success(removeResult{ID: id, Policy: p})
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "removal policy (reject|reparent)")

	return cmd
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category",
		Long: `Change a category's name. The closure table is not touched.

Example:
  taxon rename 4 磁性`,
		Args:          cobra.ExactArgs(2),
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

			c, err := sess.engine.Rename(cmd.Context(), id, args[1])
			if err != nil {
				return f.EngineError(err)
			}
			return f.Success(c)
		},
	}
}
