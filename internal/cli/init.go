package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/taxon/internal/engine"
	"github.com/roach88/taxon/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and apply the schema",
		Long: `Create the SQLite database if it does not exist, apply the schema
and run pending migrations. Safe to run against an existing database.

Examples:
  taxon init
  taxon --db subjects.db init`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			path := rootOpts.Config.DB

			st, err := store.Open(path)
			if err != nil {
				_ = f.Error(string(engine.ErrCodeStorageUnavailable), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to initialize database", err)
			}
			defer st.Close()

			version, err := st.SchemaVersion(cmd.Context())
			if err != nil {
				_ = f.Error(string(engine.ErrCodeStorageUnavailable), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read schema version", err)
			}

			return f.Success(initResult{Database: path, SchemaVersion: version})
		},
	}
}
