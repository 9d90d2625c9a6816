package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/taxon/internal/engine"
	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/store"
)

// session is an open database plus the engine built over it.
type session struct {
	store  *store.Store
	engine *engine.Engine
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession opens the configured database. The database must already
// exist; "taxon init" creates it.
func openSession(opts *RootOptions, f *OutputFormatter) (*session, error) {
	path := opts.Config.DB
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		msg := fmt.Sprintf("database not found: %s (run 'taxon init')", path)
		_ = f.Error("E_NO_DATABASE", msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(path)
	if err != nil {
		_ = f.Error(string(engine.ErrCodeStorageUnavailable), err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	f.VerboseLog("Opened %s (strict=%t)", path, opts.Config.Strict)
	return &session{
		store:  st,
		engine: engine.New(st, engine.WithStrictValidation(opts.Config.Strict)),
	}, nil
}

// newFormatter builds the output formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// parseIDArg parses a positional category ID argument.
func parseIDArg(f *OutputFormatter, arg string) (model.CategoryID, error) {
	id, err := model.ParseCategoryID(arg)
	if err != nil {
		return 0, f.UsageError(err)
	}
	return id, nil
}
