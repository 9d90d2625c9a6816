package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/store"
	"github.com/roach88/taxon/internal/validate"
)

// Engine runs taxonomy queries and mutations against a closure-table store.
//
// Thread-safety: all methods are safe for concurrent use. Each call opens
// its own transaction; overlapping write transactions are serialized by
// the store.
type Engine struct {
	store  *store.Store
	strict bool
	opIDs  OpIDGenerator
	logger *slog.Logger
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithStrictValidation enables the precommit validator. Every mutation
// then re-checks all closure invariants before committing.
//
// Default: false. Strict mode reads both tables in full per mutation.
func WithStrictValidation(strict bool) EngineOption {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithOpIDGenerator sets the generator for mutation operation IDs.
//
// Default: UUIDv7Generator. Tests use testutil.SequentialOpIDGenerator.
func WithOpIDGenerator(gen OpIDGenerator) EngineOption {
	return func(e *Engine) {
		e.opIDs = gen
	}
}

// WithLogger sets the logger for mutation logs.
//
// Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over s.
func New(s *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  s,
		opIDs:  UUIDv7Generator{},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Strict reports whether the precommit validator is enabled.
func (e *Engine) Strict() bool {
	return e.strict
}

// read runs fn in a read transaction and classifies its error.
func (e *Engine) read(ctx context.Context, op string, fn func(tx *store.Tx) error) error {
	return classify(op, e.store.WithReadTx(ctx, fn))
}

// mutate runs fn in a write transaction tagged with a fresh operation ID.
// In strict mode the validator runs after fn, inside the same transaction.
func (e *Engine) mutate(ctx context.Context, op string, fn func(tx *store.Tx, log *slog.Logger) error) error {
	log := e.logger.With("op", op, "op_id", e.opIDs.Generate())
	log.Debug("mutation starting")

	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := fn(tx, log); err != nil {
			return err
		}
		if e.strict {
			return precommit(ctx, op, tx)
		}
		return nil
	})
	if err != nil {
		err = classify(op, err)
		log.Warn("mutation rolled back",
			"code", CodeOf(err),
			"error", err,
		)
		return err
	}

	log.Info("mutation committed")
	return nil
}

func precommit(ctx context.Context, op string, tx *store.Tx) error {
	snap, err := tx.ReadSnapshot(ctx)
	if err != nil {
		return err
	}
	if v := validate.Check(snap); v != nil {
		return violationError(op, v)
	}
	return nil
}

// ConsistencyReport is the result of a standalone validation run.
type ConsistencyReport struct {
	Categories int                 `json:"categories"`
	Paths      int                 `json:"paths"`
	Violation  *validate.Violation `json:"violation,omitempty"`
}

// OK reports whether the snapshot satisfied every invariant.
func (r ConsistencyReport) OK() bool {
	return r.Violation == nil
}

// Validate checks every closure invariant against the current contents of
// the store. A violation is reported in the result, not as an error; the
// error is non-nil only when the snapshot could not be read.
func (e *Engine) Validate(ctx context.Context) (ConsistencyReport, error) {
	var snap model.Snapshot
	err := e.read(ctx, "validate", func(tx *store.Tx) error {
		var err error
		snap, err = tx.ReadSnapshot(ctx)
		return err
	})
	if err != nil {
		return ConsistencyReport{}, err
	}

	report := ConsistencyReport{
		Categories: len(snap.Categories),
		Paths:      len(snap.Paths),
		Violation:  validate.Check(snap),
	}
	if !report.OK() {
		e.logger.Warn("consistency check failed",
			"invariant", report.Violation.Invariant,
			"message", report.Violation.Message,
		)
	}
	return report, nil
}

// requireCategory returns NOT_FOUND if id has no category row.
func requireCategory(ctx context.Context, tx *store.Tx, op string, id model.CategoryID) error {
	ok, err := tx.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundError(op, id)
	}
	return nil
}
