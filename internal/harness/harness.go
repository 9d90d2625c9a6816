package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/taxon/internal/engine"
	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/store"
	"github.com/roach88/taxon/internal/testutil"
)

// Harness executes scenario steps against a real engine and store.
type Harness struct {
	engine *engine.Engine
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential operation IDs and discarded logs.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Seed the named fixture
// 3. Execute steps, checking each against its expectation
// 4. Evaluate assertions against the final state
//
// Step and assertion mismatches are reported in Result.Errors. The returned
// error is non-nil only if the scenario could not be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if err := seed(ctx, st, scenario.Fixture); err != nil {
		return nil, fmt.Errorf("failed to seed fixture: %w", err)
	}

	eng := engine.New(st,
		engine.WithStrictValidation(scenario.Strict),
		engine.WithOpIDGenerator(testutil.NewSequentialOpIDGenerator()),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	h := &Harness{engine: eng}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	for _, errMsg := range EvaluateAssertions(ctx, eng, scenario.Assertions) {
		result.AddError(errMsg)
	}

	final, err := readSnapshot(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.Final = final

	return result, nil
}

// executeStep runs one mutation and records its outcome.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	ev := TraceEvent{
		Step:   index + 1,
		Op:     step.Op,
		ID:     int64(step.ID),
		Name:   step.Name,
		Policy: string(step.Policy),
	}
	if step.Parent != nil {
		p := int64(*step.Parent)
		ev.Parent = &p
	}

	var err error
	switch step.Op {
	case OpInsert:
		var c model.Category
		c, err = h.engine.Insert(ctx, step.Name, step.Parent)
		if err == nil {
			ev.ID = int64(c.ID)
			if step.ExpectID != 0 && c.ID != step.ExpectID {
				result.AddError(fmt.Sprintf("step %d (insert): expected id %d, got %d",
					ev.Step, step.ExpectID, c.ID))
			}
		}
	case OpMove:
		err = h.engine.Move(ctx, step.ID, step.Parent)
	case OpRemove:
		err = h.engine.Remove(ctx, step.ID, step.Policy)
	case OpRename:
		_, err = h.engine.Rename(ctx, step.ID, step.Name)
	}

	ev.Outcome = "ok"
	if err != nil {
		ev.Outcome = string(engine.CodeOf(err))
	}
	result.AddTrace(ev)

	switch {
	case step.ExpectError == "" && err != nil:
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", ev.Step, step.Op, err))
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got success",
			ev.Step, step.Op, step.ExpectError))
	case step.ExpectError != "" && ev.Outcome != step.ExpectError:
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %v",
			ev.Step, step.Op, step.ExpectError, err))
	}
}

// Fixture returns the seed rows for a fixture name.
func Fixture(name string) (testutil.Fixture, error) {
	switch name {
	case "":
		return testutil.Fixture{}, nil
	case FixtureSubjects:
		return testutil.SubjectFixture(), nil
	case FixtureSubjectsRaw:
		return testutil.RawSubjectFixture(), nil
	default:
		return testutil.Fixture{}, fmt.Errorf("unknown fixture %q", name)
	}
}

// seed writes the named fixture's rows verbatim in one transaction.
func seed(ctx context.Context, st *store.Store, name string) error {
	f, err := Fixture(name)
	if err != nil {
		return err
	}

	return st.WithTx(ctx, func(tx *store.Tx) error {
		for _, c := range f.Categories {
			if err := tx.InsertCategoryWithID(ctx, c); err != nil {
				return err
			}
		}
		for _, p := range f.Paths {
			if err := tx.InsertPath(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func readSnapshot(ctx context.Context, st *store.Store) (model.Snapshot, error) {
	var snap model.Snapshot
	err := st.WithReadTx(ctx, func(tx *store.Tx) error {
		var err error
		snap, err = tx.ReadSnapshot(ctx)
		return err
	})
	return snap, err
}
