package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/store"
	"github.com/roach88/taxon/internal/testutil"
	"github.com/roach88/taxon/internal/validate"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine returns an engine over an empty store with quiet logging
// and sequential operation IDs.
func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	base := []EngineOption{
		WithLogger(discardLogger()),
		WithOpIDGenerator(testutil.NewSequentialOpIDGenerator()),
	}
	return New(s, append(base, opts...)...), s
}

// newSubjectEngine returns an engine seeded with the consistent subject
// fixture.
func newSubjectEngine(t *testing.T, opts ...EngineOption) (*Engine, *store.Store) {
	t.Helper()
	e, s := newTestEngine(t, opts...)
	seedFixture(t, s, testutil.SubjectFixture())
	return e, s
}

func seedFixture(t *testing.T, s *store.Store, f testutil.Fixture) {
	t.Helper()
	ctx := context.Background()
	err := s.WithTx(ctx, func(tx *store.Tx) error {
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
	require.NoError(t, err)
}

func readSnapshot(t *testing.T, s *store.Store) model.Snapshot {
	t.Helper()
	var snap model.Snapshot
	err := s.WithReadTx(context.Background(), func(tx *store.Tx) error {
		var err error
		snap, err = tx.ReadSnapshot(context.Background())
		return err
	})
	require.NoError(t, err)
	return snap
}

// requireConsistent fails the test if the store breaks any invariant.
func requireConsistent(t *testing.T, s *store.Store) {
	t.Helper()
	if v := validate.Check(readSnapshot(t, s)); v != nil {
		t.Fatalf("closure inconsistent: %v", v)
	}
}

func ids(cats []model.Category) []model.CategoryID {
	return model.IDs(cats)
}

func idPtr(id model.CategoryID) *model.CategoryID {
	return &id
}

func TestEngine_NewDefaults(t *testing.T) {
	s := setupTestStore(t)
	e := New(s)

	assert.False(t, e.Strict())
	assert.IsType(t, UUIDv7Generator{}, e.opIDs)
	assert.NotNil(t, e.logger)
}

func TestEngine_Options(t *testing.T) {
	s := setupTestStore(t)
	gen := testutil.NewSequentialOpIDGenerator()
	logger := discardLogger()

	e := New(s, WithStrictValidation(true), WithOpIDGenerator(gen), WithLogger(logger))

	assert.True(t, e.Strict())
	assert.Same(t, gen, e.opIDs)
	assert.Same(t, logger, e.logger)
}

func TestEngine_MutationLogsOpID(t *testing.T) {
	s := setupTestStore(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(s, WithLogger(logger), WithOpIDGenerator(testutil.NewSequentialOpIDGenerator()))

	_, err := e.Insert(context.Background(), "数学", nil)
	require.NoError(t, err)
	err = e.Move(context.Background(), 1, idPtr(1))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="mutation committed" op=insert op_id=op-1`)
	assert.Contains(t, out, `msg="mutation rolled back" op=move op_id=op-2 code=CYCLE_DETECTED`)
}

func TestEngine_Validate(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		e, _ := newSubjectEngine(t)

		report, err := e.Validate(context.Background())
		require.NoError(t, err)

		assert.True(t, report.OK())
		assert.Equal(t, 9, report.Categories)
		assert.Equal(t, 19, report.Paths)
	})

	t.Run("drifted", func(t *testing.T) {
		e, s := newTestEngine(t)
		seedFixture(t, s, testutil.RawSubjectFixture())

		report, err := e.Validate(context.Background())
		require.NoError(t, err)

		require.False(t, report.OK())
		assert.Equal(t, validate.Reflexivity, report.Violation.Invariant)
		assert.Equal(t, []model.CategoryID{2}, report.Violation.CategoryIDs)
	})

	t.Run("empty store", func(t *testing.T) {
		e, _ := newTestEngine(t)

		report, err := e.Validate(context.Background())
		require.NoError(t, err)
		assert.True(t, report.OK())
		assert.Zero(t, report.Categories)
	})
}

func TestEngine_StorageUnavailable(t *testing.T) {
	e, s := newSubjectEngine(t)
	require.NoError(t, s.Close())

	_, err := e.Subtree(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsStorageUnavailable(err))

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "subtree", engErr.Op)
	assert.NotNil(t, engErr.Unwrap())

	_, err = e.Insert(context.Background(), "x", nil)
	assert.True(t, IsStorageUnavailable(err))
}

func TestEngine_CancelledContext(t *testing.T) {
	e, _ := newSubjectEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Move(ctx, 2, idPtr(7))
	require.Error(t, err)
	assert.True(t, IsStorageUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
}
