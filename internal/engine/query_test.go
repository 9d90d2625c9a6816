package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/testutil"
)

func TestSubtree(t *testing.T) {
	e, _ := newSubjectEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		root model.CategoryID
		want []model.CategoryID
	}{
		{"intermediate node", 2, []model.CategoryID{4, 5}},
		{"root", 1, []model.CategoryID{2, 3, 4, 5, 6}},
		{"other root", 7, []model.CategoryID{8, 9}},
		{"single child", 3, []model.CategoryID{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Subtree(ctx, tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSubtree_LeafIsEmptyNotNil(t *testing.T) {
	e, _ := newSubjectEngine(t)

	got, err := e.Subtree(context.Background(), 4)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSubtree_CarriesNames(t *testing.T) {
	e, _ := newSubjectEngine(t)

	got, err := e.Subtree(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{
		{ID: 4, Name: "磁性流体"},
		{ID: 5, Name: "ベクトル"},
	}, got)
}

func TestSubtree_DisjointTrees(t *testing.T) {
	e, _ := newSubjectEngine(t)

	got, err := e.Subtree(context.Background(), 1)
	require.NoError(t, err)
	for _, id := range []model.CategoryID{7, 8, 9} {
		assert.NotContains(t, ids(got), id)
	}

	got, err = e.Subtree(context.Background(), 7)
	require.NoError(t, err)
	for _, id := range []model.CategoryID{1, 2, 3, 4, 5, 6} {
		assert.NotContains(t, ids(got), id)
	}
}

func TestLeafFrontier(t *testing.T) {
	e, _ := newSubjectEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		root model.CategoryID
		want []model.CategoryID
	}{
		{"root", 1, []model.CategoryID{4, 5, 6}},
		{"intermediate node", 2, []model.CategoryID{4, 5}},
		{"leaf yields itself", 4, []model.CategoryID{4}},
		{"other root", 7, []model.CategoryID{8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.LeafFrontier(ctx, tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestParent(t *testing.T) {
	e, _ := newSubjectEngine(t)
	ctx := context.Background()

	parent, err := e.Parent(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, model.Category{ID: 1, Name: "数学"}, *parent)

	parent, err = e.Parent(ctx, 6)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, model.CategoryID(3), parent.ID)

	parent, err = e.Parent(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, model.CategoryID(2), parent.ID)
}

func TestParent_RootHasNone(t *testing.T) {
	e, _ := newSubjectEngine(t)

	for _, id := range []model.CategoryID{1, 7} {
		parent, err := e.Parent(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, parent, "category %d", id)
	}
}

func TestParent_MultipleCandidates(t *testing.T) {
	e, s := newTestEngine(t)
	seedFixture(t, s, testutil.Fixture{
		Categories: []model.Category{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}},
		Paths: []model.ClosurePath{
			{Ancestor: 1, Descendant: 1},
			{Ancestor: 1, Descendant: 3},
			{Ancestor: 2, Descendant: 2},
			{Ancestor: 2, Descendant: 3},
			{Ancestor: 3, Descendant: 3},
		},
	})

	_, err := e.Parent(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, IsIntegrityViolation(err))

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, []model.CategoryID{1, 2}, engErr.Related)
}

func TestQueries_NotFound(t *testing.T) {
	e, _ := newSubjectEngine(t)
	ctx := context.Background()
	const missing = model.CategoryID(99)

	_, err := e.Subtree(ctx, missing)
	assert.True(t, IsNotFound(err), "subtree: %v", err)

	_, err = e.LeafFrontier(ctx, missing)
	assert.True(t, IsNotFound(err), "leaf frontier: %v", err)

	_, err = e.Parent(ctx, missing)
	assert.True(t, IsNotFound(err), "parent: %v", err)

	_, err = e.Children(ctx, missing)
	assert.True(t, IsNotFound(err), "children: %v", err)

	_, err = e.Ancestors(ctx, missing)
	assert.True(t, IsNotFound(err), "ancestors: %v", err)

	_, err = e.Get(ctx, missing)
	assert.True(t, IsNotFound(err), "get: %v", err)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, missing, engErr.CategoryID)
}

func TestGet(t *testing.T) {
	e, _ := newSubjectEngine(t)

	c, err := e.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.Category{ID: 7, Name: "英語"}, c)
}

func TestChildren(t *testing.T) {
	e, _ := newSubjectEngine(t)
	ctx := context.Background()

	got, err := e.Children(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryID{2, 3}, ids(got))

	got, err = e.Children(ctx, 6)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAncestors_RootFirst(t *testing.T) {
	e, s := newSubjectEngine(t)
	ctx := context.Background()

	// 1 → 3 → 6, then nest 2 under 6: ancestors of 5 are 1, 3, 6, 2.
	require.NoError(t, e.Move(ctx, 2, idPtr(6)))
	requireConsistent(t, s)

	got, err := e.Ancestors(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryID{1, 3, 6, 2}, ids(got))

	got, err = e.Ancestors(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoots(t *testing.T) {
	e, _ := newSubjectEngine(t)

	got, err := e.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryID{1, 7}, ids(got))
}

func TestRoots_EmptyStore(t *testing.T) {
	e, _ := newTestEngine(t)

	got, err := e.Roots(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// The legacy seed data lacks reflexive rows for non-root categories; the
// reads must still give the documented answers over it.
func TestQueries_ToleratesMissingReflexiveRows(t *testing.T) {
	e, s := newTestEngine(t)
	seedFixture(t, s, testutil.RawSubjectFixture())
	ctx := context.Background()

	got, err := e.Subtree(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryID{4, 5}, ids(got))

	got, err = e.LeafFrontier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryID{4, 5, 6}, ids(got))

	parent, err := e.Parent(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, model.Category{ID: 1, Name: "数学"}, *parent)

	got, err = e.Children(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryID{2, 3}, ids(got))
}
