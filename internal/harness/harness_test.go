package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxon/internal/model"
)

func idp(id model.CategoryID) *model.CategoryID {
	return &id
}

func TestRun_EmptyStore(t *testing.T) {
	result, err := Run(&Scenario{
		Name: "empty",
		Steps: []Step{
			{Op: OpInsert, Name: "数学", ExpectID: 1},
			{Op: OpInsert, Name: "高校数学", Parent: idp(1), ExpectID: 2},
		},
		Assertions: []Assertion{
			{Type: AssertSubtree, ID: 1, Expect: []model.CategoryID{2}},
			{Type: AssertConsistent},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceEvent{Step: 1, Op: OpInsert, ID: 1, Name: "数学", Outcome: "ok"}, result.Trace[0])
	assert.Len(t, result.Final.Categories, 2)
	assert.Len(t, result.Final.Paths, 3)
}

func TestRun_ExpectedErrorPasses(t *testing.T) {
	result, err := Run(&Scenario{
		Name:    "cycle",
		Fixture: FixtureSubjects,
		Steps: []Step{
			{Op: OpMove, ID: 1, Parent: idp(4), ExpectError: "CYCLE_DETECTED"},
		},
		Assertions: []Assertion{{Type: AssertConsistent}},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "CYCLE_DETECTED", result.Trace[0].Outcome)
}

func TestRun_StepMismatches(t *testing.T) {
	result, err := Run(&Scenario{
		Name:    "mismatches",
		Fixture: FixtureSubjects,
		Steps: []Step{
			{Op: OpMove, ID: 2, Parent: idp(7), ExpectError: "CYCLE_DETECTED"},
			{Op: OpRemove, ID: 7, Policy: model.RejectIfHasChildren},
			{Op: OpRemove, ID: 99, Policy: model.RejectIfHasChildren, ExpectError: "HAS_CHILDREN"},
			{Op: OpInsert, Name: "x", ExpectID: 42},
		},
		Assertions: []Assertion{{Type: AssertConsistent}},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "step 1 (move): expected CYCLE_DETECTED, got success")
	assert.Contains(t, result.Errors[1], "step 2 (remove): unexpected error: HAS_CHILDREN")
	assert.Contains(t, result.Errors[2], "step 3 (remove): expected HAS_CHILDREN, got NOT_FOUND")
	assert.Contains(t, result.Errors[3], "step 4 (insert): expected id 42, got 10")
}

func TestRun_AssertionFailuresReported(t *testing.T) {
	result, err := Run(&Scenario{
		Name:    "wrong",
		Fixture: FixtureSubjects,
		Assertions: []Assertion{
			{Type: AssertSubtree, ID: 2, Expect: []model.CategoryID{4}},
			{Type: AssertRoots, Expect: []model.CategoryID{1, 7}},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: subtree(2)")
	assert.Contains(t, result.Errors[0], "Expected: [4]")
	assert.Contains(t, result.Errors[0], "Actual: [4 5]")
}

func TestRun_StrictRollsBackOverDrift(t *testing.T) {
	result, err := Run(&Scenario{
		Name:    "strict",
		Fixture: FixtureSubjectsRaw,
		Strict:  true,
		Steps: []Step{
			{Op: OpRename, ID: 4, Name: "磁性", ExpectError: "INTEGRITY_VIOLATION"},
		},
		Assertions: []Assertion{
			{Type: AssertCategory, ID: 4, Name: "磁性流体"},
			{Type: AssertViolation, Invariant: "reflexivity"},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Final.Paths, 12)
}

func TestRun_IsolatedPerScenario(t *testing.T) {
	scenario := &Scenario{
		Name:       "isolated",
		Steps:      []Step{{Op: OpInsert, Name: "a", ExpectID: 1}},
		Assertions: []Assertion{{Type: AssertRoots, Expect: []model.CategoryID{1}}},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", i, result.Errors)
	}
}

func TestFixture(t *testing.T) {
	f, err := Fixture(FixtureSubjects)
	require.NoError(t, err)
	assert.Len(t, f.Paths, 19)

	f, err = Fixture(FixtureSubjectsRaw)
	require.NoError(t, err)
	assert.Len(t, f.Paths, 12)

	f, err = Fixture("")
	require.NoError(t, err)
	assert.Empty(t, f.Categories)

	_, err = Fixture("planets")
	assert.Error(t, err)
}
