package testutil

import "github.com/roach88/taxon/internal/model"

// Fixture is a set of raw rows for both tables.
type Fixture struct {
	Categories []model.Category
	Paths      []model.ClosurePath
}

// subjectCategories are the nine subject categories: a 数学 tree
// (1 → 2 → {4, 5}, 1 → 3 → 6) and a disjoint 英語 tree (7 → {8, 9}).
var subjectCategories = []model.Category{
	{ID: 1, Name: "数学"},
	{ID: 2, Name: "高校数学"},
	{ID: 3, Name: "中学数学"},
	{ID: 4, Name: "磁性流体"},
	{ID: 5, Name: "ベクトル"},
	{ID: 6, Name: "分数"},
	{ID: 7, Name: "英語"},
	{ID: 8, Name: "高校英語"},
	{ID: 9, Name: "中学英語"},
}

// rawSubjectPaths carries reflexive rows for the two roots only.
var rawSubjectPaths = []model.ClosurePath{
	{Ancestor: 1, Descendant: 1},
	{Ancestor: 1, Descendant: 2},
	{Ancestor: 1, Descendant: 3},
	{Ancestor: 1, Descendant: 4},
	{Ancestor: 1, Descendant: 5},
	{Ancestor: 1, Descendant: 6},
	{Ancestor: 2, Descendant: 4},
	{Ancestor: 2, Descendant: 5},
	{Ancestor: 3, Descendant: 6},
	{Ancestor: 7, Descendant: 7},
	{Ancestor: 7, Descendant: 8},
	{Ancestor: 7, Descendant: 9},
}

// SubjectFixture returns the subject taxonomy with a complete closure:
// every category has its reflexive row. It satisfies every invariant.
func SubjectFixture() Fixture {
	f := RawSubjectFixture()
	for _, c := range f.Categories {
		if c.ID == 1 || c.ID == 7 {
			continue // already present
		}
		f.Paths = append(f.Paths, model.ClosurePath{Ancestor: c.ID, Descendant: c.ID})
	}
	model.SortPaths(f.Paths)
	return f
}

// RawSubjectFixture returns the subject taxonomy exactly as the legacy SQL
// seed wrote it: reflexive rows exist only for the roots 1 and 7, so it
// violates reflexivity. Useful for drift diagnostics and for checking that
// the read queries tolerate missing reflexive rows.
func RawSubjectFixture() Fixture {
	cats := make([]model.Category, len(subjectCategories))
	copy(cats, subjectCategories)
	paths := make([]model.ClosurePath, len(rawSubjectPaths))
	copy(paths, rawSubjectPaths)
	return Fixture{Categories: cats, Paths: paths}
}

// Snapshot returns the fixture as a model.Snapshot.
func (f Fixture) Snapshot() model.Snapshot {
	return model.Snapshot{Categories: f.Categories, Paths: f.Paths}
}
