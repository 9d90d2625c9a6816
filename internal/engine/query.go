package engine

import (
	"context"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/querysql"
	"github.com/roach88/taxon/internal/store"
)

// Get returns the category with the given ID.
func (e *Engine) Get(ctx context.Context, id model.CategoryID) (model.Category, error) {
	var c model.Category
	err := e.read(ctx, "get", func(tx *store.Tx) error {
		if err := requireCategory(ctx, tx, "get", id); err != nil {
			return err
		}
		var err error
		c, err = tx.ReadCategory(ctx, id)
		return err
	})
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// Subtree returns every strict descendant of rootID in ascending ID order.
// A leaf yields an empty slice.
func (e *Engine) Subtree(ctx context.Context, rootID model.CategoryID) ([]model.Category, error) {
	return e.query(ctx, "subtree", querysql.Query{Kind: querysql.Subtree, ID: rootID})
}

// LeafFrontier returns the members of rootID's subtree, rootID included,
// that have no strict descendants, in ascending ID order. A leaf yields
// itself.
func (e *Engine) LeafFrontier(ctx context.Context, rootID model.CategoryID) ([]model.Category, error) {
	return e.query(ctx, "leaf_frontier", querysql.Query{Kind: querysql.LeafFrontier, ID: rootID})
}

// Children returns the direct children of id in ascending ID order.
func (e *Engine) Children(ctx context.Context, id model.CategoryID) ([]model.Category, error) {
	return e.query(ctx, "children", querysql.Query{Kind: querysql.Children, ID: id})
}

// Ancestors returns the strict ancestors of id, root first.
func (e *Engine) Ancestors(ctx context.Context, id model.CategoryID) ([]model.Category, error) {
	return e.query(ctx, "ancestors", querysql.Query{Kind: querysql.Ancestors, ID: id})
}

// Roots returns every category without a strict ancestor in ascending ID
// order.
func (e *Engine) Roots(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := e.read(ctx, "roots", func(tx *store.Tx) error {
		var err error
		out, err = tx.Query(ctx, querysql.Query{Kind: querysql.Roots})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Parent returns the closest strict ancestor of id, or nil if id is a root.
//
// More than one candidate means the closure has drifted from a forest;
// Parent reports that as INTEGRITY_VIOLATION rather than picking one.
func (e *Engine) Parent(ctx context.Context, id model.CategoryID) (*model.Category, error) {
	var parent *model.Category
	err := e.read(ctx, "parent", func(tx *store.Tx) error {
		if err := requireCategory(ctx, tx, "parent", id); err != nil {
			return err
		}
		var err error
		parent, err = parentOf(ctx, tx, "parent", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// query runs a single-category closure query after checking the category
// exists.
func (e *Engine) query(ctx context.Context, op string, q querysql.Query) ([]model.Category, error) {
	var out []model.Category
	err := e.read(ctx, op, func(tx *store.Tx) error {
		if err := requireCategory(ctx, tx, op, q.ID); err != nil {
			return err
		}
		var err error
		out, err = tx.Query(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parentOf(ctx context.Context, tx *store.Tx, op string, id model.CategoryID) (*model.Category, error) {
	candidates, err := tx.Query(ctx, querysql.Query{Kind: querysql.ClosestAncestor, ID: id})
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	default:
		return nil, multipleParentsError(op, id, model.IDs(candidates))
	}
}
