package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/querysql"
	"github.com/roach88/taxon/internal/store"
)

// Insert creates a category named name under parentID, or a new root if
// parentID is nil, and returns it with its store-assigned ID.
//
// Writes the reflexive row plus (a, new) for the parent and every ancestor
// of the parent.
func (e *Engine) Insert(ctx context.Context, name string, parentID *model.CategoryID) (model.Category, error) {
	name, err := model.NormalizeName(name)
	if err != nil {
		return model.Category{}, invalidArgumentError("insert", err)
	}

	var created model.Category
	err = e.mutate(ctx, "insert", func(tx *store.Tx, log *slog.Logger) error {
		if parentID != nil {
			if err := requireCategory(ctx, tx, "insert", *parentID); err != nil {
				return err
			}
		}

		id, err := tx.InsertCategory(ctx, name)
		if err != nil {
			return err
		}
		if err := tx.InsertPath(ctx, model.ClosurePath{Ancestor: id, Descendant: id}); err != nil {
			return err
		}

		var inherited int64
		if parentID != nil {
			inherited, err = tx.InheritAncestors(ctx, *parentID, id)
			if err != nil {
				return err
			}
		}

		created = model.Category{ID: id, Name: name}
		log.Debug("category inserted",
			"category_id", id,
			"parent_id", formatParent(parentID),
			"paths_written", inherited+1,
		)
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return created, nil
}

// Move re-parents id and its whole subtree under newParentID, or makes id a
// root if newParentID is nil. Paths internal to the subtree are preserved.
//
// Returns CYCLE_DETECTED if newParentID is id or one of its descendants;
// nothing is written in that case.
func (e *Engine) Move(ctx context.Context, id model.CategoryID, newParentID *model.CategoryID) error {
	return e.mutate(ctx, "move", func(tx *store.Tx, log *slog.Logger) error {
		return moveSubtree(ctx, tx, log, "move", id, newParentID)
	})
}

// Remove deletes category id according to policy.
//
// RejectIfHasChildren fails with HAS_CHILDREN if id has any descendant.
// ReparentChildrenToParent first moves every direct child of id under id's
// parent (children of a root become roots), all in the same transaction.
func (e *Engine) Remove(ctx context.Context, id model.CategoryID, policy model.RemovePolicy) error {
	if !model.ValidRemovePolicies[policy] {
		_, err := model.ParseRemovePolicy(string(policy))
		return invalidArgumentError("remove", err)
	}

	return e.mutate(ctx, "remove", func(tx *store.Tx, log *slog.Logger) error {
		if err := requireCategory(ctx, tx, "remove", id); err != nil {
			return err
		}

		descendants, err := tx.StrictDescendantIDs(ctx, id)
		if err != nil {
			return err
		}

		if len(descendants) > 0 {
			switch policy {
			case model.RejectIfHasChildren:
				return hasChildrenError("remove", id, descendants)
			case model.ReparentChildrenToParent:
				if err := reparentChildren(ctx, tx, log, id); err != nil {
					return err
				}
			}
		}

		deleted, err := tx.DeletePathsOf(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteCategory(ctx, id); err != nil {
			return err
		}

		log.Debug("category removed",
			"category_id", id,
			"policy", policy,
			"paths_deleted", deleted,
		)
		return nil
	})
}

// Rename changes the name of category id. The closure is not touched.
func (e *Engine) Rename(ctx context.Context, id model.CategoryID, name string) (model.Category, error) {
	name, err := model.NormalizeName(name)
	if err != nil {
		return model.Category{}, invalidArgumentError("rename", err)
	}

	err = e.mutate(ctx, "rename", func(tx *store.Tx, log *slog.Logger) error {
		ok, err := tx.RenameCategory(ctx, id, name)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundError("rename", id)
		}
		log.Debug("category renamed", "category_id", id)
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: name}, nil
}

// moveSubtree detaches id's subtree from its current ancestors and
// attaches it under newParentID.
func moveSubtree(
	ctx context.Context,
	tx *store.Tx,
	log *slog.Logger,
	op string,
	id model.CategoryID,
	newParentID *model.CategoryID,
) error {
	if err := requireCategory(ctx, tx, op, id); err != nil {
		return err
	}
	if newParentID != nil {
		if err := requireCategory(ctx, tx, op, *newParentID); err != nil {
			return err
		}
		if *newParentID == id {
			return cycleError(op, id, *newParentID)
		}
		below, err := tx.HasPath(ctx, id, *newParentID)
		if err != nil {
			return err
		}
		if below {
			return cycleError(op, id, *newParentID)
		}
	}

	deleted, err := tx.DetachSubtree(ctx, id)
	if err != nil {
		return err
	}

	var inserted int64
	if newParentID != nil {
		inserted, err = tx.AttachSubtree(ctx, id, *newParentID)
		if err != nil {
			return err
		}
	}

	log.Debug("subtree moved",
		"category_id", id,
		"new_parent_id", formatParent(newParentID),
		"paths_deleted", deleted,
		"paths_inserted", inserted,
	)
	return nil
}

// reparentChildren moves each direct child of id under id's parent.
func reparentChildren(ctx context.Context, tx *store.Tx, log *slog.Logger, id model.CategoryID) error {
	parent, err := parentOf(ctx, tx, "remove", id)
	if err != nil {
		return err
	}
	var newParentID *model.CategoryID
	if parent != nil {
		newParentID = &parent.ID
	}

	children, err := tx.Query(ctx, querysql.Query{Kind: querysql.Children, ID: id})
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := moveSubtree(ctx, tx, log, "remove", child.ID, newParentID); err != nil {
			return err
		}
	}
	return nil
}

// formatParent renders an optional parent ID for log output.
func formatParent(id *model.CategoryID) any {
	if id == nil {
		return "none"
	}
	return int64(*id)
}
