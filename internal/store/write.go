package store

import (
	"context"
	"fmt"

	"github.com/roach88/taxon/internal/model"
)

// InsertCategory creates a category row and returns the ID assigned by
// AUTOINCREMENT. No closure rows are written.
func (t *Tx) InsertCategory(ctx context.Context, name string) (model.CategoryID, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO category (category_name) VALUES (?)
	`, name)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert category: last insert id: %w", err)
	}
	return model.CategoryID(id), nil
}

// InsertCategoryWithID creates a category row with a caller-chosen ID.
// Used for loading fixtures; fails if the ID is taken.
func (t *Tx) InsertCategoryWithID(ctx context.Context, c model.Category) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO category (category_id, category_name) VALUES (?, ?)
	`, int64(c.ID), c.Name)
	if err != nil {
		return fmt.Errorf("insert category %d: %w", c.ID, err)
	}
	return nil
}

// RenameCategory updates a category's name.
// Returns false if no row has the given ID.
func (t *Tx) RenameCategory(ctx context.Context, id model.CategoryID, name string) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE category SET category_name = ? WHERE category_id = ?
	`, name, int64(id))
	if err != nil {
		return false, fmt.Errorf("rename category: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rename category: rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteCategory deletes a category row. Closure rows referencing it must
// be deleted first (foreign key constraint).
func (t *Tx) DeleteCategory(ctx context.Context, id model.CategoryID) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM category WHERE category_id = ?
	`, int64(id))
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// InsertPath writes a single closure row.
// Fails on a duplicate pair (primary key) or a dangling ID (foreign key).
func (t *Tx) InsertPath(ctx context.Context, p model.ClosurePath) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO category_path (ancestor, descendant) VALUES (?, ?)
	`, int64(p.Ancestor), int64(p.Descendant))
	if err != nil {
		return fmt.Errorf("insert path %s: %w", p, err)
	}
	return nil
}

// InheritAncestors writes (a, child) for every strict ancestor a of parent,
// plus (parent, child). The parent pair is written explicitly rather than
// copied from parent's reflexive row. Returns the number of rows written.
func (t *Tx) InheritAncestors(ctx context.Context, parent, child model.CategoryID) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO category_path (ancestor, descendant)
		SELECT ancestor, ? FROM category_path
		WHERE descendant = ? AND ancestor <> descendant
		UNION
		SELECT ?, ?
	`, int64(child), int64(parent), int64(parent), int64(child))
	if err != nil {
		return 0, fmt.Errorf("inherit ancestors: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("inherit ancestors: rows affected: %w", err)
	}
	return n, nil
}

// DetachSubtree deletes every row linking a strict ancestor of id to a
// member of id's subtree (id and its descendants). Rows inside the subtree
// are kept. Returns the number of rows deleted.
func (t *Tx) DetachSubtree(ctx context.Context, id model.CategoryID) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		DELETE FROM category_path
		WHERE descendant IN (
			SELECT descendant FROM category_path WHERE ancestor = ?
			UNION
			SELECT ?
		)
		AND ancestor IN (
			SELECT ancestor FROM category_path
			WHERE descendant = ? AND ancestor <> descendant
		)
	`, int64(id), int64(id), int64(id))
	if err != nil {
		return 0, fmt.Errorf("detach subtree %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("detach subtree %d: rows affected: %w", id, err)
	}
	return n, nil
}

// AttachSubtree writes (a, d) for every a in parent's ancestors (parent
// included) and every d in id's subtree (id included). The parent and
// subtree root are added explicitly rather than read from reflexive rows.
// Returns the number of rows written.
func (t *Tx) AttachSubtree(ctx context.Context, id, parent model.CategoryID) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO category_path (ancestor, descendant)
		SELECT a.ancestor, s.descendant
		FROM (
			SELECT ancestor FROM category_path
			WHERE descendant = ? AND ancestor <> descendant
			UNION
			SELECT ?
		) AS a
		CROSS JOIN (
			SELECT descendant FROM category_path WHERE ancestor = ?
			UNION
			SELECT ?
		) AS s
	`, int64(parent), int64(parent), int64(id), int64(id))
	if err != nil {
		return 0, fmt.Errorf("attach subtree %d under %d: %w", id, parent, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("attach subtree %d under %d: rows affected: %w", id, parent, err)
	}
	return n, nil
}

// DeletePathsOf deletes every row in which id is the ancestor or the
// descendant. Returns the number of rows deleted.
func (t *Tx) DeletePathsOf(ctx context.Context, id model.CategoryID) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		DELETE FROM category_path WHERE ancestor = ? OR descendant = ?
	`, int64(id), int64(id))
	if err != nil {
		return 0, fmt.Errorf("delete paths of %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete paths of %d: rows affected: %w", id, err)
	}
	return n, nil
}
