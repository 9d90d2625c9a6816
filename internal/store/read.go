package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/querysql"
)

// Tx is one open transaction against the store. A Tx is only valid inside
// the WithTx / WithReadTx callback that produced it.
type Tx struct {
	tx       *sql.Tx
	compiler *querysql.SQLCompiler
}

// ReadCategory retrieves a single category by ID.
// Returns sql.ErrNoRows if not found.
func (t *Tx) ReadCategory(ctx context.Context, id model.CategoryID) (model.Category, error) {
	var c model.Category
	err := t.tx.QueryRowContext(ctx, `
		SELECT category_id, category_name
		FROM category
		WHERE category_id = ?
	`, int64(id)).Scan(&c.ID, &c.Name)
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// CategoryExists reports whether a category row exists for id.
func (t *Tx) CategoryExists(ctx context.Context, id model.CategoryID) (bool, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM category WHERE category_id = ?
	`, int64(id)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return count > 0, nil
}

// Query runs a compiled closure query and returns the matching categories
// ordered by category_id ASC (ancestors: root first).
//
// Returns an empty slice (not nil) if nothing matches.
func (t *Tx) Query(ctx context.Context, q querysql.Query) ([]model.Category, error) {
	query, params, err := t.compiler.Compile(q)
	if err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Kind, err)
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Kind, err)
		}
		cats = append(cats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Kind, err)
	}

	return cats, nil
}

// StrictDescendantIDs returns every descendant of id except id itself,
// ascending.
func (t *Tx) StrictDescendantIDs(ctx context.Context, id model.CategoryID) ([]model.CategoryID, error) {
	return t.readIDs(ctx, "strict descendants", `
		SELECT descendant FROM category_path
		WHERE ancestor = ? AND descendant <> ancestor
		ORDER BY descendant ASC
	`, int64(id))
}

// StrictAncestorIDs returns every ancestor of id except id itself,
// ascending.
func (t *Tx) StrictAncestorIDs(ctx context.Context, id model.CategoryID) ([]model.CategoryID, error) {
	return t.readIDs(ctx, "strict ancestors", `
		SELECT ancestor FROM category_path
		WHERE descendant = ? AND ancestor <> descendant
		ORDER BY ancestor ASC
	`, int64(id))
}

// HasPath reports whether the row (ancestor, descendant) exists.
func (t *Tx) HasPath(ctx context.Context, ancestor, descendant model.CategoryID) (bool, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM category_path
		WHERE ancestor = ? AND descendant = ?
	`, int64(ancestor), int64(descendant)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check path: %w", err)
	}
	return count > 0, nil
}

// ReadAllCategories returns every category ordered by category_id ASC.
func (t *Tx) ReadAllCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT category_id, category_name
		FROM category
		ORDER BY category_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all categories: %w", err)
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return cats, nil
}

// ReadAllPaths returns every closure row ordered by (ancestor, descendant).
func (t *Tx) ReadAllPaths(ctx context.Context) ([]model.ClosurePath, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT ancestor, descendant
		FROM category_path
		ORDER BY ancestor ASC, descendant ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all paths: %w", err)
	}
	defer rows.Close()

	paths := []model.ClosurePath{}
	for rows.Next() {
		var p model.ClosurePath
		if err := rows.Scan(&p.Ancestor, &p.Descendant); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}

	return paths, nil
}

// ReadSnapshot reads both tables in full. Both reads share the
// transaction, so the snapshot is consistent.
func (t *Tx) ReadSnapshot(ctx context.Context) (model.Snapshot, error) {
	cats, err := t.ReadAllCategories(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	paths, err := t.ReadAllPaths(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	return model.Snapshot{Categories: cats, Paths: paths}, nil
}

func (t *Tx) readIDs(ctx context.Context, what, query string, args ...any) ([]model.CategoryID, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	ids := []model.CategoryID{}
	for rows.Next() {
		var id model.CategoryID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}

	return ids, nil
}
