package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultItemCategory is the category used when none is given ("tea").
const DefaultItemCategory = "茶叶"

type BackpackRepo struct {
	db DBTX
}

func NewBackpackRepo(db DBTX) *BackpackRepo {
	return &BackpackRepo{db: db}
}

func (r *BackpackRepo) List(ctx context.Context, userID string) ([]BackpackItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, item_name, COALESCE(item_count, 0), COALESCE(item_type, ''), COALESCE(item_value, 0)
		FROM user_backpack
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("backpack list: %w", err)
	}
	defer rows.Close()

	var out []BackpackItem
	for rows.Next() {
		var it BackpackItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Count, &it.Category, &it.Value); err != nil {
			return nil, fmt.Errorf("backpack scan: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backpack rows: %w", err)
	}
	return out, nil
}

func (r *BackpackRepo) Get(ctx context.Context, userID, name string) (*BackpackItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, item_name, COALESCE(item_count, 0), COALESCE(item_type, ''), COALESCE(item_value, 0)
		FROM user_backpack
		WHERE user_id = ? AND item_name = ?
		ORDER BY id ASC
		LIMIT 1
	`, userID, name)
	var it BackpackItem
	if err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Count, &it.Category, &it.Value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("backpack get: %w", err)
	}
	return &it, nil
}

// Add merges count into an existing entry with the same name, or inserts a new one.
// category and value only apply to new entries.
func (r *BackpackRepo) Add(ctx context.Context, userID, name string, count int, category string, value float64) error {
	cur, err := r.Get(ctx, userID, name)
	if err != nil {
		return err
	}
	if cur != nil {
		if _, err := r.db.ExecContext(ctx, `UPDATE user_backpack SET item_count = ? WHERE id = ?`, cur.Count+count, cur.ID); err != nil {
			return fmt.Errorf("backpack update: %w", err)
		}
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO user_backpack (user_id, item_name, item_count, item_type, item_value)
		VALUES (?, ?, ?, ?, ?)
	`, userID, name, count, category, value); err != nil {
		return fmt.Errorf("backpack insert: %w", err)
	}
	return nil
}

// AddOne adds a single default-category item with no value.
func (r *BackpackRepo) AddOne(ctx context.Context, userID, name string) error {
	return r.Add(ctx, userID, name, 1, DefaultItemCategory, 0)
}

// Remove takes count items away. The entry is deleted once nothing would be left.
// It reports whether the user had the item at all.
func (r *BackpackRepo) Remove(ctx context.Context, userID, name string, count int) (bool, error) {
	cur, err := r.Get(ctx, userID, name)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, nil
	}
	if cur.Count <= count {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM user_backpack WHERE id = ?`, cur.ID); err != nil {
			return false, fmt.Errorf("backpack delete: %w", err)
		}
		return true, nil
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE user_backpack SET item_count = ? WHERE id = ?`, cur.Count-count, cur.ID); err != nil {
		return false, fmt.Errorf("backpack update: %w", err)
	}
	return true, nil
}
