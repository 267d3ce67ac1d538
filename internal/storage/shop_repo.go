package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type ShopRepo struct {
	db DBTX
}

func NewShopRepo(db DBTX) *ShopRepo {
	return &ShopRepo{db: db}
}

const shopColumns = `id, tea_name, COALESCE(quantity, 0), COALESCE(tea_type, ''), COALESCE(price, 0), COALESCE(description, '')`

func (r *ShopRepo) List(ctx context.Context) ([]ShopItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+shopColumns+` FROM tea_store ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("shop list: %w", err)
	}
	defer rows.Close()

	var out []ShopItem
	for rows.Next() {
		it, err := scanShopItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("shop rows: %w", err)
	}
	return out, nil
}

func (r *ShopRepo) Get(ctx context.Context, id int64) (*ShopItem, error) {
	return scanShopItem(r.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM tea_store WHERE id = ?`, id))
}

func (r *ShopRepo) GetByName(ctx context.Context, name string) (*ShopItem, error) {
	return scanShopItem(r.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM tea_store WHERE tea_name = ?`, name))
}

// Upsert inserts the item or replaces the row holding the same name.
// A replaced row gets a fresh id, which is returned.
func (r *ShopRepo) Upsert(ctx context.Context, it ShopItem) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tea_store (tea_name, quantity, tea_type, price, description)
		VALUES (?, ?, ?, ?, ?)
	`, it.Name, it.Quantity, it.Category, it.Price, it.Description)
	if err != nil {
		return 0, fmt.Errorf("shop upsert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("shop last insert id: %w", err)
	}
	return id, nil
}

// AdjustQuantity adds delta to the stock. Stock may go negative.
func (r *ShopRepo) AdjustQuantity(ctx context.Context, id int64, delta int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE tea_store SET quantity = quantity + ? WHERE id = ?`, delta, id); err != nil {
		return fmt.Errorf("shop adjust quantity: %w", err)
	}
	return nil
}

// Restock adds amount to the stock and returns the refreshed item (nil if unknown).
func (r *ShopRepo) Restock(ctx context.Context, id int64, amount int) (*ShopItem, error) {
	if err := r.AdjustQuantity(ctx, id, amount); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *ShopRepo) Remove(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tea_store WHERE id = ?`, id); err != nil {
		return fmt.Errorf("shop remove: %w", err)
	}
	return nil
}

// IsAdmin always reports false: the host plugin owns the admin list.
func (r *ShopRepo) IsAdmin(ctx context.Context, userID string) bool { return false }

// AddAdmin is a no-op, see IsAdmin.
func (r *ShopRepo) AddAdmin(ctx context.Context, userID string) {}

// RemoveAdmin is a no-op, see IsAdmin.
func (r *ShopRepo) RemoveAdmin(ctx context.Context, userID string) {}

type scanner interface {
	Scan(dest ...any) error
}

func scanShopItem(row scanner) (*ShopItem, error) {
	var it ShopItem
	if err := row.Scan(&it.ID, &it.Name, &it.Quantity, &it.Category, &it.Price, &it.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("shop scan: %w", err)
	}
	return &it, nil
}
