package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EconomyRepo keeps per-user balances. Balances have no floor.
type EconomyRepo struct {
	db DBTX
}

func NewEconomyRepo(db DBTX) *EconomyRepo {
	return &EconomyRepo{db: db}
}

func (r *EconomyRepo) EnsureUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_economy (user_id) VALUES (?)`, userID); err != nil {
		return fmt.Errorf("economy ensure user: %w", err)
	}
	return nil
}

func (r *EconomyRepo) Balance(ctx context.Context, userID string) (float64, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(economy, 0) FROM user_economy WHERE user_id = ?`, userID)
	var v float64
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("economy balance: %w", err)
	}
	return v, nil
}

func (r *EconomyRepo) Credit(ctx context.Context, userID string, amount float64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE user_economy SET economy = economy + ? WHERE user_id = ?`, amount, userID); err != nil {
		return fmt.Errorf("economy credit: %w", err)
	}
	return nil
}

// Debit subtracts amount even when the result goes negative.
func (r *EconomyRepo) Debit(ctx context.Context, userID string, amount float64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE user_economy SET economy = economy - ? WHERE user_id = ?`, amount, userID); err != nil {
		return fmt.Errorf("economy debit: %w", err)
	}
	return nil
}
