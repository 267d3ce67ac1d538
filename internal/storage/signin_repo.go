package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type SignInRepo struct {
	db  DBTX
	now Clock
}

func NewSignInRepo(db DBTX, now Clock) *SignInRepo {
	return &SignInRepo{db: db, now: clockOrNow(now)}
}

// EnsureUser creates a zero-state record for userID if none exists.
func (r *SignInRepo) EnsureUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_sign_in (user_id) VALUES (?)`, userID); err != nil {
		return fmt.Errorf("sign-in ensure user: %w", err)
	}
	return nil
}

func (r *SignInRepo) Get(ctx context.Context, userID string) (*SignInRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, COALESCE(sign_in_count, 0), last_sign_in_date, COALESCE(sign_in_coins, 0)
		FROM user_sign_in
		WHERE user_id = ?
	`, userID)

	var (
		rec  SignInRecord
		last sql.NullString
	)
	if err := row.Scan(&rec.UserID, &rec.Count, &last, &rec.Coins); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sign-in get: %w", err)
	}
	if last.Valid && last.String != "" {
		v := last.String
		rec.LastDate = &v
	}
	return &rec, nil
}

// Count returns the number of sign-ins, 0 when the user has no record.
func (r *SignInRepo) Count(ctx context.Context, userID string) (int, error) {
	rec, err := r.Get(ctx, userID)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Count, nil
}

// LastDate returns the last sign-in date (YYYY-MM-DD) or nil.
func (r *SignInRepo) LastDate(ctx context.Context, userID string) (*string, error) {
	rec, err := r.Get(ctx, userID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.LastDate, nil
}

// Coins returns the accumulated sign-in reward.
func (r *SignInRepo) Coins(ctx context.Context, userID string) (float64, error) {
	rec, err := r.Get(ctx, userID)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Coins, nil
}

// RecordSignIn bumps the count, stamps today's date and adds reward to the coin total.
// It does not check whether the user already signed in today.
func (r *SignInRepo) RecordSignIn(ctx context.Context, userID string, reward float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_sign_in
		SET sign_in_count = sign_in_count + 1,
			last_sign_in_date = ?,
			sign_in_coins = sign_in_coins + ?
		WHERE user_id = ?
	`, FormatDate(r.now()), reward, userID)
	if err != nil {
		return fmt.Errorf("sign-in record: %w", err)
	}
	return nil
}
