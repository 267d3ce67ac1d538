package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"teahouse/internal/storage"
)

// Session is the accessor bundle for one user: five repos sharing one
// connection. It holds the user's lock until Close.
type Session struct {
	ID     string
	UserID string

	SignIns  *storage.SignInRepo
	Economy  *storage.EconomyRepo
	Backpack *storage.BackpackRepo
	Shop     *storage.ShopRepo
	Tasks    *storage.TaskRepo

	conn   *sql.Conn
	now    storage.Clock
	pick   storage.Picker
	logger *slog.Logger

	closeOnce sync.Once
	closed    atomic.Bool
	release   func()
}

type repoSet struct {
	signIns  *storage.SignInRepo
	economy  *storage.EconomyRepo
	backpack *storage.BackpackRepo
	shop     *storage.ShopRepo
	tasks    *storage.TaskRepo
}

func newRepoSet(db storage.DBTX, now storage.Clock, pick storage.Picker) repoSet {
	return repoSet{
		signIns:  storage.NewSignInRepo(db, now),
		economy:  storage.NewEconomyRepo(db),
		backpack: storage.NewBackpackRepo(db),
		shop:     storage.NewShopRepo(db),
		tasks:    storage.NewTaskRepo(db, now, pick),
	}
}

// Open locks userID, takes a dedicated connection and makes sure the user's
// sign-in and economy rows exist.
func (s *Service) Open(ctx context.Context, userID string) (*Session, error) {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return nil, err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		release()
		s.logger.Error("store connection failed", "user", userID, "error", err)
		return nil, fmt.Errorf("open connection: %w", err)
	}

	id := uuid.NewString()
	rs := newRepoSet(conn, s.now, s.pick)
	sess := &Session{
		ID:       id,
		UserID:   userID,
		SignIns:  rs.signIns,
		Economy:  rs.economy,
		Backpack: rs.backpack,
		Shop:     rs.shop,
		Tasks:    rs.tasks,
		conn:     conn,
		now:      s.now,
		pick:     s.pick,
		logger:   s.logger.With("session", id, "user", userID),
		release:  release,
	}

	if err := sess.EnsureUser(ctx); err != nil {
		sess.logger.Error("ensure user failed", "error", err)
		sess.Close()
		return nil, err
	}
	sess.logger.Debug("session opened")
	return sess, nil
}

// EnsureUser creates the zero-state sign-in and economy rows if missing.
func (s *Session) EnsureUser(ctx context.Context) error {
	if err := s.SignIns.EnsureUser(ctx, s.UserID); err != nil {
		return err
	}
	return s.Economy.EnsureUser(ctx, s.UserID)
}

// Close returns the connection to the pool and releases the user lock.
// Calling it more than once is harmless.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.conn.Close()
		s.release()
		s.logger.Debug("session closed")
	})
	return err
}

func (s *Session) withTx(ctx context.Context, fn func(rs repoSet) error) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return storage.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		return fn(newRepoSet(tx, s.now, s.pick))
	})
}

// fail logs store failures at error level; rule rejections pass through quietly.
func (s *Session) fail(op string, err error) error {
	if err != nil && !IsRejection(err) {
		s.logger.Error(op+" failed", "error", err)
	}
	return err
}
