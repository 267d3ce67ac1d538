package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"teahouse/internal/storage"
)

type Options struct {
	Logger *slog.Logger
	Now    storage.Clock
	Picker storage.Picker
}

type Service struct {
	db     *sql.DB
	logger *slog.Logger
	now    storage.Clock
	pick   storage.Picker
	locks  *userLocks
}

func NewService(db *sql.DB, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pick := opts.Picker
	if pick == nil {
		pick = storage.DefaultPicker
	}
	return &Service{
		db:     db,
		logger: logger.With("component", "engine"),
		now:    now,
		pick:   pick,
		locks:  newUserLocks(),
	}
}

// Shop returns a catalog accessor on the shared pool, for admin paths that act on no user.
func (s *Service) Shop() *storage.ShopRepo { return storage.NewShopRepo(s.db) }

// WithSession opens a session for userID, runs fn and always closes the session.
func (s *Service) WithSession(ctx context.Context, userID string, fn func(*Session) error) error {
	sess, err := s.Open(ctx, userID)
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}

// ResetAll runs the period reset for every user holding tasks and returns how many were reset.
func (s *Service) ResetAll(ctx context.Context, period storage.TaskPeriod) (int, error) {
	users, err := storage.NewTaskRepo(s.db, s.now, s.pick).ListUsers(ctx)
	if err != nil {
		s.logger.Error("list task users failed", "error", err)
		return 0, err
	}

	var (
		n    int
		errs []error
	)
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := s.WithSession(ctx, u, func(sess *Session) error {
			return sess.Reset(ctx, period)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("reset %s for %s: %w", period, u, err))
			continue
		}
		n++
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("tasks reset with failures", "period", string(period), "users", n, "failed", len(errs))
		return n, err
	}
	s.logger.Info("tasks reset", "period", string(period), "users", n)
	return n, nil
}

// userLocks serializes sessions per user. Entries are dropped when unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock is held while its one-slot channel is full.
type userLock struct {
	slot chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[string]*userLock{}}
}

// lock waits for userID's lock until ctx is done and returns the release func.
func (l *userLocks) lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{slot: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.slot <- struct{}{}:
		return func() {
			<-ul.slot
			l.unref(userID, ul)
		}, nil
	case <-ctx.Done():
		l.unref(userID, ul)
		return nil, fmt.Errorf("lock user %s: %w", userID, ctx.Err())
	}
}

func (l *userLocks) unref(userID string, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// held reports how many users have a lock entry.
func (l *userLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
