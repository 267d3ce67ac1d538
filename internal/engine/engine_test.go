package engine

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teahouse/internal/storage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *sql.DB, *testClock) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &testClock{now: time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)}
	svc := NewService(db, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    clock.Now,
		Picker: rand.New(rand.NewPCG(7, 11)),
	})
	return svc, db, clock
}

func openSession(t *testing.T, svc *Service, user string) *Session {
	t.Helper()
	sess, err := svc.Open(context.Background(), user)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func shopItemByName(t *testing.T, svc *Service, name string) storage.ShopItem {
	t.Helper()
	it, err := svc.Shop().GetByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, it)
	return *it
}

func TestOpen_CreatesUserRowsAndCloseIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)

	sess, err := svc.Open(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_sign_in WHERE user_id = 'u1'`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_economy WHERE user_id = 'u1'`).Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())

	_, err = sess.SignIn(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestWithSession_ReleasesOnError(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := svc.WithSession(ctx, "u1", func(*Session) error { return boom })
	require.ErrorIs(t, err, boom)

	// The user lock was released, so a second session opens without blocking.
	done := make(chan error, 1)
	go func() {
		done <- svc.WithSession(ctx, "u1", func(*Session) error { return nil })
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second session blocked")
	}
}

func TestOpen_GivesUpWhenContextEnds(t *testing.T) {
	svc, _, _ := newTestService(t)

	holder, err := svc.Open(context.Background(), "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = svc.Open(ctx, "u1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Other users are not affected.
	other, err := svc.Open(context.Background(), "u2")
	require.NoError(t, err)
	require.NoError(t, other.Close())

	require.NoError(t, holder.Close())
	assert.Zero(t, svc.locks.held())

	sess, err := svc.Open(context.Background(), "u1")
	require.NoError(t, err)
	require.NoError(t, sess.Close())
}

func TestResetAll_StopsWhenContextEnds(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.WithSession(ctx, "u1", func(s *Session) error {
		_, err := s.EnsureTemplateTasks(ctx)
		return err
	}))

	openSession(t, svc, "u1")

	resetCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	n, err := svc.ResetAll(resetCtx, storage.PeriodDaily)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, n)
}

func TestSessions_SerializedPerUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.WithSession(ctx, "u1", func(s *Session) error {
				return s.Backpack.Add(ctx, s.UserID, "龙井茶", 1, "绿茶", 50)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess := openSession(t, svc, "u1")
	items, err := sess.Backpack.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workers, items[0].Count)
}

func TestSignIn_OncePerDay(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	sess := openSession(t, svc, "u1")

	res, err := sess.SignIn(ctx, 10.0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "2026-10-19", res.Date)
	assert.Equal(t, 10.0, res.Balance)

	count, err := sess.SignIns.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	last, err := sess.SignIns.LastDate(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "2026-10-19", *last)
	coins, err := sess.SignIns.Coins(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, coins)

	_, err = sess.SignIn(ctx, 10.0)
	assert.ErrorIs(t, err, ErrAlreadySignedIn)
	bal, err := sess.Economy.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, bal)

	clock.Advance(24 * time.Hour)
	res, err = sess.SignIn(ctx, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 15.0, res.Coins)
}

func TestPurchase_BuyLongjing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := openSession(t, svc, "u1")

	item := shopItemByName(t, svc, "龙井茶")
	require.NoError(t, sess.Economy.Credit(ctx, "u1", 120))

	res, err := sess.Purchase(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Cost)
	assert.Equal(t, 20.0, res.Balance)

	after := shopItemByName(t, svc, "龙井茶")
	assert.Equal(t, item.Quantity-2, after.Quantity)

	got, err := sess.Backpack.Get(ctx, "u1", "龙井茶")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "绿茶", got.Category)
	assert.Equal(t, 50.0, got.Value)
}

func TestPurchase_Rejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := openSession(t, svc, "u1")
	item := shopItemByName(t, svc, "金骏眉")

	_, err := sess.Purchase(ctx, item.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = sess.Purchase(ctx, 424242, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = sess.Purchase(ctx, item.ID, item.Quantity+1)
	var oos OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, item.Quantity, oos.Have)

	_, err = sess.Purchase(ctx, item.ID, 1)
	var funds InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.Equal(t, item.Price, funds.Need)
	assert.True(t, IsRejection(err))

	// Nothing moved.
	assert.Equal(t, item.Quantity, shopItemByName(t, svc, "金骏眉").Quantity)
	items, err := sess.Backpack.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecordProgressAndClaimReward(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	sess := openSession(t, svc, "u1")

	n, err := sess.EnsureTemplateTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = sess.ClaimReward(ctx, "daily_buy_tea")
	assert.ErrorIs(t, err, ErrNotClaimable)

	task, err := sess.AddProgress(ctx, "daily_buy_tea", 1)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusInProgress, task.Status)

	ts, err := sess.Tasks.ProgressTimestamp(ctx, "u1", "daily_buy_tea")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(clock.Now()))

	task, err = sess.AddProgress(ctx, "daily_buy_tea", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, task.Progress)
	assert.Equal(t, storage.StatusCompleted, task.Status)

	reward, err := sess.ClaimReward(ctx, "daily_buy_tea")
	require.NoError(t, err)
	assert.Equal(t, 30.0, reward)

	_, err = sess.ClaimReward(ctx, "daily_buy_tea")
	assert.ErrorIs(t, err, ErrNotClaimable)

	bal, err := sess.Economy.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, bal)

	// A claimed task stays claimed when progress is recorded again.
	task, err = sess.RecordProgress(ctx, "daily_buy_tea", 5)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusClaimed, task.Status)

	_, err = sess.RecordProgress(ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDailyTask_StableWithinDay(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	sess := openSession(t, svc, "u1")

	first, err := sess.DailyTask(ctx)
	require.NoError(t, err)
	second, err := sess.DailyTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TaskID, second.TaskID)
	assert.Equal(t, first.Name, second.Name)

	clock.Advance(24 * time.Hour)
	third, err := sess.DailyTask(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.TaskID, third.TaskID)
}

func TestResetAll(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, u := range []string{"u1", "u2"} {
		err := svc.WithSession(ctx, u, func(s *Session) error {
			if _, err := s.EnsureTemplateTasks(ctx); err != nil {
				return err
			}
			for _, id := range []string{"daily_drink_tea", "weekly_collect_tea"} {
				if _, err := s.RecordProgress(ctx, id, 99); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)
	}

	n, err := svc.ResetAll(ctx, storage.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, u := range []string{"u1", "u2"} {
		sess := openSession(t, svc, u)
		daily, err := sess.Tasks.Get(ctx, u, "daily_drink_tea")
		require.NoError(t, err)
		assert.Equal(t, storage.StatusInProgress, daily.Status)
		assert.Zero(t, daily.Progress)

		weekly, err := sess.Tasks.Get(ctx, u, "weekly_collect_tea")
		require.NoError(t, err)
		assert.Equal(t, storage.StatusCompleted, weekly.Status)
		require.NoError(t, sess.Close())
	}

	_, err = svc.ResetAll(ctx, storage.PeriodSpecial)
	assert.Error(t, err)
}

func TestResetAll_KeepsGoingPastFailingUser(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	users := []string{"u1", "u2", "u3"}
	for _, u := range users {
		err := svc.WithSession(ctx, u, func(s *Session) error {
			if _, err := s.EnsureTemplateTasks(ctx); err != nil {
				return err
			}
			_, err := s.RecordProgress(ctx, "daily_buy_tea", 2)
			return err
		})
		require.NoError(t, err)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TRIGGER fail_u2_reset BEFORE UPDATE ON user_tasks
		WHEN NEW.user_id = 'u2'
		BEGIN SELECT RAISE(ABORT, 'reset refused'); END;
	`)
	require.NoError(t, err)

	n, err := svc.ResetAll(ctx, storage.PeriodDaily)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u2")
	assert.Equal(t, 2, n)

	for _, u := range users {
		err := svc.WithSession(ctx, u, func(s *Session) error {
			task, err := s.Tasks.Get(ctx, u, "daily_buy_tea")
			require.NoError(t, err)
			if u == "u2" {
				assert.Equal(t, storage.StatusCompleted, task.Status)
			} else {
				assert.Equal(t, storage.StatusInProgress, task.Status, u)
				assert.Zero(t, task.Progress, u)
			}
			return nil
		})
		require.NoError(t, err)
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want storage.TaskPeriod
	}{
		{"daily", storage.PeriodDaily},
		{" Weekly ", storage.PeriodWeekly},
		{"special", storage.PeriodSpecial},
		{"每日任务", storage.PeriodDaily},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	_, err := ParsePeriod("monthly")
	assert.Error(t, err)
}
