package engine

import (
	"context"
	"fmt"

	"teahouse/internal/storage"
)

type SignInResult struct {
	Count   int
	Reward  float64
	Coins   float64
	Balance float64
	Date    string
}

// SignIn records today's sign-in and credits reward to the balance. A second
// call on the same day returns ErrAlreadySignedIn.
func (s *Session) SignIn(ctx context.Context, reward float64) (*SignInResult, error) {
	today := storage.FormatDate(s.now())
	var res SignInResult
	err := s.withTx(ctx, func(rs repoSet) error {
		last, err := rs.signIns.LastDate(ctx, s.UserID)
		if err != nil {
			return err
		}
		if last != nil && *last == today {
			return ErrAlreadySignedIn
		}
		if err := rs.signIns.RecordSignIn(ctx, s.UserID, reward); err != nil {
			return err
		}
		if err := rs.economy.Credit(ctx, s.UserID, reward); err != nil {
			return err
		}
		rec, err := rs.signIns.Get(ctx, s.UserID)
		if err != nil {
			return err
		}
		bal, err := rs.economy.Balance(ctx, s.UserID)
		if err != nil {
			return err
		}
		res = SignInResult{Count: rec.Count, Reward: reward, Coins: rec.Coins, Balance: bal, Date: today}
		return nil
	})
	if err != nil {
		return nil, s.fail("sign in", err)
	}
	s.logger.Info("signed in", "count", res.Count, "reward", reward)
	return &res, nil
}

type PurchaseResult struct {
	Item     storage.ShopItem
	Quantity int
	Cost     float64
	Balance  float64
}

// Purchase buys qty of a shop item: stock goes down, the balance is debited
// and the items land in the backpack with the shop's category and price.
func (s *Session) Purchase(ctx context.Context, shopID int64, qty int) (*PurchaseResult, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var res PurchaseResult
	err := s.withTx(ctx, func(rs repoSet) error {
		item, err := rs.shop.Get(ctx, shopID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrItemNotFound
		}
		if item.Quantity < qty {
			return OutOfStockError{Name: item.Name, Have: item.Quantity, Want: qty}
		}
		cost := item.Price * float64(qty)
		bal, err := rs.economy.Balance(ctx, s.UserID)
		if err != nil {
			return err
		}
		if bal < cost {
			return InsufficientFundsError{Need: cost, Have: bal}
		}

		if err := rs.shop.AdjustQuantity(ctx, shopID, -qty); err != nil {
			return err
		}
		if err := rs.economy.Debit(ctx, s.UserID, cost); err != nil {
			return err
		}
		if err := rs.backpack.Add(ctx, s.UserID, item.Name, qty, item.Category, item.Price); err != nil {
			return err
		}
		item.Quantity -= qty
		res = PurchaseResult{Item: *item, Quantity: qty, Cost: cost, Balance: bal - cost}
		return nil
	})
	if err != nil {
		return nil, s.fail("purchase", err)
	}
	s.logger.Info("purchased", "item", res.Item.Name, "qty", qty, "cost", res.Cost)
	return &res, nil
}

// RecordProgress stores progress, stamps the progress time and completes the
// task once progress reaches its target.
func (s *Session) RecordProgress(ctx context.Context, taskID string, progress int) (*storage.Task, error) {
	var out *storage.Task
	err := s.withTx(ctx, func(rs repoSet) error {
		t, err := rs.tasks.Get(ctx, s.UserID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		if err := rs.tasks.SetProgress(ctx, s.UserID, taskID, progress); err != nil {
			return err
		}
		if err := rs.tasks.TouchProgress(ctx, s.UserID, taskID); err != nil {
			return err
		}
		if progress >= t.Target && t.Status == storage.StatusInProgress {
			if err := rs.tasks.Complete(ctx, s.UserID, taskID); err != nil {
				return err
			}
		}
		out, err = rs.tasks.Get(ctx, s.UserID, taskID)
		return err
	})
	if err != nil {
		return nil, s.fail("record progress", err)
	}
	return out, nil
}

// AddProgress bumps the current progress by delta, see RecordProgress.
func (s *Session) AddProgress(ctx context.Context, taskID string, delta int) (*storage.Task, error) {
	t, err := s.Tasks.Get(ctx, s.UserID, taskID)
	if err != nil {
		return nil, s.fail("add progress", err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return s.RecordProgress(ctx, taskID, t.Progress+delta)
}

// ClaimReward moves a completed task to claimed and credits its reward.
func (s *Session) ClaimReward(ctx context.Context, taskID string) (float64, error) {
	var reward float64
	err := s.withTx(ctx, func(rs repoSet) error {
		t, err := rs.tasks.Get(ctx, s.UserID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		ok, err := rs.tasks.Claim(ctx, s.UserID, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s is %s", ErrNotClaimable, taskID, t.Status)
		}
		reward = float64(t.Reward)
		return rs.economy.Credit(ctx, s.UserID, reward)
	})
	if err != nil {
		return 0, s.fail("claim reward", err)
	}
	s.logger.Info("reward claimed", "task", taskID, "reward", reward)
	return reward, nil
}

// EnsureTemplateTasks gives the user an instance of every catalog template it
// does not already have. It returns the number of templates in the catalog.
func (s *Session) EnsureTemplateTasks(ctx context.Context) (int, error) {
	var n int
	err := s.withTx(ctx, func(rs repoSet) error {
		templates, err := rs.tasks.ListTemplates(ctx)
		if err != nil {
			return err
		}
		for _, tpl := range templates {
			if err := rs.tasks.Create(ctx, s.UserID, storage.TaskInsert{
				TaskID:      tpl.TaskID,
				Name:        tpl.Name,
				Description: tpl.Description,
				Target:      tpl.Target,
				Reward:      tpl.Reward,
				Period:      tpl.Period,
			}); err != nil {
				return err
			}
		}
		n = len(templates)
		return nil
	})
	if err != nil {
		return 0, s.fail("ensure template tasks", err)
	}
	return n, nil
}

// DailyTask returns today's random task, assigning one on the first call of the day.
func (s *Session) DailyTask(ctx context.Context) (*storage.Task, error) {
	id, err := s.Tasks.AssignDailyRandom(ctx, s.UserID)
	if err != nil {
		return nil, s.fail("assign daily task", err)
	}
	t, err := s.Tasks.Get(ctx, s.UserID, id)
	if err != nil {
		return nil, s.fail("get daily task", err)
	}
	return t, nil
}

// Reset runs the reset for period. Special tasks have no reset.
func (s *Session) Reset(ctx context.Context, period storage.TaskPeriod) error {
	var err error
	switch period {
	case storage.PeriodDaily:
		err = s.Tasks.ResetDaily(ctx, s.UserID)
	case storage.PeriodWeekly:
		err = s.Tasks.ResetWeekly(ctx, s.UserID)
	default:
		return fmt.Errorf("period %q has no reset", period)
	}
	return s.fail("reset", err)
}
