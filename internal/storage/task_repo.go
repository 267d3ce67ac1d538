package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DailyRandomPrefix prefixes the per-day random task id, followed by YYYYMMDD.
const DailyRandomPrefix = "daily_random_"

// DailyRandomNamePrefix prefixes the name of the per-day random task ("today's challenge").
const DailyRandomNamePrefix = "今日挑战: "

type randomTaskDef struct {
	Key         string
	Name        string
	Description string
	Target      int
	Reward      int
}

// RandomTaskPool holds the candidates for the daily random task.
var RandomTaskPool = []randomTaskDef{
	{"random_tea_master", "茶道大师", "品尝5种不同的茶叶", 5, 80},
	{"random_tea_collector", "茶叶收藏家", "收集3种不同的茶叶", 3, 60},
	{"random_tea_drinker", "品茶达人", "品尝同一种茶叶3次", 3, 40},
	{"random_shop_helper", "购物助手", "购买茶叶3次", 3, 45},
	{"random_tea_seller", "茶叶商人", "卖出茶叶2次", 2, 35},
}

type TaskRepo struct {
	db   DBTX
	now  Clock
	pick Picker
}

func NewTaskRepo(db DBTX, now Clock, pick Picker) *TaskRepo {
	if pick == nil {
		pick = DefaultPicker
	}
	return &TaskRepo{db: db, now: clockOrNow(now), pick: pick}
}

type TaskInsert struct {
	TaskID      string
	Name        string
	Description string
	Target      int
	Reward      int
	Period      TaskPeriod
}

const taskColumns = `id, user_id, task_id, task_name, task_description,
	COALESCE(task_progress, 0), task_target, reward,
	COALESCE(status, '进行中'), COALESCE(task_type, '每日任务')`

// ListForUser returns the user's task instances ordered by period, then name.
func (r *TaskRepo) ListForUser(ctx context.Context, userID string) ([]Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM user_tasks WHERE user_id = ? ORDER BY task_type, task_name`, userID)
}

// ListTemplates returns the catalog rows that belong to no user.
func (r *TaskRepo) ListTemplates(ctx context.Context) ([]Task, error) {
	return r.ListForUser(ctx, TemplateUserID)
}

// ListUsers returns every user that owns at least one task instance.
func (r *TaskRepo) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM user_tasks WHERE user_id <> ? ORDER BY user_id`, TemplateUserID)
	if err != nil {
		return nil, fmt.Errorf("task users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("task users scan: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task users rows: %w", err)
	}
	return out, nil
}

func (r *TaskRepo) Get(ctx context.Context, userID, taskID string) (*Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM user_tasks WHERE user_id = ? AND task_id = ?`, userID, taskID)
	return scanTask(row)
}

// Create inserts a fresh in-progress instance. An existing (user, task id) row is kept as is.
func (r *TaskRepo) Create(ctx context.Context, userID string, in TaskInsert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_tasks
			(user_id, task_id, task_name, task_description, task_progress, task_target, reward, status, task_type)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)
	`, userID, in.TaskID, in.Name, in.Description, in.Target, in.Reward, StatusInProgress, in.Period)
	if err != nil {
		return fmt.Errorf("task create: %w", err)
	}
	return nil
}

// SetProgress overwrites the progress counter. It never changes status.
func (r *TaskRepo) SetProgress(ctx context.Context, userID, taskID string, progress int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_tasks SET task_progress = ? WHERE user_id = ? AND task_id = ?`, progress, userID, taskID)
	if err != nil {
		return fmt.Errorf("task set progress: %w", err)
	}
	return nil
}

// Complete forces the task to completed regardless of progress.
func (r *TaskRepo) Complete(ctx context.Context, userID, taskID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_tasks SET status = ? WHERE user_id = ? AND task_id = ?`, StatusCompleted, userID, taskID)
	if err != nil {
		return fmt.Errorf("task complete: %w", err)
	}
	return nil
}

func (r *TaskRepo) ResetDaily(ctx context.Context, userID string) error {
	return r.reset(ctx, userID, PeriodDaily)
}

func (r *TaskRepo) ResetWeekly(ctx context.Context, userID string) error {
	return r.reset(ctx, userID, PeriodWeekly)
}

func (r *TaskRepo) reset(ctx context.Context, userID string, period TaskPeriod) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_tasks
		SET task_progress = 0, status = ?
		WHERE user_id = ? AND task_type = ?
	`, StatusInProgress, userID, period)
	if err != nil {
		return fmt.Errorf("task reset %s: %w", period, err)
	}
	return nil
}

// Claim moves a completed task to claimed. It reports false when the task
// was missing or not completed.
func (r *TaskRepo) Claim(ctx context.Context, userID, taskID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_tasks
		SET status = ?
		WHERE user_id = ? AND task_id = ? AND status = ?
	`, StatusClaimed, userID, taskID, StatusCompleted)
	if err != nil {
		return false, fmt.Errorf("task claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("task claim rows affected: %w", err)
	}
	return n > 0, nil
}

// TouchProgress records now (second precision) as the last update of the task.
func (r *TaskRepo) TouchProgress(ctx context.Context, userID, taskID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_task_progress (user_id, task_id, last_updated)
		VALUES (?, ?, ?)
	`, userID, taskID, r.now().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("task touch progress: %w", err)
	}
	return nil
}

// ProgressTimestamp returns when the task was last touched, or nil. Stored
// timestamps carry no zone; they are read in the clock's location.
func (r *TaskRepo) ProgressTimestamp(ctx context.Context, userID, taskID string) (*time.Time, error) {
	row := r.db.QueryRowContext(ctx, `SELECT last_updated FROM user_task_progress WHERE user_id = ? AND task_id = ?`, userID, taskID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("task progress timestamp: %w", err)
	}
	ts, err := time.ParseInLocation(timestampLayout, raw, r.now().Location())
	if err != nil {
		return nil, fmt.Errorf("parse progress timestamp %q: %w", raw, err)
	}
	return &ts, nil
}

// DailyRandomTaskID is the id of the random task for the day containing t.
func DailyRandomTaskID(t time.Time) string {
	return DailyRandomPrefix + t.Format("20060102")
}

// AssignDailyRandom returns today's random task id for the user, creating the
// task from RandomTaskPool on the first call of the day.
func (r *TaskRepo) AssignDailyRandom(ctx context.Context, userID string) (string, error) {
	id := DailyRandomTaskID(r.now())

	existing, err := r.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return id, nil
	}

	def := RandomTaskPool[r.pick.IntN(len(RandomTaskPool))]
	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_tasks
			(user_id, task_id, task_name, task_description, task_progress, task_target, reward, status, task_type)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)
	`, userID, id, DailyRandomNamePrefix+def.Name, def.Description, def.Target, def.Reward, StatusInProgress, PeriodDaily)
	if err != nil {
		return "", fmt.Errorf("task assign daily random: %w", err)
	}
	return id, nil
}

func (r *TaskRepo) list(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task list rows: %w", err)
	}
	return out, nil
}

func scanTask(row scanner) (*Task, error) {
	var (
		t      Task
		status string
		period string
	)
	if err := row.Scan(
		&t.ID, &t.UserID, &t.TaskID, &t.Name, &t.Description,
		&t.Progress, &t.Target, &t.Reward, &status, &period,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("task scan: %w", err)
	}
	t.Status = TaskStatus(status)
	t.Period = TaskPeriod(period)
	return &t, nil
}
