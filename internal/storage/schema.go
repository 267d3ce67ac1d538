package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db DBTX) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tea_store (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tea_name TEXT NOT NULL UNIQUE,
			quantity INTEGER DEFAULT 0,
			tea_type TEXT DEFAULT '普通',
			price REAL DEFAULT 0.0,
			description TEXT DEFAULT ''
		);`,
		// Kept for layout compatibility; admin authority lives in the host's config.
		`CREATE TABLE IF NOT EXISTS admins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS user_sign_in (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE,
			sign_in_count INTEGER DEFAULT 0,
			last_sign_in_date TEXT,
			sign_in_coins REAL DEFAULT 0.0
		);`,
		`CREATE TABLE IF NOT EXISTS user_economy (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE,
			economy REAL DEFAULT 0.0
		);`,
		// (user_id, item_name) uniqueness is kept by BackpackRepo.Add, not by the schema.
		`CREATE TABLE IF NOT EXISTS user_backpack (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			item_name TEXT NOT NULL,
			item_count INTEGER DEFAULT 1,
			item_type TEXT DEFAULT '茶叶',
			item_value REAL DEFAULT 0.0
		);`,
		`CREATE TABLE IF NOT EXISTS user_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			task_name TEXT NOT NULL,
			task_description TEXT NOT NULL,
			task_progress INTEGER DEFAULT 0,
			task_target INTEGER NOT NULL,
			reward INTEGER NOT NULL,
			status TEXT DEFAULT '进行中',
			task_type TEXT DEFAULT '每日任务'
		);`,
		`CREATE TABLE IF NOT EXISTS user_task_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			last_updated TEXT NOT NULL,
			UNIQUE(user_id, task_id)
		);`,
		// Older stores may hold duplicate task rows; keep the oldest before indexing.
		`DELETE FROM user_tasks
			WHERE id NOT IN (SELECT MIN(id) FROM user_tasks GROUP BY user_id, task_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_tasks_user_task ON user_tasks(user_id, task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_user_backpack_user_item ON user_backpack(user_id, item_name);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// TemplateUserID marks catalog rows in user_tasks that belong to no user.
const TemplateUserID = ""

type taskSeed struct {
	TaskID      string
	Name        string
	Description string
	Target      int
	Reward      int
	Period      TaskPeriod
}

var defaultTaskTemplates = []taskSeed{
	{"daily_drink_tea", "品茶师", "品尝3种不同的茶叶", 3, 50, PeriodDaily},
	{"daily_buy_tea", "采购员", "购买茶叶2次", 2, 30, PeriodDaily},
	{"weekly_collect_tea", "收藏家", "收集5种不同的茶叶", 5, 100, PeriodWeekly},
}

var defaultTeas = []ShopItem{
	{Name: "龙井茶", Quantity: 100, Category: "绿茶", Price: 50.0, Description: "清香淡雅，回味甘甜"},
	{Name: "铁观音", Quantity: 100, Category: "乌龙茶", Price: 45.0, Description: "香气浓郁，滋味醇厚"},
	{Name: "普洱茶", Quantity: 100, Category: "黑茶", Price: 60.0, Description: "陈香浓郁，生津止渴"},
	{Name: "大红袍", Quantity: 100, Category: "乌龙茶", Price: 80.0, Description: "岩韵明显，香气高长"},
	{Name: "碧螺春", Quantity: 100, Category: "绿茶", Price: 55.0, Description: "条索紧结，卷曲如螺"},
	{Name: "金骏眉", Quantity: 50, Category: "红茶", Price: 120.0, Description: "香气高锐，滋味鲜爽"},
	{Name: "银针白毫", Quantity: 50, Category: "白茶", Price: 90.0, Description: "满披白毫，香气清鲜"},
}

// Seed inserts the default task templates and shop catalog. Existing rows with
// the same key are left untouched.
func Seed(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		for _, t := range defaultTaskTemplates {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO user_tasks
					(user_id, task_id, task_name, task_description, task_progress, task_target, reward, status, task_type)
				VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)
			`, TemplateUserID, t.TaskID, t.Name, t.Description, t.Target, t.Reward, StatusInProgress, t.Period); err != nil {
				return fmt.Errorf("seed task %s: %w", t.TaskID, err)
			}
		}
		for _, it := range defaultTeas {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO tea_store (tea_name, quantity, tea_type, price, description)
				VALUES (?, ?, ?, ?, ?)
			`, it.Name, it.Quantity, it.Category, it.Price, it.Description); err != nil {
				return fmt.Errorf("seed tea %s: %w", it.Name, err)
			}
		}
		return nil
	})
}
