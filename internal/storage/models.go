package storage

import (
	"math/rand/v2"
	"time"
)

type TaskStatus string

const (
	StatusInProgress TaskStatus = "进行中"
	StatusCompleted  TaskStatus = "已完成"
	StatusClaimed    TaskStatus = "已领取"
)

// TaskPeriod decides which reset touches a task. Special tasks are never reset.
type TaskPeriod string

const (
	PeriodDaily   TaskPeriod = "每日任务"
	PeriodWeekly  TaskPeriod = "每周任务"
	PeriodSpecial TaskPeriod = "特殊任务"
)

type ShopItem struct {
	ID          int64
	Name        string
	Quantity    int
	Category    string
	Price       float64
	Description string
}

type SignInRecord struct {
	UserID   string
	Count    int
	LastDate *string
	Coins    float64
}

type BackpackItem struct {
	ID       int64
	UserID   string
	Name     string
	Count    int
	Category string
	Value    float64
}

type Task struct {
	ID          int64
	UserID      string
	TaskID      string
	Name        string
	Description string
	Progress    int
	Target      int
	Reward      int
	Status      TaskStatus
	Period      TaskPeriod
}

// IsTemplate reports whether the row is a catalog template rather than a user instance.
func (t Task) IsTemplate() bool {
	return t.UserID == TemplateUserID
}

// Clock returns the current local time. Dates are derived from it.
type Clock func() time.Time

// Picker returns a uniform int in [0, n).
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// DefaultPicker draws from the process-wide generator.
var DefaultPicker Picker = globalPicker{}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// FormatDate renders t as a stored sign-in date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
