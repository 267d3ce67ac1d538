package engine

import (
	"fmt"
	"strings"

	"teahouse/internal/storage"
)

// ParsePeriod maps user input (english or the stored label) to a TaskPeriod.
func ParsePeriod(input string) (storage.TaskPeriod, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "daily", "day", string(storage.PeriodDaily):
		return storage.PeriodDaily, nil
	case "weekly", "week", string(storage.PeriodWeekly):
		return storage.PeriodWeekly, nil
	case "special", string(storage.PeriodSpecial):
		return storage.PeriodSpecial, nil
	default:
		return "", fmt.Errorf("invalid period: %q", input)
	}
}

// PeriodLabel is the short english name of a period.
func PeriodLabel(p storage.TaskPeriod) string {
	switch p {
	case storage.PeriodDaily:
		return "daily"
	case storage.PeriodWeekly:
		return "weekly"
	case storage.PeriodSpecial:
		return "special"
	default:
		return string(p)
	}
}

// StatusLabel is the short english name of a task status.
func StatusLabel(st storage.TaskStatus) string {
	switch st {
	case storage.StatusInProgress:
		return "in progress"
	case storage.StatusCompleted:
		return "completed"
	case storage.StatusClaimed:
		return "claimed"
	default:
		return string(st)
	}
}
