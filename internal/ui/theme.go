package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"teahouse/internal/storage"
)

// Teahouse theme (CLI + TUI).

const (
	IconTea    = "🍵"
	IconCoin   = "🪙"
	IconBag    = "🎒"
	IconShop   = "🏮"
	IconScroll = "📜"
	IconDone   = "✅"
	IconGift   = "🎁"
	IconDice   = "🎲"
	IconLoop   = "🔁"
	IconWarn   = "⚠️"
	IconError  = "🧨"
)

var (
	cPrimary = lipgloss.Color("29")  // jade
	cAccent  = lipgloss.Color("173") // clay
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Coins renders an amount of currency; negative balances show in red.
func Coins(v float64) string {
	s := fmt.Sprintf("%s %.2f", IconCoin, v)
	if v < 0 {
		return Bad.Render(s)
	}
	return Gold.Render(s)
}

func StatusText(st storage.TaskStatus) string {
	switch st {
	case storage.StatusInProgress:
		return Warn.Render("in progress")
	case storage.StatusCompleted:
		return Good.Render("completed")
	case storage.StatusClaimed:
		return Muted.Render("claimed")
	default:
		return Muted.Render(string(st))
	}
}

func PeriodIcon(p storage.TaskPeriod) string {
	switch p {
	case storage.PeriodDaily:
		return "☀️"
	case storage.PeriodWeekly:
		return "📅"
	default:
		return "⭐"
	}
}

// TaskLine renders a one-line task summary.
func TaskLine(t storage.Task) string {
	return fmt.Sprintf("%s %s %s %s %s",
		PeriodIcon(t.Period),
		Key.Render(t.Name),
		Muted.Render(fmt.Sprintf("[%s]", t.TaskID)),
		fmt.Sprintf("%d/%d", t.Progress, t.Target),
		StatusText(t.Status),
	)
}
