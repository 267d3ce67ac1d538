package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teahouse/internal/engine"
	"teahouse/internal/storage"
	"teahouse/internal/ui"
)

type boardModel struct {
	ctx  context.Context
	sess *engine.Session

	width  int
	height int

	balance float64
	signIn  *storage.SignInRecord
	items   []storage.BackpackItem
	tasks   []storage.Task

	selected int

	lastLog string
	loading bool
	// busy is set while a command runs against the session connection.
	busy bool
	err  error
}

type loadedMsg struct {
	balance float64
	signIn  *storage.SignInRecord
	items   []storage.BackpackItem
	tasks   []storage.Task
	err     error
}

type claimedMsg struct {
	taskID string
	reward float64
	err    error
}

type dailyMsg struct {
	task *storage.Task
	err  error
}

func newBoardModel(ctx context.Context, sess *engine.Session) boardModel {
	return boardModel{
		ctx:     ctx,
		sess:    sess,
		loading: true,
		busy:    true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		s := m.sess
		bal, err := s.Economy.Balance(m.ctx, s.UserID)
		if err != nil {
			return loadedMsg{err: err}
		}
		rec, err := s.SignIns.Get(m.ctx, s.UserID)
		if err != nil {
			return loadedMsg{err: err}
		}
		items, err := s.Backpack.List(m.ctx, s.UserID)
		if err != nil {
			return loadedMsg{err: err}
		}
		tasks, err := s.Tasks.ListForUser(m.ctx, s.UserID)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{balance: bal, signIn: rec, items: items, tasks: tasks}
	}
}

func (m boardModel) claimCmd(taskID string) tea.Cmd {
	return func() tea.Msg {
		reward, err := m.sess.ClaimReward(m.ctx, taskID)
		return claimedMsg{taskID: taskID, reward: reward, err: err}
	}
}

func (m boardModel) dailyCmd() tea.Cmd {
	return func() tea.Msg {
		t, err := m.sess.DailyTask(m.ctx)
		return dailyMsg{task: t, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.busy = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.balance = msg.balance
		m.signIn = msg.signIn
		m.items = msg.items
		m.tasks = msg.tasks
		if m.selected >= len(m.tasks) {
			m.selected = len(m.tasks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case claimedMsg:
		if msg.err != nil {
			m.busy = false
			m.lastLog = "Claim failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("Claimed %s: +%.2f", msg.taskID, msg.reward)
		return m, m.loadCmd()
	case dailyMsg:
		if msg.err != nil {
			m.busy = false
			m.lastLog = "Daily challenge failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = "Today's challenge: " + msg.task.Name
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.tasks)-1 {
				m.selected++
			}
			return m, nil
		case "d":
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.dailyCmd()
		case "c", " ":
			if m.busy || m.selected < 0 || m.selected >= len(m.tasks) {
				return m, nil
			}
			t := m.tasks[m.selected]
			if t.Status != storage.StatusCompleted {
				m.lastLog = fmt.Sprintf("%s is %s; only completed tasks can be claimed.", t.TaskID, engine.StatusLabel(t.Status))
				return m, nil
			}
			m.busy = true
			m.lastLog = fmt.Sprintf("Claiming %s…", t.TaskID)
			return m, m.claimCmd(t.TaskID)
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	leftW := 30
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 18 {
			leftW = 18
		}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		padBlock(m.renderSidebar(), leftW),
		"  ",
		m.renderMain(),
	)
	return m.renderHeader() + "\n" + body + "\n" + m.renderFooter()
}

func (m boardModel) renderHeader() string {
	return ui.Heading(ui.IconTea, "Tea House") + ui.Muted.Render(" | ") + m.sess.UserID + ui.Muted.Render(" | ") + ui.Coins(m.balance)
}

func (m boardModel) renderSidebar() string {
	lines := []string{ui.PanelTitle.Render("Sign-in")}
	if m.signIn != nil {
		last := "never"
		if m.signIn.LastDate != nil {
			last = *m.signIn.LastDate
		}
		lines = append(lines,
			fmt.Sprintf("- count: %d", m.signIn.Count),
			fmt.Sprintf("- last: %s", last),
			fmt.Sprintf("- coins: %.2f", m.signIn.Coins),
		)
	}
	lines = append(lines, "", ui.PanelTitle.Render(ui.IconBag+" Backpack"))
	if len(m.items) == 0 {
		lines = append(lines, "(empty)")
	}
	for _, it := range m.items {
		lines = append(lines, fmt.Sprintf("- %s x%d", it.Name, it.Count))
	}
	lines = append(lines, "",
		"Keys",
		"- ↑/↓ or j/k: move",
		"- c/space: claim",
		"- d: today's challenge",
		"- r: refresh",
		"- q: quit",
	)
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	out := []string{ui.PanelTitle.Render(ui.IconScroll + " Tasks")}
	if len(m.tasks) == 0 {
		out = append(out, "(no tasks; press d for today's challenge)")
		return strings.Join(out, "\n")
	}
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.selected {
			cursor = ui.SelectedRow.Render(">") + " "
		}
		out = append(out, cursor+ui.TaskLine(t)+" "+progressBar(t.Progress, t.Target, 10))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func progressBar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := int(float64(value) / float64(total) * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// padBlock pads every line of s to width display cells.
func padBlock(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if w := lipgloss.Width(l); w < width {
			lines[i] = l + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}
