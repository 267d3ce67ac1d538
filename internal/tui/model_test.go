package tui

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teahouse/internal/engine"
	"teahouse/internal/storage"
)

func newTestSession(t *testing.T) *engine.Session {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)
	svc := engine.NewService(db, engine.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return now },
		Picker: rand.New(rand.NewPCG(1, 2)),
	})
	sess, err := svc.Open(ctx, "alice")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func load(t *testing.T, m boardModel) boardModel {
	t.Helper()
	msg := m.loadCmd()()
	next, _ := m.Update(msg)
	return next.(boardModel)
}

func TestBoard_LoadAndView(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	_, err := sess.EnsureTemplateTasks(ctx)
	require.NoError(t, err)
	_, err = sess.SignIn(ctx, 10)
	require.NoError(t, err)

	m := newBoardModel(ctx, sess)
	assert.True(t, m.busy)
	m = load(t, m)
	require.NoError(t, m.err)
	assert.False(t, m.loading)
	assert.False(t, m.busy)
	assert.Len(t, m.tasks, 3)
	assert.InDelta(t, 10.0, m.balance, 0.001)

	view := m.View()
	assert.Contains(t, view, "alice")
	assert.Contains(t, view, "品茶师")
	assert.Contains(t, view, "(empty)")
	assert.Contains(t, view, "2026-10-19")
}

func TestBoard_CursorStaysInRange(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	_, err := sess.EnsureTemplateTasks(ctx)
	require.NoError(t, err)

	m := load(t, newBoardModel(ctx, sess))
	for range 5 {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
		m = next.(boardModel)
	}
	assert.Equal(t, 2, m.selected)

	for range 5 {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
		m = next.(boardModel)
	}
	assert.Equal(t, 0, m.selected)
}

func TestBoard_ClaimCompletedTask(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	_, err := sess.EnsureTemplateTasks(ctx)
	require.NoError(t, err)
	_, err = sess.RecordProgress(ctx, "daily_buy_tea", 2)
	require.NoError(t, err)

	m := load(t, newBoardModel(ctx, sess))
	idx := -1
	for i, task := range m.tasks {
		if task.TaskID == "daily_buy_tea" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	m.selected = idx

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = next.(boardModel)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// Further actions wait until the claim and the reload are done.
	for _, key := range []string{"c", "d", "r"} {
		ignored, extra := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		assert.Nil(t, extra, key)
		assert.True(t, ignored.(boardModel).busy, key)
	}

	next, cmd = m.Update(cmd())
	m = next.(boardModel)
	assert.Contains(t, m.lastLog, "Claimed daily_buy_tea")
	require.NotNil(t, cmd)

	next, _ = m.Update(cmd())
	m = next.(boardModel)
	assert.InDelta(t, 30.0, m.balance, 0.001)
	assert.Equal(t, storage.StatusClaimed, m.tasks[idx].Status)
	assert.False(t, m.busy)
}

func TestBoard_ClaimRejectsUnfinishedTask(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	_, err := sess.EnsureTemplateTasks(ctx)
	require.NoError(t, err)

	m := load(t, newBoardModel(ctx, sess))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Nil(t, cmd)
	assert.Contains(t, next.(boardModel).lastLog, "only completed tasks")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[#####-----]", progressBar(1, 2, 10))
	assert.Equal(t, "[##########]", progressBar(9, 3, 10))
	assert.Equal(t, "[---]", progressBar(0, 0, 1))
}
