package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"teahouse/internal/engine"
)

// RunBoard shows the board for the session's user until the user quits.
func RunBoard(ctx context.Context, sess *engine.Session, out io.Writer) error {
	m := newBoardModel(ctx, sess)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
