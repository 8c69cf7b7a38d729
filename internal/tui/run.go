package tui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork runs model on out while workFn executes in a goroutine. Quitting
// the program early (ctrl+c) cancels the context handed to workFn; RunWithWork
// waits for workFn to return either way and reports its error. A failed
// workFn ends the program with ErrorMsg so the error shows under the table.
func RunWithWork(ctx context.Context, out io.Writer, model ProgressModel, workFn func(ctx context.Context, send func(tea.Msg)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	workErr := make(chan error, 1)

	go func() {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		err := workFn(ctx, func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})
		workErr <- err
		p.Send(finishMsg(err))
	}()

	finalModel, runErr := p.Run()
	cancel()
	err := <-workErr

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	if err != nil {
		return err
	}
	if m, ok := finalModel.(ProgressModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func finishMsg(err error) tea.Msg {
	if err != nil {
		return ErrorMsg{Err: err}
	}
	return WorkDoneMsg{}
}
