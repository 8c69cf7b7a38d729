package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// UpdateColumns is the table layout for package updates.
var UpdateColumns = []Column{
	{Header: "PACKAGE", Width: 24},
	{Header: "STATUS", Width: 10},
	{Header: "DETAIL", Width: 48},
}

// UpdateReporter turns update events into bubbletea messages.
type UpdateReporter struct {
	send func(tea.Msg)
}

func NewUpdateReporter(send func(tea.Msg)) *UpdateReporter {
	return &UpdateReporter{send: send}
}

func (r *UpdateReporter) Plan(names []string) {
	rows := make([]Row, len(names))
	for i, name := range names {
		rows[i] = Row{Key: name, Fields: []string{name, StatusPending, NonEmptyOrDash("")}}
	}
	r.send(RowsAddMsg{Rows: rows})
}

func (r *UpdateReporter) Start(name string) {
	r.send(RowUpdateMsg{Key: name, Fields: map[string]string{"STATUS": StatusUpdating}})
}

func (r *UpdateReporter) Complete(name string, err error) {
	fields := map[string]string{"STATUS": StatusUpdated, "DETAIL": NonEmptyOrDash("")}
	if err != nil {
		fields["STATUS"] = StatusFailed
		fields["DETAIL"] = NonEmptyOrDash(err.Error())
	}
	r.send(RowUpdateMsg{Key: name, Fields: fields})
}

// LineReporter writes one line per finished package, for pipes and logs.
type LineReporter struct {
	w     io.Writer
	mu    sync.Mutex
	total int
	seen  int
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Plan(names []string) {
	r.mu.Lock()
	r.total = len(names)
	r.mu.Unlock()
}

func (r *LineReporter) Start(string) {}

func (r *LineReporter) Complete(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen++
	if err != nil {
		fmt.Fprintf(r.w, "[%d/%d] %s %s: %v\n", r.seen, r.total, name, StatusFailed, err)
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] %s %s\n", r.seen, r.total, name, StatusUpdated)
}
