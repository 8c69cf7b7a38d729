package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 150 * time.Millisecond
	marqueeGap   = "   "
	columnGap    = "  "
)

var spinnerFrames = spinner.MiniDot.Frames

type tickMsg time.Time

// Column defines a single column in the progress table.
type Column struct {
	Header string
	Width  int
}

// Row holds the field values for a single table row.
type Row struct {
	Key    string
	Fields []string
}

// ProgressModel renders a table with one row per unit of work and a STATUS
// column that drives the progress counter. Rows can be added before the
// program starts or streamed in with RowsAddMsg.
type ProgressModel struct {
	title     string
	columns   []Column
	widths    []int
	rows      []Row
	rowIndex  map[string]int
	statusCol int
	done      bool
	err       error
	tick      int
	spin      spinner.Model
}

func NewProgressModel(title string, columns []Column) ProgressModel {
	m := ProgressModel{
		title:     title,
		columns:   columns,
		widths:    make([]int, len(columns)),
		rowIndex:  make(map[string]int),
		statusCol: -1,
		spin:      spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	for i, c := range columns {
		m.widths[i] = max(len(c.Header), c.Width)
		if m.statusCol < 0 && strings.EqualFold(c.Header, "STATUS") {
			m.statusCol = i
		}
	}
	return m
}

// AddRow appends a row; a duplicate key is ignored.
func (m *ProgressModel) AddRow(key string, fields []string) {
	if _, ok := m.rowIndex[key]; ok {
		return
	}
	padded := make([]string, len(m.columns))
	copy(padded, fields)
	m.rowIndex[key] = len(m.rows)
	m.rows = append(m.rows, Row{Key: key, Fields: padded})
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(scheduleTick(), m.spin.Tick)
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case RowsAddMsg:
		m.rowIndex = cloneIndex(m.rowIndex)
		for _, r := range msg.Rows {
			m.AddRow(r.Key, r.Fields)
		}
		return m, nil

	case RowUpdateMsg:
		m.applyRowUpdate(msg)
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ProgressModel) applyRowUpdate(msg RowUpdateMsg) {
	idx, ok := m.rowIndex[msg.Key]
	if !ok {
		return
	}
	fields := append([]string(nil), m.rows[idx].Fields...)
	for j, col := range m.columns {
		if val, exists := msg.Fields[col.Header]; exists {
			fields[j] = val
		}
	}
	m.rows = append([]Row(nil), m.rows...)
	m.rows[idx].Fields = fields
}

func (m ProgressModel) View() string {
	if m.done && m.err != nil && len(m.rows) == 0 {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	header := make([]string, len(m.columns))
	for i, col := range m.columns {
		header[i] = HeaderStyle.Render(pad(col.Header, m.widths[i]))
	}
	b.WriteString(strings.Join(header, columnGap))
	b.WriteByte('\n')

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteByte('\n')
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\nError: %v\n", m.err)
	}

	if !m.done {
		processed, total := m.progressCounts()
		fmt.Fprintf(&b, "\n%s Updating %d/%d...\n", m.spin.View(), processed, total)
	}
	return b.String()
}

func (m ProgressModel) renderRow(row Row) string {
	parts := make([]string, len(m.columns))
	for i := range m.columns {
		val := ""
		if i < len(row.Fields) {
			val = row.Fields[i]
		}
		width := m.widths[i]
		if !m.done && len(strings.TrimSpace(val)) > width {
			val = marqueeText(val, width, m.tick)
		} else {
			val = TruncateWithEllipsis(val, width)
		}
		if i == m.statusCol {
			parts[i] = StatusStyle(val).Render(pad(val, width))
		} else {
			parts[i] = pad(val, width)
		}
	}
	return strings.Join(parts, columnGap)
}

// progressCounts returns how many rows reached a final status, and the total.
func (m ProgressModel) progressCounts() (int, int) {
	total := len(m.rows)
	if m.statusCol < 0 {
		return 0, total
	}
	processed := 0
	for _, row := range m.rows {
		switch strings.TrimSpace(row.Fields[m.statusCol]) {
		case "", StatusPending, StatusUpdating:
		default:
			processed++
		}
	}
	return processed, total
}

func (m ProgressModel) Done() bool { return m.done }

func (m ProgressModel) Err() error { return m.err }

func cloneIndex(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// marqueeText scrolls text that is wider than width by one byte per tick.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	cycle := text + marqueeGap
	offset := tick % len(cycle)
	out := make([]byte, width)
	for i := range out {
		out[i] = cycle[(offset+i)%len(cycle)]
	}
	return string(out)
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." if it exceeds max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
