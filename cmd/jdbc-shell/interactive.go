package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	jdbcbridge "github.com/vexdb/jdbc-bridge"
	"github.com/vexdb/jdbc-bridge/bridge"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7DD2")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type shellModel struct {
	driverID string
	url      string
	props    map[string]string
	log      *zap.Logger

	conn   *bridge.Connection
	cursor *bridge.Cursor
	input  textinput.Model

	output  string
	err     error
	history []string
	histPos int
}

type connectedMsg struct {
	err  error
	conn *bridge.Connection
}

type queryResultMsg struct {
	err    error
	output string
}

func newShellModel(driverID, url string, props map[string]string, log *zap.Logger) *shellModel {
	ti := textinput.New()
	ti.Placeholder = "SELECT ..."
	ti.Prompt = "sql> "
	ti.Width = 80
	ti.Focus()

	return &shellModel{
		driverID: driverID,
		url:      url,
		props:    props,
		log:      log,
		input:    ti,
	}
}

func (m *shellModel) Init() tea.Cmd {
	return m.connect
}

func (m *shellModel) connect() tea.Msg {
	conn, err := jdbcbridge.Connect(context.Background(), m.driverID, m.url, m.props,
		bridge.WithLogger(m.log))
	return connectedMsg{conn: conn, err: err}
}

func (m *shellModel) runQuery(sql string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.cursor.Execute(ctx, sql); err != nil {
			return queryResultMsg{err: err}
		}

		desc := m.cursor.Description()
		if desc == nil {
			return queryResultMsg{
				output: statusStyle.Render(fmt.Sprintf("%d rows affected", m.cursor.RowCount())),
			}
		}
		rows, err := m.cursor.FetchAll(ctx)
		if err != nil {
			return queryResultMsg{err: err}
		}
		out := renderResult(desc, rows) + statusStyle.Render(fmt.Sprintf("(%d rows)", len(rows)))
		return queryResultMsg{output: out}
	}
}

func (m *shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			ctx := context.Background()
			if m.cursor != nil {
				_ = m.cursor.Close(ctx)
			}
			if m.conn != nil {
				_ = m.conn.Close(ctx)
			}
			return m, tea.Quit

		case "enter":
			sql := strings.TrimSpace(m.input.Value())
			if sql == "" || m.cursor == nil {
				return m, nil
			}
			m.history = append(m.history, sql)
			m.histPos = len(m.history)
			m.input.SetValue("")
			m.err = nil
			return m, m.runQuery(sql)

		case "up":
			if m.histPos > 0 {
				m.histPos--
				m.input.SetValue(m.history[m.histPos])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histPos < len(m.history)-1 {
				m.histPos++
				m.input.SetValue(m.history[m.histPos])
				m.input.CursorEnd()
			} else {
				m.histPos = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}

	case connectedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.conn = msg.conn
		m.cursor = msg.conn.Cursor()
		m.output = statusStyle.Render("connected")

	case queryResultMsg:
		m.err = msg.err
		m.output = msg.output
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *shellModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("jdbc-shell"))
	b.WriteString(" ")
	b.WriteString(m.driverID)
	b.WriteString(" ")
	b.WriteString(m.url)
	b.WriteString("\n\n")

	if m.conn == nil && m.err == nil {
		b.WriteString("Connecting...\n")
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	} else if m.output != "" {
		b.WriteString(m.output)
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter execute • ↑/↓ history • ctrl+c quit"))
	return b.String()
}

// renderResult formats a result set as an aligned text table.
func renderResult(desc []sqltype.Descriptor, rows [][]sqltype.Value) string {
	widths := make([]int, len(desc))
	for i, d := range desc {
		widths[i] = len(d.Name)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			s := v.String()
			cells[r][i] = s
			if i < len(widths) && len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	var b strings.Builder
	for i, d := range desc {
		b.WriteString(headerStyle.Render(pad(d.Name, widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for i := range desc {
		b.WriteString(strings.Repeat("-", widths[i]))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for _, row := range cells {
		for i, s := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			b.WriteString(cellStyle.Render(pad(s, w)))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func runInteractive(driverID, url string, props map[string]string, log *zap.Logger) error {
	p := tea.NewProgram(newShellModel(driverID, url, props, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
