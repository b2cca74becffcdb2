package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 50

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// ProgressMsg reports solved radial columns; send it with Program.Send
// from the build goroutine.
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg ends the live view. A non-nil Err is shown before quitting.
type DoneMsg struct {
	Err error
}

// Model is the live view of a density-field build.
type Model struct {
	title    string
	done     int
	total    int
	start    time.Time
	err      error
	finished bool
}

func NewModel(title string, total int) Model {
	return Model{title: title, total: total, start: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			m.total = msg.Total
		}
	case DoneMsg:
		m.err = msg.Err
		m.finished = true
		return m, tea.Quit
	case TickMsg:
		return m, tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	filled := int(frac * barWidth)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(&b, "  %s %3.0f%%\n\n", bar, frac*100)

	row(&b, "columns", fmt.Sprintf("%d / %d", m.done, m.total))
	row(&b, "elapsed", time.Since(m.start).Round(100*time.Millisecond).String())
	if m.done > 0 && m.done < m.total {
		perCol := time.Since(m.start) / time.Duration(m.done)
		eta := perCol * time.Duration(m.total-m.done)
		row(&b, "eta", eta.Round(time.Second).String())
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render("build failed: "+m.err.Error()) + "\n")
	} else if m.total > 0 && m.done >= m.total {
		b.WriteString("\n" + doneStyle.Render("done") + "\n")
	}

	b.WriteString(helpStyle.Render("q quit"))
	return b.String() + "\n"
}

// Err reports the build error delivered by DoneMsg, if any.
func (m Model) Err() error { return m.err }

// Finished reports whether a DoneMsg arrived. False means the view was
// quit while the build was still running.
func (m Model) Finished() bool { return m.finished }

func row(b *strings.Builder, label, value string) {
	b.WriteString("  " + labelStyle.Render(label) + valueStyle.Render(value) + "\n")
}
