// Package tui is the interactive front end: a single panel showing the latest
// value posted by the driver, with a key that ticks the event source.
package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/internal/driver"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 2).
		Width(32)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230"))

	value = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	failure = lipgloss.NewStyle().
		Foreground(lipgloss.Color("203"))
)

// Ticker is the part of an event source the TUI drives.
type Ticker interface {
	Tick() error
}

// ValueMsg carries one value posted by the driver.
type ValueMsg string

// TickedMsg reports the result of one tick.
type TickedMsg struct {
	Err error
}

// DoneMsg reports that the driver returned.
type DoneMsg struct {
	Err error
}

// Sink posts driver values into p.
func Sink(p *tea.Program) driver.Sink {
	return driver.SinkFunc(func(v string) {
		p.Send(ValueMsg(v))
	})
}

// Model is the bubbletea model.
type Model struct {
	src    Ticker
	err    error
	latest string
	status string
	posted int
	ticks  int
	done   bool
}

// New returns a Model that ticks src.
func New(src Ticker) Model {
	return Model{src: src}
}

// Latest returns the most recent value shown.
func (m Model) Latest() string { return m.latest }

// Err returns the error that ended the driver, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "t", " ":
			return m.tick()
		}
	case TickedMsg:
		switch {
		case msg.Err == nil:
			m.ticks++
			m.status = ""
		case errors.Is(msg.Err, flowbridge.ErrMisuse):
			m.status = "no listener registered"
		default:
			m.status = msg.Err.Error()
		}
	case ValueMsg:
		m.latest = string(msg)
		m.posted++
		m.status = ""
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

// tick runs Tick as a command, off the event loop. Tick may block on a full
// bounded buffer until the driver posts values, and posting needs the event
// loop.
func (m Model) tick() (Model, tea.Cmd) {
	if m.done {
		m.status = "driver finished"
		return m, nil
	}
	src := m.src
	return m, func() tea.Msg {
		return TickedMsg{Err: src.Tick()}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(title.Render("flowbridge"))
	b.WriteString("\n\n")

	latest := m.latest
	if latest == "" {
		latest = "..."
	}
	b.WriteString(value.Render(latest))
	b.WriteString("\n\n")
	b.WriteString(muted.Render(fmt.Sprintf("ticks %d · values %d", m.ticks, m.posted)))

	switch {
	case m.err != nil:
		b.WriteString("\n")
		b.WriteString(failure.Render("error: " + m.err.Error()))
	case m.done:
		b.WriteString("\n")
		b.WriteString(muted.Render("done"))
	case m.status != "":
		b.WriteString("\n")
		b.WriteString(muted.Render(m.status))
	}

	return panel.Render(b.String()) + "\n" + muted.Render("t/space tick · q quit") + "\n"
}
