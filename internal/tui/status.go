// Package tui renders the interactive project status view.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/fyrsmithlabs/flowgate/internal/gate"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

// StatusData is the snapshot the status view renders.
type StatusData struct {
	Project      string
	Workflow     string
	Strictness   string
	Stages       []workflow.Stage
	CurrentStage string

	// Gate holds the activation check for the next pipeline agent, when
	// one was requested.
	GateAgent string
	Gate      *gate.Result
}

// Loader re-reads the status snapshot; the view calls it on refresh.
type Loader func() (StatusData, error)

// Lipgloss styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)
)

// Message types
type dataMsg StatusData
type errMsg error
type fileChangedMsg struct{}

// Model is the BubbleTea model for the status view.
type Model struct {
	load     Loader
	data     StatusData
	err      error
	quitting bool

	stageProgress progress.Model
}

// NewModel creates a status view over the loader.
func NewModel(load Loader) Model {
	return Model{
		load: load,
		stageProgress: progress.New(
			progress.WithGradient("#00ffff", "#00ff00"),
			progress.WithWidth(40),
		),
	}
}

// Init triggers the first data load.
func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		data, err := m.load()
		if err != nil {
			return errMsg(err)
		}
		return dataMsg(data)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}
	case dataMsg:
		m.data = StatusData(msg)
		m.err = nil
	case errMsg:
		m.err = error(msg)
	case fileChangedMsg:
		return m, m.refresh()
	}
	return m, nil
}

// View renders the status screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf(" flowgate — %s ", m.data.Project)
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(failStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
		b.WriteString(m.footer())
		return b.String()
	}

	b.WriteString(labelStyle.Render("workflow: "))
	b.WriteString(valueStyle.Render(m.data.Workflow))
	b.WriteString(dimStyle.Render("  strictness: " + m.data.Strictness))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Pipeline"))
	b.WriteString("\n")
	b.WriteString(m.stageProgress.ViewAs(m.stagePercent()))
	b.WriteString("\n")

	currentIdx := m.currentIndex()
	for i, s := range m.data.Stages {
		line := fmt.Sprintf("  %s  %s", s.ID, dimStyle.Render(s.Name))
		switch {
		case i < currentIdx:
			b.WriteString(doneStyle.Render("✓ " + line))
		case i == currentIdx:
			b.WriteString(currentStyle.Render("▶ " + line))
		default:
			b.WriteString(dimStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.data.Gate != nil {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Gate — %s", m.data.GateAgent)))
		b.WriteString("\n")
		if m.data.Gate.Passed {
			b.WriteString(doneStyle.Render("✓ " + m.data.Gate.Message))
			b.WriteString("\n")
		} else {
			for _, reason := range m.data.Gate.Reasons {
				b.WriteString(failStyle.Render("✗ ") + reason)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) footer() string {
	return footerStyle.Render(
		footerKeyStyle.Render("r") + " refresh  " +
			footerKeyStyle.Render("q") + " quit")
}

func (m Model) currentIndex() int {
	for i, s := range m.data.Stages {
		if s.ID == m.data.CurrentStage {
			return i
		}
	}
	return -1
}

func (m Model) stagePercent() float64 {
	if len(m.data.Stages) == 0 {
		return 0
	}
	idx := m.currentIndex()
	if idx < 0 {
		return 0
	}
	return float64(idx+1) / float64(len(m.data.Stages))
}

// Run starts the interactive status view. The view refreshes when any of
// the watch paths change; a failed watcher setup degrades to manual
// refresh.
func Run(load Loader, watchPaths ...string) error {
	p := tea.NewProgram(NewModel(load))

	if len(watchPaths) > 0 {
		if w, err := fsnotify.NewWatcher(); err == nil {
			defer w.Close()
			for _, path := range watchPaths {
				_ = w.Add(path)
			}
			go forwardEvents(w, p)
		}
	}

	_, err := p.Run()
	return err
}

func forwardEvents(w *fsnotify.Watcher, p *tea.Program) {
	for {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return
			}
			p.Send(fileChangedMsg{})
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}
