// Package tui is the interactive terminal front end for the search engine.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	authorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	currentStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	pageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// viewChangedMsg reports that the engine's view changed.
type viewChangedMsg struct {
	view    engine.View
	changed <-chan struct{}
}

// Model is the bubbletea model wrapping an engine.
type Model struct {
	engine  *engine.Engine
	input   textinput.Model
	view    engine.View
	changed <-chan struct{}
	width   int
}

// New creates a model. The input starts with the engine's restored query.
func New(e *engine.Engine) *Model {
	view, changed := e.Snapshot()

	input := textinput.New()
	input.Placeholder = "Search books..."
	input.Prompt = "> "
	input.CharLimit = 200
	input.SetValue(view.Query)
	input.Focus()

	return &Model{
		engine:  e,
		input:   input,
		view:    view,
		changed: changed,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.engine, m.changed))
}

// waitForChange blocks until the engine signals a change, then delivers the
// fresh view.
func waitForChange(e *engine.Engine, changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changed
		v, next := e.Snapshot()
		return viewChangedMsg{view: v, changed: next}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case viewChangedMsg:
		m.view = msg.view
		m.changed = msg.changed
		return m, waitForChange(m.engine, m.changed)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyPgDown, tea.KeyCtrlN:
			m.engine.NextPage()
			return m, nil
		case tea.KeyPgUp, tea.KeyCtrlB:
			m.engine.PrevPage()
			return m, nil
		case tea.KeyHome:
			m.engine.OnPageRequest(1)
			return m, nil
		case tea.KeyEnter:
			m.engine.FlushQuery()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.engine.OnQueryChange(v)
	}
	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bookscout"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	v := m.view
	switch {
	case v.State == engine.StateIdle:
		b.WriteString(helpStyle.Render("Type to search the catalog."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderStatus())
		b.WriteString("\n\n")
		for _, it := range v.Items {
			line := it.Title
			if len(it.Authors) > 0 {
				line += authorStyle.Render(" by " + strings.Join(it.Authors, ", "))
			}
			b.WriteString(itemStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.renderPagination())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("pgup/ctrl+b prev  pgdn/ctrl+n next  home first page  esc quit"))
	return b.String()
}

func (m *Model) renderStatus() string {
	v := m.view
	switch {
	case v.Err != nil:
		return errorStyle.Render(fmt.Sprintf("Page %d could not be loaded. Navigate back to it to retry.", v.CurrentPage))
	case v.IsFetching && v.PendingPage > 0:
		return statusStyle.Render(fmt.Sprintf("Loading page %d...", v.PendingPage))
	case v.IsFetching:
		return statusStyle.Render("Searching...")
	case v.IsCurrentPageEmpty:
		return statusStyle.Render("No more results.")
	default:
		return pageStyle.Render(fmt.Sprintf("Page %d", v.CurrentPage))
	}
}

func (m *Model) renderPagination() string {
	v := m.view
	parts := make([]string, 0, len(v.Window)+2)
	if v.HasPrev {
		parts = append(parts, pageStyle.Render("<"))
	}
	for _, btn := range v.Window {
		label := btn.String()
		if !btn.Ellipsis && btn.Page == v.CurrentPage {
			parts = append(parts, currentStyle.Render(" "+label+" "))
			continue
		}
		parts = append(parts, pageStyle.Render(label))
	}
	if v.HasNext {
		parts = append(parts, pageStyle.Render(">"))
	}
	return strings.Join(parts, " ")
}

// Run starts the interactive program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, e *engine.Engine) error {
	p := tea.NewProgram(New(e), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
