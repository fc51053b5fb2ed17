package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

var unarchiveKey = key.NewBinding(
	key.WithKeys("u"),
	key.WithHelp("u", "unarchive"),
)

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type unarchivedMsg struct {
	title string
	err   error
}

// Model lists archived tasks and restores them to the board.
type Model struct {
	store       store.Store
	userID      string
	keys        *keys.KeyMap
	tasks       []model.Task
	selectedIdx int
	statusMsg   string
	width       int
	height      int
}

// New creates a new archive view model.
func New(s store.Store, userID string, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:  s,
		userID: userID,
		keys:   k,
		width:  width, height: height,
	}
}

// Init loads archived tasks from the store.
func (m Model) Init() tea.Cmd {
	return m.loadTasks()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.tasks = msg.tasks
		if m.selectedIdx >= len(m.tasks) {
			m.selectedIdx = max(len(m.tasks)-1, 0)
		}
		return m, nil

	case unarchivedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Restored %q", msg.title)
		return m, tea.Batch(m.loadTasks(), func() tea.Msg { return ui.ChangedMsg{} })

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return ui.CloseMsg{} }

		case key.Matches(msg, m.keys.Down):
			if len(m.tasks) > 0 {
				m.selectedIdx = (m.selectedIdx + 1) % len(m.tasks)
			}

		case key.Matches(msg, m.keys.Up):
			if len(m.tasks) > 0 {
				m.selectedIdx = (m.selectedIdx - 1 + len(m.tasks)) % len(m.tasks)
			}

		case key.Matches(msg, unarchiveKey):
			if len(m.tasks) > 0 {
				return m, m.unarchive(m.tasks[m.selectedIdx])
			}
		}
	}
	return m, nil
}

// View renders the archive list.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(fmt.Sprintf("Archive (%d)", len(m.tasks))))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing archived yet."))
	}
	for i, t := range m.tasks {
		label := t.Title
		if t.Category != "" {
			label += "  " + theme.CategoryStyle(t.CategoryColor).Render("● "+t.Category)
		}
		if t.ArchivedAt != nil {
			label += "  " + theme.DimmedStyle.Render(t.ArchivedAt.Local().Format("2006-01-02"))
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("u unarchive | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) loadTasks() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		tasks, err := s.ListArchivedTasks(context.Background(), uid)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func (m Model) unarchive(t model.Task) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		err := s.UnarchiveTask(context.Background(), uid, t.ID)
		return unarchivedMsg{title: t.Title, err: err}
	}
}
