package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

type section struct {
	title    string
	bindings []key.Binding
	note     string
}

// Model is the help overlay view.
type Model struct {
	keys     *keys.KeyMap
	help     help.Model
	filtered string
	width    int
	height   int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	return Model{keys: keys, help: help.New(), width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetFilter records the board's active filter summary. Moves are
// refused while it is non-empty, and the overlay says so.
func (m *Model) SetFilter(summary string) {
	m.filtered = summary
}

// Update closes the overlay on back or help.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back, m.keys.Help) {
			return m, func() tea.Msg { return ui.CloseMsg{} }
		}
	}
	return m, nil
}

func (m Model) sections() []section {
	k := m.keys
	moveNote := "Moves are saved right away; the board reloads if saving fails."
	if m.filtered != "" {
		moveNote = fmt.Sprintf("Moving is off while filtering by %s. Press %s to clear.",
			m.filtered, k.ClearFilters.Help().Key)
	}
	titles := []string{"Board", "Moving tasks", "Task actions", "Filters", "Views"}
	notes := map[int]string{
		1: moveNote,
		2: "Done tasks are archived once they have been completed for a while.",
	}
	var out []section
	for i, group := range k.FullHelp() {
		title := "More"
		if i < len(titles) {
			title = titles[i]
		}
		out = append(out, section{title: title, bindings: group, note: notes[i]})
	}
	return out
}

func (m Model) renderSection(s section, width int) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(s.title)
	parts := []string{heading, m.help.FullHelpView([][]key.Binding{s.bindings})}
	if s.note != "" {
		parts = append(parts, theme.HelpStyle.Width(max(width, 20)).Render(s.note))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	inner := max(m.width-8, 0)
	parts := []string{titleStyle.Render("Keyboard Shortcuts")}
	for _, s := range m.sections() {
		parts = append(parts, m.renderSection(s, inner), "")
	}

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
