package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

// Command is a palette entry.
type Command struct {
	Name string
	Args string
	Help string
}

// Commands lists every command the palette accepts.
var Commands = []Command{
	{Name: "new", Help: "create a task in the focused column"},
	{Name: "move", Args: "<column>", Help: "move the selected task to the top of a column"},
	{Name: "archive", Help: "archive the selected task"},
	{Name: "reload", Help: "reload the board"},
	{Name: "sweep", Help: "archive old done tasks now"},
	{Name: "archived", Help: "show archived tasks"},
	{Name: "categories", Help: "manage categories"},
	{Name: "tags", Help: "manage tags"},
	{Name: "notes", Help: "daily notes"},
	{Name: "progress", Help: "time progress trackers"},
	{Name: "settings", Help: "edit settings"},
	{Name: "help", Help: "show key bindings"},
	{Name: "quit", Help: "exit"},
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits input into a known command and its argument.
func Parse(input string) (CommandMsg, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	name = strings.ToLower(name)
	for _, c := range Commands {
		if c.Name != name {
			continue
		}
		arg = strings.TrimSpace(arg)
		if c.Args != "" && arg == "" {
			return CommandMsg{}, fmt.Errorf("%s needs %s", c.Name, c.Args)
		}
		return CommandMsg{Name: name, Arg: arg}, nil
	}
	return CommandMsg{}, fmt.Errorf("unknown command %q", name)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Open clears and focuses the input.
func (m *Model) Open() tea.Cmd {
	m.input.Reset()
	m.err = ""
	return m.input.Focus()
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return m, func() tea.Msg { return ui.CloseMsg{} }

		case "tab":
			if s := m.suggestions(); len(s) > 0 {
				m.input.SetValue(s[0].Name + " ")
				m.input.CursorEnd()
			}
			return m, nil

		case "enter":
			input := strings.TrimSpace(m.input.Value())
			if input == "" {
				return m, nil
			}
			cmd, err := Parse(input)
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.input.Blur()
			return m, func() tea.Msg { return cmd }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = ""
	return m, cmd
}

// suggestions returns the commands whose name starts with the typed word.
func (m Model) suggestions() []Command {
	word, _, hasArg := strings.Cut(strings.TrimSpace(m.input.Value()), " ")
	if hasArg {
		return nil
	}
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, strings.ToLower(word)) {
			out = append(out, c)
		}
	}
	return out
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var list strings.Builder
	for _, c := range m.suggestions() {
		name := c.Name
		if c.Args != "" {
			name += " " + c.Args
		}
		fmt.Fprintf(&list, "%s  %s\n",
			lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(18).Render(name),
			theme.DimmedStyle.Render(c.Help))
	}

	parts := []string{titleStyle.Render("Command Palette"), m.input.View(), "", list.String()}
	if m.err != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.err))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-6, 10)
}
