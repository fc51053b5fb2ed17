package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

// Action names carried by ActionMsg.
const (
	ActionEdit    = "edit"
	ActionArchive = "archive"
	ActionDelete  = "delete"
)

// ActionMsg signals the parent to execute an action on the current task.
type ActionMsg struct {
	Action string
	TaskID string
}

// Model is the task detail view component.
type Model struct {
	task        *model.Task
	viewport    viewport.Model
	keys        *keys.KeyMap
	confirmForm *huh.Form
	confirm     *bool
	width       int
	height      int
	now         func() time.Time
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		confirm:  new(bool),
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm != nil {
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.task != nil {
		id := m.task.ID
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return ui.CloseMsg{} }

		case key.Matches(msg, m.keys.Edit):
			return m, action(ActionEdit, id)

		case key.Matches(msg, m.keys.Archive):
			if m.task.IsArchived() {
				return m, nil
			}
			return m, action(ActionArchive, id)

		case key.Matches(msg, m.keys.Delete):
			*m.confirm = false
			m.confirmForm = huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete task %q?", m.task.Title)).
						Description("This cannot be undone. Archive instead to keep it.").
						Affirmative("Yes, delete").
						Negative("Cancel").
						Value(m.confirm),
				),
			).WithWidth(min(max(m.width-4, 40), 80))
			return m, m.confirmForm.Init()
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.confirmForm = nil
		if *m.confirm && m.task != nil {
			return m, action(ActionDelete, m.task.ID)
		}
		return m, nil
	case huh.StateAborted:
		m.confirmForm = nil
		return m, nil
	}
	return m, cmd
}

func action(name, id string) tea.Cmd {
	return func() tea.Msg { return ActionMsg{Action: name, TaskID: id} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}
	if m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	now := m.now()
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	badges := []string{theme.StatusStyle(task.Status).Render(task.Status)}
	if task.Priority != model.PriorityUnset {
		badges = append(badges, theme.PriorityStyle(task.Priority).Render(model.PriorityLabel(task.Priority)))
	}
	if task.Category != "" {
		badges = append(badges, theme.CategoryStyle(task.CategoryColor).Render("● "+task.Category))
	}
	if task.IsArchived() {
		badges = append(badges, theme.DimmedStyle.Render("archived"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(label, value string) {
		sections = append(sections, metaStyle.Render(label)+valStyle.Render(value))
	}

	if task.Deadline != nil {
		value := task.Deadline.Local().Format("2006-01-02 15:04")
		if st := task.DeadlineState(now); st != model.DeadlineNone {
			value += "  " + theme.DeadlineStyle(st).Render(st.String())
		}
		meta("Deadline:", value)
	}
	if len(task.Tags) > 0 {
		meta("Tags:", "#"+strings.Join(task.TagNames(), " #"))
	}
	meta("Created:", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	if task.CompletedAt != nil {
		meta("Completed:", task.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	if task.ArchivedAt != nil {
		meta("Archived:", task.ArchivedAt.Local().Format("2006-01-02 15:04"))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	descHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, descHeaderStyle.Render("Description"))

	if strings.TrimSpace(task.Description) == "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description"))
	} else {
		sections = append(sections, ui.RenderMarkdown(task.Description, min(m.width-4, 100)))
	}

	sections = append(sections, "", theme.HelpStyle.Render("e edit | a archive | d delete | esc back"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(t model.Task) {
	m.task = &t
	m.confirmForm = nil
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Task returns the displayed task.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
