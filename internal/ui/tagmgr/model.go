package tagmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

type tagsLoadedMsg struct {
	tags []model.Tag
	err  error
}

type tagDeletedMsg struct {
	name string
	err  error
}

// Model is the Bubble Tea model for tag management. Tags are created from
// the task form, so this view only lists and deletes them.
type Model struct {
	store       store.Store
	userID      string
	keys        *keys.KeyMap
	tags        []model.Tag
	selectedIdx int
	confirmForm *huh.Form
	confirm     *bool
	statusMsg   string
	width       int
	height      int
}

// New creates a new tag manager model.
func New(s store.Store, userID string, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:   s,
		userID:  userID,
		keys:    k,
		confirm: new(bool),
		width:   width,
		height:  height,
	}
}

// Init loads tags from the store.
func (m Model) Init() tea.Cmd {
	return m.loadTags()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tagsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.tags = msg.tags
		if m.selectedIdx >= len(m.tags) {
			m.selectedIdx = max(len(m.tags)-1, 0)
		}
		return m, nil

	case tagDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Tag #%s deleted", msg.name)
		return m, tea.Batch(m.loadTags(), func() tea.Msg { return ui.ChangedMsg{} })
	}

	if m.confirmForm != nil {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return ui.CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.tags) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.tags)
		}

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.tags) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.tags) - 1
			}
		}

	case key.Matches(keyMsg, m.keys.Delete):
		if len(m.tags) == 0 {
			return m, nil
		}
		*m.confirm = false
		w, h := ui.FormSize(m.width, m.height)
		m.confirmForm = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete tag #%s?", m.tags[m.selectedIdx].Name)).
					Description("This tag will be removed from all tasks.").
					Affirmative("Yes, delete").
					Negative("Cancel").
					Value(m.confirm),
			),
		).WithWidth(w).WithHeight(h)
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.confirmForm = nil
		if *m.confirm && m.selectedIdx < len(m.tags) {
			return m, m.deleteTag(m.tags[m.selectedIdx])
		}
		return m, nil
	case huh.StateAborted:
		m.confirmForm = nil
		return m, nil
	}
	return m, cmd
}

// View renders the tag manager.
func (m Model) View() string {
	if m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Tags"))
	b.WriteString("\n\n")

	if len(m.tags) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No tags yet. Add some from the task form."))
	} else {
		tagStyle := lipgloss.NewStyle().Foreground(theme.ColorMagenta)
		for i, t := range m.tags {
			label := tagStyle.Render("#" + t.Name)
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) loadTags() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		tags, err := s.ListTags(context.Background(), uid)
		return tagsLoadedMsg{tags: tags, err: err}
	}
}

func (m Model) deleteTag(t model.Tag) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		err := s.DeleteTag(context.Background(), uid, t.ID)
		return tagDeletedMsg{name: t.Name, err: err}
	}
}
