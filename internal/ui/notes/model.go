package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

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

type noteMode int

const (
	modeList noteMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	title   string
	content string
	date    string
	confirm bool
}

type notesLoadedMsg struct {
	notes []model.Note
	err   error
}

type noteSavedMsg struct{ err error }
type noteDeletedMsg struct{ err error }

// Model lists dated notes with a preview of the selected one.
type Model struct {
	mode        noteMode
	store       store.Store
	userID      string
	keys        *keys.KeyMap
	notes       []model.Note
	selectedIdx int
	editing     *model.Note
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
	now         func() time.Time
}

// New creates a new notes view model.
func New(s store.Store, userID string, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:  s,
		userID: userID,
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
		now:    time.Now,
	}
}

// Init loads notes from the store.
func (m Model) Init() tea.Cmd {
	return m.loadNotes()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.notes = msg.notes
		if m.selectedIdx >= len(m.notes) {
			m.selectedIdx = max(len(m.notes)-1, 0)
		}
		return m, nil

	case noteSavedMsg:
		return m.afterWrite(msg.err, "Note saved")

	case noteDeletedMsg:
		return m.afterWrite(msg.err, "Note deleted")
	}

	if m.mode != modeList {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return ui.CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.notes) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.notes)
		}

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.notes) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.notes)) % len(m.notes)
		}

	case key.Matches(keyMsg, m.keys.New):
		m.editing = nil
		*m.fb = formBindings{date: m.now().Format(model.NoteDateLayout)}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Edit):
		if len(m.notes) == 0 {
			return m, nil
		}
		n := m.notes[m.selectedIdx]
		m.editing = &n
		*m.fb = formBindings{title: n.Title, content: n.Content, date: n.Date}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Delete):
		if len(m.notes) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		w, h := ui.FormSize(m.width, m.height)
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete note %q?", m.notes[m.selectedIdx].Title)).
					Affirmative("Yes, delete").
					Negative("Cancel").
					Value(&m.fb.confirm),
			),
		).WithWidth(w).WithHeight(h)
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) afterWrite(err error, ok string) (Model, tea.Cmd) {
	m.mode = modeList
	m.form = nil
	if err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	m.statusMsg = ok
	return m, m.loadNotes()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		if m.mode == modeConfirmDelete {
			if m.fb.confirm && m.selectedIdx < len(m.notes) {
				return m, m.deleteNote(m.notes[m.selectedIdx].ID)
			}
			m.mode = modeList
			return m, nil
		}
		return m, m.saveNote()
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Date").
				Placeholder(model.NoteDateLayout).
				Value(&m.fb.date).
				Validate(func(s string) error {
					if _, err := time.Parse(model.NoteDateLayout, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewText().
				Title("Content").
				Placeholder("Markdown supported").
				Value(&m.fb.content),
		),
	).WithWidth(w).WithHeight(h)
}

// View renders the notes list and the selected note.
func (m Model) View() string {
	if m.mode != modeList && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Notes"))
	b.WriteString("\n\n")

	listWidth := max(m.width/3, 24)
	var list strings.Builder
	if len(m.notes) == 0 {
		list.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).
			Render("No notes yet. Press 'n' to write one."))
	}
	today := m.now().Format(model.NoteDateLayout)
	for i, n := range m.notes {
		date := n.Date
		if date == today {
			date = "today"
		}
		label := theme.DimmedStyle.Render(fmt.Sprintf("%-10s ", date)) + n.Title
		if i == m.selectedIdx {
			list.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			list.WriteString(theme.ListItemStyle.Render(label))
		}
		list.WriteString("\n")
	}

	left := lipgloss.NewStyle().Width(listWidth).Render(list.String())
	right := ""
	if len(m.notes) > 0 {
		n := m.notes[m.selectedIdx]
		previewWidth := max(m.width-listWidth-8, 20)
		right = theme.DetailPanelStyle.Width(previewWidth).Render(
			lipgloss.NewStyle().Bold(true).Render(n.Title) + "\n\n" + ui.RenderMarkdown(n.Content, previewWidth-4),
		)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("n new | e edit | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) loadNotes() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		notes, err := s.ListNotes(context.Background(), uid)
		return notesLoadedMsg{notes: notes, err: err}
	}
}

func (m Model) saveNote() tea.Cmd {
	s, uid := m.store, m.userID
	fb := *m.fb
	editing := m.editing
	return func() tea.Msg {
		n := model.Note{
			Title:   strings.TrimSpace(fb.title),
			Content: fb.content,
			Date:    strings.TrimSpace(fb.date),
		}
		ctx := context.Background()
		if editing == nil {
			_, err := s.CreateNote(ctx, uid, n)
			return noteSavedMsg{err: err}
		}
		n.ID = editing.ID
		return noteSavedMsg{err: s.UpdateNote(ctx, uid, n)}
	}
}

func (m Model) deleteNote(id string) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		return noteDeletedMsg{err: s.DeleteNote(context.Background(), uid, id)}
	}
}
