package catmgr

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

type catMode int

const (
	modeList catMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	color   string
	confirm bool
}

type categoriesLoadedMsg struct {
	categories []model.Category
	err        error
}

type categorySavedMsg struct{ err error }
type categoryDeletedMsg struct{ err error }

// Model is the Bubble Tea model for category management.
type Model struct {
	mode        catMode
	store       store.Store
	userID      string
	keys        *keys.KeyMap
	categories  []model.Category
	selectedIdx int
	editingID   string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new category manager model.
func New(s store.Store, userID string, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		store:  s,
		userID: userID,
		keys:   k,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Init loads categories from the store.
func (m Model) Init() tea.Cmd {
	return m.loadCategories()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.categories = msg.categories
		if m.selectedIdx >= len(m.categories) {
			m.selectedIdx = max(len(m.categories)-1, 0)
		}
		return m, nil

	case categorySavedMsg:
		return m.afterWrite(msg.err, "Category saved")

	case categoryDeletedMsg:
		return m.afterWrite(msg.err, "Category deleted")

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.handleListKey(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m, nil
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) afterWrite(err error, ok string) (Model, tea.Cmd) {
	m.mode = modeList
	if err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	m.statusMsg = ok
	return m, tea.Batch(m.loadCategories(), func() tea.Msg { return ui.ChangedMsg{} })
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ui.CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.categories) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.categories)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.categories) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.categories) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.editingID = ""
		*m.fb = formBindings{color: model.DefaultCategoryColor}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if len(m.categories) == 0 {
			return m, nil
		}
		c := m.categories[m.selectedIdx]
		m.editingID = c.ID
		*m.fb = formBindings{name: c.Name, color: c.DisplayColor()}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.categories) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(model.CategoryColors))
	for i, c := range model.CategoryColors {
		opts[i] = huh.NewOption(theme.CategoryStyle(c).Render("● ")+c, c)
	}

	var fields []huh.Field
	if m.editingID == "" {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Placeholder("Category name").
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewSelect[string]().
		Title("Colour").
		Options(opts...).
		Height(8).
		Value(&m.fb.color))

	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(w).WithHeight(h)
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.categories) {
		name = m.categories[m.selectedIdx].Name
	}
	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete category %q?", name)).
				Description("Tasks in this category keep existing without one.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(w).WithHeight(h)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveCategory()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm && m.selectedIdx < len(m.categories) {
			return m, m.deleteCategory(m.categories[m.selectedIdx].ID)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the category manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeConfirmDelete:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Categories"))
	b.WriteString("\n\n")

	if len(m.categories) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No categories yet. Press 'n' to create one."))
	}
	for i, c := range m.categories {
		label := theme.CategoryStyle(c.DisplayColor()).Render("●") + "  " + c.Name +
			theme.DimmedStyle.Render("  "+c.DisplayColor())
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
	b.WriteString(theme.HelpStyle.Render("n new | e colour | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) loadCategories() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		cats, err := s.ListCategories(context.Background(), uid)
		return categoriesLoadedMsg{categories: cats, err: err}
	}
}

// saveCategory creates the category when it is new, then applies the colour.
func (m Model) saveCategory() tea.Cmd {
	s, uid := m.store, m.userID
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		ctx := context.Background()
		if id == "" {
			var err error
			id, err = s.ManageCategory(ctx, uid, strings.TrimSpace(fb.name))
			if err != nil {
				return categorySavedMsg{err: err}
			}
		}
		return categorySavedMsg{err: s.SetCategoryColor(ctx, uid, id, fb.color)}
	}
}

func (m Model) deleteCategory(id string) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		return categoryDeletedMsg{err: s.DeleteCategory(context.Background(), uid, id)}
	}
}
