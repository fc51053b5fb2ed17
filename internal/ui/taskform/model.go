package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

// TaskCreatedMsg is dispatched when a new task is submitted.
type TaskCreatedMsg struct {
	Task store.NewTask
}

// TaskUpdatedMsg is dispatched when an existing task is edited.
type TaskUpdatedMsg struct {
	TaskID string
	Patch  model.TaskPatch
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// Deadline input layouts, tried in order.
var deadlineLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    int
	deadline    string
	category    string
	tags        string
	columnID    string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editMode   bool
	editID     string
	columns    []model.Column
	categories []model.Category
	tags       []model.Tag
	width      int
	height     int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetOptions sets the columns, categories and tags offered by the form.
func (m *Model) SetOptions(columns []model.Column, categories []model.Category, tags []model.Tag) {
	m.columns = columns
	m.categories = categories
	m.tags = tags
}

// StartCreate initializes the form for a new task in columnID.
func (m *Model) StartCreate(columnID string) tea.Cmd {
	m.editMode = false
	m.editID = ""
	*m.fb = formBindings{columnID: columnID}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editMode = true
	m.editID = t.ID
	*m.fb = formBindings{
		title:       t.Title,
		description: t.Description,
		priority:    t.Priority,
		category:    t.Category,
		tags:        strings.Join(t.TagNames(), ", "),
		columnID:    t.ColumnID,
	}
	if t.Deadline != nil {
		m.fb.deadline = t.Deadline.Local().Format(deadlineLayouts[0])
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details, markdown supported").
			Value(&m.fb.description),
		huh.NewSelect[int]().
			Title("Priority").
			Options(
				huh.NewOption("None", model.PriorityUnset),
				huh.NewOption("P1 - Critical", model.PriorityCritical),
				huh.NewOption("P2 - High", model.PriorityHigh),
				huh.NewOption("P3 - Medium", model.PriorityMedium),
				huh.NewOption("P4 - Low", model.PriorityLow),
				huh.NewOption("P5 - Lowest", model.PriorityLowest),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Deadline").
			Placeholder("YYYY-MM-DD [HH:MM] (optional)").
			Value(&m.fb.deadline).
			Validate(validateOptionalDeadline),
		huh.NewInput().
			Title("Category").
			Placeholder("Created if it does not exist").
			Suggestions(m.categoryNames()).
			Value(&m.fb.category),
		huh.NewInput().
			Title("Tags").
			Placeholder("comma, separated").
			Suggestions(m.tagNames()).
			Value(&m.fb.tags),
	}

	if !m.editMode && len(m.columns) > 0 {
		opts := make([]huh.Option[string], len(m.columns))
		for i, c := range m.columns {
			opts[i] = huh.NewOption(c.Title, c.ID)
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Column").
			Options(opts...).
			Value(&m.fb.columnID))
	}

	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(w).WithHeight(h)
}

func (m Model) categoryNames() []string {
	out := make([]string, len(m.categories))
	for i, c := range m.categories {
		out[i] = c.Name
	}
	return out
}

func (m Model) tagNames() []string {
	out := make([]string, len(m.tags))
	for i, t := range m.tags {
		out[i] = t.Name
	}
	return out
}

func (m Model) handleSubmit() tea.Cmd {
	fb := *m.fb
	deadline, _ := parseDeadline(fb.deadline)
	tags := splitTags(fb.tags)

	if m.editMode {
		title := strings.TrimSpace(fb.title)
		category := strings.TrimSpace(fb.category)
		patch := model.TaskPatch{
			Title:       &title,
			Description: &fb.description,
			Priority:    &fb.priority,
			Deadline:    deadline,
			SetDeadline: true,
			Category:    &category,
			Tags:        tags,
		}
		// A non-nil empty slice clears every tag.
		if patch.Tags == nil {
			patch.Tags = []string{}
		}
		id := m.editID
		return func() tea.Msg { return TaskUpdatedMsg{TaskID: id, Patch: patch} }
	}

	nt := store.NewTask{
		Title:       strings.TrimSpace(fb.title),
		Description: fb.description,
		Deadline:    deadline,
		Priority:    fb.priority,
		Category:    strings.TrimSpace(fb.category),
		Tags:        tags,
		ColumnID:    fb.columnID,
	}
	return func() tea.Msg { return TaskCreatedMsg{Task: nt} }
}

// splitTags splits a comma separated list, dropping blanks.
func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDeadline reads a local date or date and time. Empty input means
// no deadline.
func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid deadline, use YYYY-MM-DD or YYYY-MM-DD HH:MM")
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDeadline(s string) error {
	_, err := parseDeadline(s)
	return err
}
