package kanban

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// MoveRequestMsg asks the root model to move a task.
type MoveRequestMsg struct {
	Move board.Move
}

// Model is the board view: one column per status, a cursor over tasks.
type Model struct {
	board       model.Board
	keys        *keys.KeyMap
	col         int
	row         int
	query       string
	category    string
	tag         string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
	now         func() time.Time
}

// New creates a new board view.
func New(k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
		now:         time.Now,
	}
}

// Board returns the board currently shown.
func (m Model) Board() model.Board {
	return m.board
}

// SetBoard replaces the board, keeping the cursor on the same task when
// it is still visible.
func (m *Model) SetBoard(b model.Board) {
	selected, hadSelection := m.SelectedTask()
	m.board = b

	if hadSelection {
		v := m.visible()
		for ci, c := range v.Columns {
			for ti, t := range c.Tasks {
				if t.ID == selected.ID {
					m.col, m.row = ci, ti
					return
				}
			}
		}
	}
	m.clampCursor()
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	v := m.visible()
	if m.col < 0 || m.col >= len(v.Columns) {
		return model.Task{}, false
	}
	tasks := v.Columns[m.col].Tasks
	if m.row < 0 || m.row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.row], true
}

// FocusedColumn returns the column under the cursor.
func (m Model) FocusedColumn() (model.Column, bool) {
	if m.col < 0 || m.col >= len(m.board.Columns) {
		return model.Column{}, false
	}
	return m.board.Columns[m.col], true
}

// Filtered reports whether any filter hides tasks.
func (m Model) Filtered() bool {
	return m.query != "" || m.category != "" || m.tag != ""
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("search %q", m.query))
	}
	if m.category != "" {
		parts = append(parts, "category "+m.category)
	}
	if m.tag != "" {
		parts = append(parts, "tag #"+m.tag)
	}
	return strings.Join(parts, ", ")
}

// ClearFilters removes every filter.
func (m *Model) ClearFilters() {
	m.query = ""
	m.category = ""
	m.tag = ""
	m.searchInput.Reset()
	m.clampCursor()
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.searchMode {
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	if m.searchMode {
		return m.handleSearchKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		m.query = strings.TrimSpace(m.searchInput.Value())
		m.clampCursor()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.query = ""
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes navigation, moves and filters.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.board.Columns)-1 {
			m.col++
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampCursor()

	case key.Matches(msg, m.keys.MoveUp):
		return m, m.requestMove(0, -1)

	case key.Matches(msg, m.keys.MoveDown):
		return m, m.requestMove(0, 1)

	case key.Matches(msg, m.keys.MoveLeft):
		return m, m.requestMove(-1, 0)

	case key.Matches(msg, m.keys.MoveRight):
		return m, m.requestMove(1, 0)

	case key.Matches(msg, m.keys.Select):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: task.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterCategory):
		m.category = next(m.categories(), m.category)
		m.clampCursor()

	case key.Matches(msg, m.keys.FilterTag):
		m.tag = next(m.tags(), m.tag)
		m.clampCursor()

	case key.Matches(msg, m.keys.ClearFilters):
		m.ClearFilters()
	}
	return m, nil
}

// requestMove builds the move of the selected task by dc columns or dr
// rows. Moves are refused while filtered since visible indices would
// not match the full column.
func (m Model) requestMove(dc, dr int) tea.Cmd {
	task, ok := m.SelectedTask()
	if !ok {
		return nil
	}
	if m.Filtered() {
		return func() tea.Msg {
			return ui.StatusMsg{Text: "clear filters to move tasks", Err: true}
		}
	}

	dst := m.col + dc
	if dst < 0 || dst >= len(m.board.Columns) {
		return nil
	}
	to := m.row + dr
	if dc != 0 {
		to = min(m.row, len(m.board.Columns[dst].Tasks))
	}
	if to < 0 || (dc == 0 && to >= len(m.board.Columns[dst].Tasks)) {
		return nil
	}

	mv := board.Move{
		TaskID: task.ID,
		From:   board.Location{ColumnID: m.board.Columns[m.col].ID, Index: m.row},
		To:     board.Location{ColumnID: m.board.Columns[dst].ID, Index: to},
	}
	return func() tea.Msg {
		return MoveRequestMsg{Move: mv}
	}
}

// visible returns the board with filtered-out tasks removed.
func (m Model) visible() model.Board {
	if !m.Filtered() {
		return m.board
	}
	v := m.board.Clone()
	q := strings.ToLower(m.query)
	for i := range v.Columns {
		var keep []model.Task
		for _, t := range v.Columns[i].Tasks {
			if q != "" &&
				!strings.Contains(strings.ToLower(t.Title), q) &&
				!strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
			if m.category != "" && t.Category != m.category {
				continue
			}
			if m.tag != "" && !t.HasTag(m.tag) {
				continue
			}
			keep = append(keep, t)
		}
		v.Columns[i].Tasks = keep
	}
	return v
}

func (m *Model) clampCursor() {
	if len(m.board.Columns) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = max(0, min(m.col, len(m.board.Columns)-1))
	n := len(m.visible().Columns[m.col].Tasks)
	m.row = max(0, min(m.row, n-1))
}

func (m Model) categories() []string {
	seen := map[string]bool{}
	for _, t := range m.board.Tasks() {
		if t.Category != "" {
			seen[t.Category] = true
		}
	}
	return sortedKeys(seen)
}

func (m Model) tags() []string {
	seen := map[string]bool{}
	for _, t := range m.board.Tasks() {
		for _, name := range t.TagNames() {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// next cycles through "" and each option in order.
func next(options []string, current string) string {
	if current == "" {
		if len(options) == 0 {
			return ""
		}
		return options[0]
	}
	for i, o := range options {
		if o == current && i+1 < len(options) {
			return options[i+1]
		}
	}
	return ""
}

// View renders the board.
func (m Model) View() string {
	if len(m.board.Columns) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading board...")
	}

	v := m.visible()
	colWidth := ui.NewLayout(m.width, m.height).ColumnWidth(len(v.Columns))

	bodyHeight := m.height - 2
	if m.searchMode {
		bodyHeight--
	}

	rendered := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		rendered[i] = m.renderColumn(c, i == m.col, colWidth, bodyHeight)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}
	return body
}

func (m Model) renderColumn(c model.Column, focused bool, width, height int) string {
	title := theme.StatusStyle(c.Title).Render(fmt.Sprintf("%s (%d)", c.Title, len(c.Tasks)))

	// Each card takes cardHeight lines; keep the cursor in view.
	slots := max(1, (height-3)/cardHeight)
	offset := 0
	if focused && m.row >= slots {
		offset = m.row - slots + 1
	}

	lines := []string{theme.ColumnTitleStyle.Render(title)}
	if len(c.Tasks) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("  no tasks"))
	}
	now := m.now()
	for i := offset; i < len(c.Tasks) && i < offset+slots; i++ {
		lines = append(lines, renderCard(c.Tasks[i], focused && i == m.row, width, now))
	}

	style := theme.ColumnStyle
	if focused {
		style = theme.FocusedColumnStyle
	}
	return style.Width(width).Height(max(1, height-2)).Render(strings.Join(lines, "\n"))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
}
