package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

const dateLayout = "2006-01-02"

type formBindings struct {
	title string
	start string
	end   string
}

type trackersLoadedMsg struct {
	trackers []model.TimeProgress
	err      error
}

type trackerSavedMsg struct{ err error }
type trackerDeletedMsg struct{ err error }

// Model shows time-progress trackers as progress bars.
type Model struct {
	store       store.Store
	userID      string
	keys        *keys.KeyMap
	trackers    []model.TimeProgress
	selectedIdx int
	editingID   string
	form        *huh.Form
	fb          *formBindings
	bar         bprogress.Model
	statusMsg   string
	width       int
	height      int
	now         func() time.Time
}

// New creates a new time-progress view model.
func New(s store.Store, userID string, k *keys.KeyMap, width, height int) Model {
	m := Model{
		store:  s,
		userID: userID,
		keys:   k,
		fb:     &formBindings{},
		bar:    bprogress.New(bprogress.WithDefaultGradient()),
		now:    time.Now,
	}
	m.SetSize(width, height)
	return m
}

// Init loads trackers from the store.
func (m Model) Init() tea.Cmd {
	return m.loadTrackers()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case trackersLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.trackers = msg.trackers
		if m.selectedIdx >= len(m.trackers) {
			m.selectedIdx = max(len(m.trackers)-1, 0)
		}
		return m, nil

	case trackerSavedMsg:
		return m.afterWrite(msg.err, "Tracker saved")

	case trackerDeletedMsg:
		return m.afterWrite(msg.err, "Tracker deleted")
	}

	if m.form != nil {
		mdl, cmd := m.form.Update(msg)
		if f, ok := mdl.(*huh.Form); ok {
			m.form = f
		}
		switch m.form.State {
		case huh.StateCompleted:
			return m, m.saveTracker()
		case huh.StateAborted:
			m.form = nil
			return m, nil
		}
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return ui.CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.trackers) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.trackers)
		}

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.trackers) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.trackers)) % len(m.trackers)
		}

	case key.Matches(keyMsg, m.keys.New):
		today := m.now().Format(dateLayout)
		m.editingID = ""
		*m.fb = formBindings{start: today, end: today}
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Edit):
		if len(m.trackers) == 0 {
			return m, nil
		}
		p := m.trackers[m.selectedIdx]
		m.editingID = p.ID
		*m.fb = formBindings{
			title: p.Title,
			start: p.StartDate.Local().Format(dateLayout),
			end:   p.EndDate.Local().Format(dateLayout),
		}
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Delete):
		if len(m.trackers) == 0 {
			return m, nil
		}
		return m, m.deleteTracker(m.trackers[m.selectedIdx].ID)
	}
	return m, nil
}

func (m Model) afterWrite(err error, ok string) (Model, tea.Cmd) {
	m.form = nil
	if err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	m.statusMsg = ok
	return m, m.loadTrackers()
}

func (m Model) buildForm() *huh.Form {
	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Sprint, semester, contract...").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Start").
				Placeholder(dateLayout).
				Value(&m.fb.start).
				Validate(validateDate),
			huh.NewInput().
				Title("End").
				Placeholder(dateLayout).
				Value(&m.fb.end).
				Validate(validateDate),
		),
	).WithWidth(w).WithHeight(h)
}

func validateDate(s string) error {
	if _, err := parseDate(s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
}

// View renders the trackers.
func (m Model) View() string {
	if m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Time Progress"))
	b.WriteString("\n\n")

	if len(m.trackers) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).
			Render("No trackers yet. Press 'n' to add one."))
	}
	now := m.now()
	for i, p := range m.trackers {
		percent, left := p.Progress(now)
		header := fmt.Sprintf("%s  %s",
			p.Title,
			theme.DimmedStyle.Render(fmt.Sprintf("%s → %s, %d days left",
				p.StartDate.Local().Format(dateLayout),
				p.EndDate.Local().Format(dateLayout),
				left)),
		)
		if i == m.selectedIdx {
			header = theme.SelectedItemStyle.Render(header)
		} else {
			header = theme.ListItemStyle.Render(header)
		}
		b.WriteString(header)
		b.WriteString("\n  ")
		b.WriteString(m.bar.ViewAs(float64(percent) / 100))
		b.WriteString("\n\n")
	}

	if m.statusMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
		b.WriteString("\n\n")
	}

	b.WriteString(theme.HelpStyle.Render("n new | e edit | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = min(max(width-10, 10), 80)
}

func (m Model) loadTrackers() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		ps, err := s.ListTimeProgress(context.Background(), uid)
		return trackersLoadedMsg{trackers: ps, err: err}
	}
}

func (m Model) saveTracker() tea.Cmd {
	s, uid := m.store, m.userID
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		start, err := parseDate(fb.start)
		if err != nil {
			return trackerSavedMsg{err: err}
		}
		end, err := parseDate(fb.end)
		if err != nil {
			return trackerSavedMsg{err: err}
		}
		p := model.TimeProgress{
			ID:        id,
			Title:     strings.TrimSpace(fb.title),
			StartDate: start,
			EndDate:   end,
		}
		ctx := context.Background()
		if id == "" {
			_, err = s.CreateTimeProgress(ctx, uid, p)
			return trackerSavedMsg{err: err}
		}
		return trackerSavedMsg{err: s.UpdateTimeProgress(ctx, uid, p)}
	}
}

func (m Model) deleteTracker(id string) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		return trackerDeletedMsg{err: s.DeleteTimeProgress(context.Background(), uid, id)}
	}
}
