package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/archive"
	"github.com/nhle/taskboard/internal/ui/catmgr"
	"github.com/nhle/taskboard/internal/ui/command"
	configview "github.com/nhle/taskboard/internal/ui/config"
	"github.com/nhle/taskboard/internal/ui/detail"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/kanban"
	"github.com/nhle/taskboard/internal/ui/notes"
	"github.com/nhle/taskboard/internal/ui/progress"
	"github.com/nhle/taskboard/internal/ui/tagmgr"
	"github.com/nhle/taskboard/internal/ui/taskform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewDetail
	ViewTaskForm
	ViewArchive
	ViewCategories
	ViewTags
	ViewNotes
	ViewProgress
	ViewSettings
	ViewCommand
	ViewHelp
)

// Options carries the collaborators of the root model.
type Options struct {
	Store   store.Store
	Loader  *board.Loader
	Handler *board.Handler

	// Sweeper is optional; without it archiving only happens as a side
	// effect of moves and on the sweep command.
	Sweeper *appsync.Sweeper

	// Config and ConfigPath back the settings view; without a config the
	// view is unavailable.
	Config     *model.AppConfig
	ConfigPath string

	UserID string
	Logger zerolog.Logger
}

// Model is the root Bubble Tea model that manages view routing, the
// board state and access to the persistence layer.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap

	store   store.Store
	loader  *board.Loader
	handler *board.Handler
	sweeper *appsync.Sweeper
	userID  string
	logger  zerolog.Logger

	board        model.Board
	pendingMoves int
	editing      *model.Task
	status       ui.StatusMsg

	kanban       kanban.Model
	detail       detail.Model
	taskForm     taskform.Model
	archiveView  archive.Model
	categoryView catmgr.Model
	tagView      tagmgr.Model
	notesView    notes.Model
	progressView progress.Model
	settingsView configview.Model
	hasSettings  bool
	palette      command.Model
	helpView     helpview.Model

	ready bool
	now   func() time.Time
}

// New creates a new root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	s, uid := opts.Store, opts.UserID

	return Model{
		currentView:  ViewBoard,
		keys:         k,
		store:        s,
		loader:       opts.Loader,
		handler:      opts.Handler,
		sweeper:      opts.Sweeper,
		userID:       uid,
		logger:       opts.Logger.With().Str("component", "app").Logger(),
		kanban:       kanban.New(k, 80, 24),
		detail:       detail.New(k, 80, 24),
		taskForm:     taskform.New(80, 24),
		archiveView:  archive.New(s, uid, k, 80, 24),
		categoryView: catmgr.New(s, uid, k, 80, 24),
		tagView:      tagmgr.New(s, uid, k, 80, 24),
		notesView:    notes.New(s, uid, k, 80, 24),
		progressView: progress.New(s, uid, k, 80, 24),
		settingsView: configview.New(opts.Config, opts.ConfigPath, k, 80, 24),
		hasSettings:  opts.Config != nil,
		palette:      command.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
		now:          time.Now,
	}
}

// Init loads the board and starts the archive sweeper.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadBoard()}
	if m.sweeper != nil {
		cmds = append(cmds, m.sweeper.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.kanban.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.archiveView.SetSize(w, h)
		m.categoryView.SetSize(w, h)
		m.tagView.SetSize(w, h)
		m.notesView.SetSize(w, h)
		m.progressView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.palette.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case boardLoadedMsg:
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Msg("failed to load board")
			m.status = ui.StatusMsg{Text: "could not load board: " + msg.err.Error(), Err: true}
			return m, nil
		}
		m.setBoard(msg.board)
		return m, nil

	case kanban.MoveRequestMsg:
		res, ok := board.Plan(m.board, msg.Move)
		if !ok {
			return m, nil
		}
		m.setBoard(res.Board)
		m.pendingMoves++
		return m, m.persistMove(res)

	case moveResultMsg:
		m.pendingMoves--
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Str("task_id", msg.taskID).Msg("failed to persist move")
			m.status = ui.StatusMsg{Text: "move failed, reloaded", Err: true}
			if msg.loadErr != nil {
				m.status.Text = "move failed, reload failed: " + msg.loadErr.Error()
				return m, nil
			}
			m.setBoard(msg.board)
			return m, nil
		}
		// A status change may have archived other tasks.
		if msg.statusChanged && m.pendingMoves == 0 {
			return m, m.loadBoard()
		}
		return m, nil

	case ui.StatusMsg:
		m.status = msg
		return m, nil

	case kanban.SelectedTaskMsg:
		if t, ok := m.findTask(msg.TaskID); ok {
			m.detail.SetTask(t)
			m.currentView = ViewDetail
		}
		return m, nil

	case detail.ActionMsg:
		switch msg.Action {
		case detail.ActionEdit:
			if t, ok := m.findTask(msg.TaskID); ok {
				return m.openTaskForm(&t)
			}
		case detail.ActionArchive:
			m.currentView = ViewBoard
			return m, m.archiveTask(msg.TaskID)
		case detail.ActionDelete:
			m.currentView = ViewBoard
			return m, m.deleteTask(msg.TaskID)
		}
		return m, nil

	case formOptionsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("failed to load form options")
		}
		m.taskForm.SetOptions(m.board.Columns, msg.categories, msg.tags)
		if m.editing != nil {
			return m, m.taskForm.StartEdit(*m.editing)
		}
		columnID := ""
		if c, ok := m.kanban.FocusedColumn(); ok {
			columnID = c.ID
		}
		return m, m.taskForm.StartCreate(columnID)

	case taskform.TaskCreatedMsg:
		m.currentView = ViewBoard
		return m, m.createTask(msg.Task)

	case taskform.TaskUpdatedMsg:
		m.currentView = ViewBoard
		m.editing = nil
		return m, m.updateTask(msg.TaskID, msg.Patch)

	case taskform.CancelMsg:
		m.currentView = ViewBoard
		m.editing = nil
		return m, nil

	case taskWriteResultMsg:
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Str("task_id", msg.taskID).Str("action", msg.action).Msg("task write failed")
			m.status = ui.StatusMsg{Text: fmt.Sprintf("%s failed: %v", msg.action, msg.err), Err: true}
		} else {
			m.status = ui.StatusMsg{Text: "task " + msg.action + "d"}
		}
		return m, m.loadBoard()

	case ui.CloseMsg:
		m.currentView = ViewBoard
		return m, nil

	case command.CommandMsg:
		m.currentView = ViewBoard
		return m.runCommand(msg)

	case ui.ChangedMsg:
		return m, m.loadBoard()

	case appsync.SweepResultMsg:
		var cmds []tea.Cmd
		if m.sweeper != nil {
			cmds = append(cmds, m.sweeper.WaitForNextResult())
		}
		switch {
		case msg.Err != nil:
			m.status = ui.StatusMsg{Text: "archive sweep failed: " + msg.Err.Error(), Err: true}
		case msg.Archived > 0:
			m.status = ui.StatusMsg{Text: fmt.Sprintf("archived %d completed task(s)", msg.Archived)}
			cmds = append(cmds, m.loadBoard())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.currentView == ViewBoard && !m.kanban.Searching() {
			if next, cmd, handled := m.handleBoardKey(msg); handled {
				return next, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleBoardKey handles the global keys of the board view.
func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		next, cmd := m.quit()
		return next, cmd, true

	case key.Matches(msg, m.keys.Help):
		m.openHelp()
		return m, nil, true

	case key.Matches(msg, m.keys.New):
		next, cmd := m.openTaskForm(nil)
		return next, cmd, true

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.kanban.SelectedTask(); ok {
			next, cmd := m.openTaskForm(&t)
			return next, cmd, true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Delete):
		// Deletion goes through the detail view's confirmation.
		t, ok := m.kanban.SelectedTask()
		if !ok {
			return m, nil, true
		}
		m.detail.SetTask(t)
		m.currentView = ViewDetail
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd, true

	case key.Matches(msg, m.keys.Archive):
		if t, ok := m.kanban.SelectedTask(); ok {
			return m, m.archiveTask(t.ID), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Refresh):
		m.status = ui.StatusMsg{}
		return m, m.loadBoard(), true

	case key.Matches(msg, m.keys.Sweep):
		if m.sweeper != nil {
			m.sweeper.Trigger()
			m.status = ui.StatusMsg{Text: "archive sweep requested"}
			return m, nil, true
		}
		return m, m.sweepNow(), true

	case key.Matches(msg, m.keys.ArchiveView):
		m.currentView = ViewArchive
		return m, m.archiveView.Init(), true

	case key.Matches(msg, m.keys.Categories):
		m.currentView = ViewCategories
		return m, m.categoryView.Init(), true

	case key.Matches(msg, m.keys.Tags):
		m.currentView = ViewTags
		return m, m.tagView.Init(), true

	case key.Matches(msg, m.keys.Notes):
		m.currentView = ViewNotes
		return m, m.notesView.Init(), true

	case key.Matches(msg, m.keys.Progress):
		m.currentView = ViewProgress
		return m, m.progressView.Init(), true

	case key.Matches(msg, m.keys.Settings):
		next, cmd := m.openSettings()
		return next, cmd, true

	case key.Matches(msg, m.keys.Command):
		m.currentView = ViewCommand
		return m, m.palette.Open(), true
	}
	return m, nil, false
}

func (m Model) openSettings() (tea.Model, tea.Cmd) {
	if !m.hasSettings {
		m.status = ui.StatusMsg{Text: "settings unavailable", Err: true}
		return m, nil
	}
	m.settingsView.Reset()
	m.currentView = ViewSettings
	return m, nil
}

// runCommand executes a command palette entry against the board view.
func (m Model) runCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case "new":
		return m.openTaskForm(nil)
	case "move":
		return m.moveSelectedTo(c.Arg)
	case "archive":
		if t, ok := m.kanban.SelectedTask(); ok {
			return m, m.archiveTask(t.ID)
		}
	case "reload":
		m.status = ui.StatusMsg{}
		return m, m.loadBoard()
	case "sweep":
		if m.sweeper != nil {
			m.sweeper.Trigger()
			m.status = ui.StatusMsg{Text: "archive sweep requested"}
			return m, nil
		}
		return m, m.sweepNow()
	case "archived":
		m.currentView = ViewArchive
		return m, m.archiveView.Init()
	case "categories":
		m.currentView = ViewCategories
		return m, m.categoryView.Init()
	case "tags":
		m.currentView = ViewTags
		return m, m.tagView.Init()
	case "notes":
		m.currentView = ViewNotes
		return m, m.notesView.Init()
	case "progress":
		m.currentView = ViewProgress
		return m, m.progressView.Init()
	case "settings":
		return m.openSettings()
	case "help":
		m.openHelp()
	case "quit":
		return m.quit()
	}
	return m, nil
}

// moveSelectedTo moves the selected task to the top of the column titled
// title, matched case-insensitively.
func (m Model) moveSelectedTo(title string) (tea.Model, tea.Cmd) {
	t, ok := m.kanban.SelectedTask()
	if !ok {
		return m, nil
	}
	if m.kanban.FilterSummary() != "" {
		m.status = ui.StatusMsg{Text: "clear filters to move tasks", Err: true}
		return m, nil
	}
	for _, c := range m.board.Columns {
		if !strings.EqualFold(c.Title, title) {
			continue
		}
		ci, ti := m.board.FindTask(t.ID)
		return m.Update(kanban.MoveRequestMsg{Move: board.Move{
			TaskID: t.ID,
			From:   board.Location{ColumnID: m.board.Columns[ci].ID, Index: ti},
			To:     board.Location{ColumnID: c.ID, Index: 0},
		}})
	}
	m.status = ui.StatusMsg{Text: fmt.Sprintf("no column titled %q", title), Err: true}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.sweeper != nil {
		m.sweeper.Stop()
	}
	return m, tea.Quit
}

// openTaskForm loads the form options, then starts the form for t, or
// for a new task when t is nil.
func (m Model) openTaskForm(t *model.Task) (tea.Model, tea.Cmd) {
	m.editing = t
	m.currentView = ViewTaskForm
	return m, m.loadFormOptions()
}

// setBoard replaces the board everywhere it is shown.
func (m *Model) setBoard(b model.Board) {
	m.board = b
	m.kanban.SetBoard(b)
	if current, ok := m.detail.Task(); ok {
		if t, ok := m.findTask(current.ID); ok {
			m.detail.SetTask(t)
		} else if m.currentView == ViewDetail {
			m.currentView = ViewBoard
		}
	}
}

func (m Model) findTask(id string) (model.Task, bool) {
	ci, ti := m.board.FindTask(id)
	if ci < 0 {
		return model.Task{}, false
	}
	return m.board.Columns[ci].Tasks[ti], true
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBoard:
		m.kanban, cmd = m.kanban.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewArchive:
		m.archiveView, cmd = m.archiveView.Update(msg)
	case ViewCategories:
		m.categoryView, cmd = m.categoryView.Update(msg)
	case ViewTags:
		m.tagView, cmd = m.tagView.Update(msg)
	case ViewNotes:
		m.notesView, cmd = m.notesView.Update(msg)
	case ViewProgress:
		m.progressView, cmd = m.progressView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewCommand:
		m.palette, cmd = m.palette.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := m.board.Title
	if title == "" {
		title = model.DefaultBoardTitle
	}
	header := m.layout.RenderHeader(title, m.headerStatus())

	var statusBar string
	if m.status.Err {
		statusBar = m.layout.RenderErrorBar(m.status.Text)
	} else {
		hints := m.keyHints()
		if m.status.Text != "" {
			hints = m.status.Text + " | " + hints
		}
		statusBar = m.layout.RenderStatusBar(hints)
	}

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBoard:
		return m.kanban.View()
	case ViewDetail:
		return m.detail.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewArchive:
		return m.archiveView.View()
	case ViewCategories:
		return m.categoryView.View()
	case ViewTags:
		return m.tagView.View()
	case ViewNotes:
		return m.notesView.View()
	case ViewProgress:
		return m.progressView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewCommand:
		return m.kanban.View() + "\n" + m.palette.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// headerStatus summarises deadline reminders and the sweeper state.
func (m Model) headerStatus() string {
	var parts []string

	counts := map[model.DeadlineState]int{}
	for _, r := range model.Reminders(m.board.Tasks(), m.now()) {
		counts[r.State]++
	}
	if n := counts[model.DeadlineOverdue]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", n))
	}
	if n := counts[model.DeadlineToday]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d due today", n))
	}

	if m.sweeper != nil {
		st := m.sweeper.Status()
		switch st.State {
		case appsync.SweepRunning:
			parts = append(parts, "sweeping")
		case appsync.SweepError:
			parts = append(parts, "sweep failed")
		}
	}
	if m.pendingMoves > 0 {
		parts = append(parts, "saving")
	}
	return strings.Join(parts, " · ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | e edit | a archive | d delete | j/k scroll"
	case ViewTaskForm:
		return "enter submit | esc cancel"
	case ViewArchive:
		return "u unarchive | esc back"
	case ViewCategories:
		return "n new | e colour | d delete | esc back"
	case ViewTags:
		return "d delete | esc back"
	case ViewNotes, ViewProgress:
		return "n new | e edit | d delete | esc back"
	case ViewSettings:
		return "e edit | p password | esc back"
	case ViewCommand:
		return "enter run | tab complete | esc cancel"
	default:
		if summary := m.kanban.FilterSummary(); summary != "" {
			return summary + " | x clear"
		}
		return "q quit | ? help | : command | n new | H/J/K/L move | / search | c/t filter"
	}
}

func (m *Model) openHelp() {
	m.helpView.SetFilter(m.kanban.FilterSummary())
	m.currentView = ViewHelp
}
