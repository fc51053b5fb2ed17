package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	appsync "github.com/nhle/taskboard/internal/sync"
)

// boardLoadedMsg carries a freshly assembled board.
type boardLoadedMsg struct {
	board model.Board
	err   error
}

// moveResultMsg reports how persisting a move went. On failure board holds
// the reloaded state, unless loadErr is set.
type moveResultMsg struct {
	taskID        string
	statusChanged bool
	err           error
	board         model.Board
	loadErr       error
}

// taskWriteResultMsg is sent after a task is created, updated, archived
// or deleted.
type taskWriteResultMsg struct {
	action string
	taskID string
	err    error
}

// formOptionsLoadedMsg carries categories and tags for the task form.
type formOptionsLoadedMsg struct {
	categories []model.Category
	tags       []model.Tag
	err        error
}

func (m Model) loadBoard() tea.Cmd {
	l, uid := m.loader, m.userID
	return func() tea.Msg {
		b, err := l.Load(context.Background(), uid)
		return boardLoadedMsg{board: b, err: err}
	}
}

// persistMove writes a planned move. The board was already updated
// optimistically; on failure the stored board is loaded to replace it.
func (m Model) persistMove(res board.Result) tea.Cmd {
	h, l, uid := m.handler, m.loader, m.userID
	return func() tea.Msg {
		ctx := context.Background()
		msg := moveResultMsg{taskID: res.Moved.ID, statusChanged: res.StatusChanged}
		if msg.err = h.Persist(ctx, uid, res); msg.err == nil {
			return msg
		}
		msg.board, msg.loadErr = l.Load(ctx, uid)
		return msg
	}
}

func (m Model) sweepNow() tea.Cmd {
	h, uid := m.handler, m.userID
	return func() tea.Msg {
		n, err := h.Sweep(context.Background(), uid)
		return appsync.SweepResultMsg{Archived: n, Err: err}
	}
}

func (m Model) loadFormOptions() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		ctx := context.Background()
		cats, err := s.ListCategories(ctx, uid)
		if err != nil {
			return formOptionsLoadedMsg{err: err}
		}
		tags, err := s.ListTags(ctx, uid)
		return formOptionsLoadedMsg{categories: cats, tags: tags, err: err}
	}
}

func (m Model) createTask(nt store.NewTask) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		t, err := s.CreateTask(context.Background(), uid, nt)
		return taskWriteResultMsg{action: "create", taskID: t.ID, err: err}
	}
}

func (m Model) updateTask(id string, patch model.TaskPatch) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		err := s.UpdateTask(context.Background(), uid, id, patch)
		return taskWriteResultMsg{action: "update", taskID: id, err: err}
	}
}

func (m Model) archiveTask(id string) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		err := s.ArchiveTask(context.Background(), uid, id)
		return taskWriteResultMsg{action: "archive", taskID: id, err: err}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		err := s.DeleteTask(context.Background(), uid, id)
		return taskWriteResultMsg{action: "delete", taskID: id, err: err}
	}
}
