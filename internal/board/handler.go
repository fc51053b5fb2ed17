package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/model"
)

// PositionWriter persists task positions.
type PositionWriter interface {
	UpdateTaskPosition(ctx context.Context, userID string, p model.Position) error
	UpdateTaskPositions(ctx context.Context, userID string, ps []model.Position) error
}

// Archiver archives Done tasks completed at or before cutoff.
type Archiver interface {
	ArchiveCompletedBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error)
}

// Options configures a Handler.
type Options struct {
	// BatchWrites sends all positions of a move in one transactional call.
	// When false, positions are written one by one, moved task first.
	BatchWrites bool

	// Archiver, when set, is swept after every move that changes a
	// task's status.
	Archiver     Archiver
	ArchiveAfter time.Duration
}

// Handler turns drag gestures into board updates and writes.
type Handler struct {
	writer PositionWriter
	loader *Loader
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// NewHandler creates a Handler writing through w and recovering through l.
func NewHandler(w PositionWriter, l *Loader, opts Options, logger zerolog.Logger) *Handler {
	if opts.ArchiveAfter <= 0 {
		opts.ArchiveAfter = 7 * 24 * time.Hour
	}
	return &Handler{
		writer: w,
		loader: l,
		opts:   opts,
		logger: logger.With().Str("component", "board").Logger(),
		now:    time.Now,
	}
}

// Persist writes the positions of a planned move.
func (h *Handler) Persist(ctx context.Context, userID string, res Result) error {
	if len(res.Updates) == 0 {
		return nil
	}

	if h.opts.BatchWrites {
		if err := h.writer.UpdateTaskPositions(ctx, userID, res.Updates); err != nil {
			return fmt.Errorf("writing %d positions: %w", len(res.Updates), err)
		}
	} else {
		for _, p := range res.Updates {
			if err := h.writer.UpdateTaskPosition(ctx, userID, p); err != nil {
				return fmt.Errorf("writing position of task %s: %w", p.TaskID, err)
			}
		}
	}

	if res.StatusChanged {
		h.sweep(ctx, userID)
	}
	return nil
}

// Drag plans mv against current, hands the rearranged board to apply
// before anything is written, then persists it. If persisting fails the
// board is reloaded from storage and handed to apply again, and the write
// error is returned. A no-op move calls nothing.
func (h *Handler) Drag(
	ctx context.Context,
	userID string,
	current model.Board,
	mv Move,
	apply func(model.Board),
) error {
	res, ok := Plan(current, mv)
	if !ok {
		return nil
	}
	apply(res.Board)

	err := h.Persist(ctx, userID, res)
	if err == nil {
		return nil
	}

	h.logger.Warn().Err(err).
		Str("task_id", mv.TaskID).
		Str("to_column", mv.To.ColumnID).
		Msg("move failed, reloading board")

	fresh, loadErr := h.loader.Load(ctx, userID)
	if loadErr != nil {
		h.logger.Error().Err(loadErr).Msg("failed to reload board")
		return errors.Join(err, loadErr)
	}
	apply(fresh)
	return err
}

// Sweep archives tasks that have been Done for longer than the archive
// window. It returns 0 when no archiver is configured.
func (h *Handler) Sweep(ctx context.Context, userID string) (int64, error) {
	if h.opts.Archiver == nil {
		return 0, nil
	}
	cutoff := h.now().Add(-h.opts.ArchiveAfter)
	n, err := h.opts.Archiver.ArchiveCompletedBefore(ctx, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archiving tasks completed before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}

func (h *Handler) sweep(ctx context.Context, userID string) {
	n, err := h.Sweep(ctx, userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to archive completed tasks")
		return
	}
	if n > 0 {
		h.logger.Info().Int64("archived", n).Msg("archived completed tasks")
	}
}
