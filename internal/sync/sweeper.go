package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// SweepState represents the current state of the archive sweeper.
type SweepState int

const (
	SweepIdle SweepState = iota
	SweepRunning
	SweepError
)

// SweepStatus holds the outcome of the most recent sweep.
type SweepStatus struct {
	State        SweepState
	LastRun      time.Time
	LastArchived int64
	Error        error
}

// SweepResultMsg is a tea.Msg sent when a sweep completes.
type SweepResultMsg struct {
	Archived int64
	Err      error
}

// Archiver runs one archive pass for a user.
type Archiver interface {
	Sweep(ctx context.Context, userID string) (int64, error)
}

// sweepTimeout is the maximum time allowed for a single sweep.
const sweepTimeout = 30 * time.Second

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 10 * time.Minute

// Sweeper archives long-completed tasks on a schedule and on demand.
type Sweeper struct {
	archiver  Archiver
	userID    string
	interval  time.Duration
	logger    zerolog.Logger
	status    SweepStatus
	resultCh  chan SweepResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Sweeper for one user. A non-positive interval disables
// the timer; Trigger still works.
func New(a Archiver, userID string, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		archiver:  a,
		userID:    userID,
		interval:  interval,
		logger:    logger.With().Str("component", "sweeper").Logger(),
		resultCh:  make(chan SweepResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the sweep loop and returns a tea.Cmd that waits for
// the first result. It returns nil if the sweeper is already running.
func (s *Sweeper) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	// Stop closes the channel, so each run gets a fresh one.
	stop := make(chan struct{})
	s.stopCh = stop
	s.mu.Unlock()

	go s.loop(stop)

	return s.waitForResult()
}

// Stop halts the sweep loop. A later Start runs it again.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopCh)
	s.running = false
}

// Trigger requests an immediate sweep. Requests made while one is
// already pending are merged.
func (s *Sweeper) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the outcome of the last sweep.
func (s *Sweeper) Status() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sweeper) loop(stop <-chan struct{}) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Sweep once at startup so a long-closed session catches up.
	s.runOnce()

	for {
		select {
		case <-stop:
			return
		case <-tick:
			s.runOnce()
		case <-s.triggerCh:
			s.runOnce()
		}
	}
}

// runOnce performs a single sweep and publishes the result.
func (s *Sweeper) runOnce() {
	s.setStatus(SweepRunning, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.archiver.Sweep(ctx, s.userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("archive sweep failed")
		s.setStatus(SweepError, 0, err)
		s.sendResult(SweepResultMsg{Err: err})
		return
	}

	if n > 0 {
		s.logger.Info().Int64("archived", n).Msg("archive sweep")
	}
	s.setStatus(SweepIdle, n, nil)
	s.sendResult(SweepResultMsg{Archived: n})
}

func (s *Sweeper) setStatus(state SweepState, archived int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.State = state
	s.status.Error = err
	if state != SweepRunning {
		s.status.LastRun = time.Now()
		s.status.LastArchived = archived
	}
}

// sendResult sends a SweepResultMsg on the result channel without blocking.
func (s *Sweeper) sendResult(msg SweepResultMsg) {
	select {
	case s.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the loop
	}
}

func (s *Sweeper) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-s.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sweep result.
// Call it after handling a SweepResultMsg to keep listening.
func (s *Sweeper) WaitForNextResult() tea.Cmd {
	return s.waitForResult()
}
