package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ensure AnswerSession implements the interface.
var _ driving.AnswerSession = (*AnswerSession)(nil)

// answerRun is one Start or Answer call. A run stops folding the moment
// it is no longer the session's current run.
type answerRun struct {
	id       uint64
	cancel   context.CancelFunc
	conn     driven.EventChannel
	done     chan struct{}
	finished bool
}

// AnswerSession accumulates one RAG answer at a time.
//
// All state changes happen under mu. The stream pump re-checks that its
// run is still current before every fold, so once Cancel, Reset or a
// new Start returns, the old run can no longer change the state.
type AnswerSession struct {
	backend  driven.AnswerBackend
	listener driving.AnswerListener

	mu     sync.Mutex
	state  domain.AnswerState
	run    *answerRun
	nextID uint64
	done   chan struct{}
}

// AnswerSessionOption configures an AnswerSession.
type AnswerSessionOption func(*AnswerSession)

// WithAnswerListener registers a listener called after every state change.
func WithAnswerListener(l driving.AnswerListener) AnswerSessionOption {
	return func(s *AnswerSession) {
		s.listener = l
	}
}

// NewAnswerSession creates an idle answer session.
func NewAnswerSession(backend driven.AnswerBackend, opts ...AnswerSessionOption) *AnswerSession {
	s := &AnswerSession{
		backend: backend,
		done:    closedChan(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a streamed answer for params. Any live run is cancelled
// first. The stream is opened and read in the background and stays
// open until it ends, Cancel is called, or ctx is cancelled.
func (s *AnswerSession) Start(ctx context.Context, params domain.QueryParameters) error {
	if err := validateQuestion(params); err != nil {
		return err
	}
	if s.backend == nil {
		return domain.ErrBackendUnavailable
	}

	s.mu.Lock()
	run, runCtx := s.beginLocked(ctx)
	s.mu.Unlock()

	logger.Debug("answer #%d: streaming %q (mode=%s, top_k=%d)", run.id, params.Query, params.Mode, params.TopK)
	go s.pump(runCtx, run, params)
	return nil
}

// Answer fetches a complete answer in one response. It blocks until the
// answer arrives, the run is cancelled, or ctx ends.
func (s *AnswerSession) Answer(ctx context.Context, params domain.QueryParameters) error {
	if err := validateQuestion(params); err != nil {
		return err
	}
	if s.backend == nil {
		return domain.ErrBackendUnavailable
	}

	s.mu.Lock()
	run, runCtx := s.beginLocked(ctx)
	s.mu.Unlock()

	logger.Debug("answer #%d: requesting %q (mode=%s, top_k=%d)", run.id, params.Query, params.Mode, params.TopK)
	answer, err := s.backend.Answer(runCtx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != run || run.finished {
		return fmt.Errorf("answer #%d: %w", run.id, domain.ErrSuperseded)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrSearch) {
			err = fmt.Errorf("%w: %w", domain.ErrSearch, err)
		}
		s.failLocked(run, err)
		return err
	}

	s.state.Answer = answer.Answer
	s.state.Citations = domain.CloneCitations(answer.Citations)
	s.moveLocked(domain.PhaseCompleted)
	s.endLocked(run)
	s.notifyLocked()
	return nil
}

// Cancel stops the current run. Connecting or Streaming move to
// Cancelled and the connection is closed before Cancel returns. Terminal
// states are left untouched.
func (s *AnswerSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Reset drops the current run, if any, and returns to Idle.
func (s *AnswerSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		s.endLocked(s.run)
		s.run = nil
	}
	s.state = domain.AnswerState{}
	s.done = closedChan()
	s.notifyLocked()
}

// State returns a snapshot of the current answer.
func (s *AnswerSession) State() domain.AnswerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Done returns a channel closed once the current run is terminal.
func (s *AnswerSession) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// beginLocked cancels the live run and starts a new one in Connecting.
func (s *AnswerSession) beginLocked(ctx context.Context) (*answerRun, context.Context) {
	if s.state.Phase.IsLive() {
		s.cancelLocked()
	}

	s.nextID++
	runCtx, cancel := context.WithCancel(ctx)
	run := &answerRun{
		id:     s.nextID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.run = run
	s.done = run.done
	s.state = domain.AnswerState{}
	s.moveLocked(domain.PhaseConnecting)
	s.notifyLocked()
	return run, runCtx
}

func (s *AnswerSession) cancelLocked() {
	switch {
	case s.state.Phase.IsLive():
		logger.Debug("answer #%d: cancelled in %s", s.run.id, s.state.Phase)
		s.moveLocked(domain.PhaseCancelled)
		s.endLocked(s.run)
		s.notifyLocked()
	case s.state.Phase == domain.PhaseIdle:
		s.moveLocked(domain.PhaseCancelled)
		s.notifyLocked()
	}
}

// pump opens the stream and folds its events until a terminal phase.
func (s *AnswerSession) pump(ctx context.Context, run *answerRun, params domain.QueryParameters) {
	conn, err := s.backend.OpenAnswerStream(ctx, params)

	s.mu.Lock()
	if s.run != run || run.finished {
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			s.cancelLocked()
		} else {
			s.failLocked(run, connectionError(err))
		}
		s.mu.Unlock()
		return
	}
	run.conn = conn
	s.mu.Unlock()

	for {
		payload, err := conn.Next(ctx)
		if err != nil && ctx.Err() != nil {
			s.abandon(run)
			return
		}
		if !s.consume(run, payload, err) {
			return
		}
	}
}

// abandon cancels run after its context ended.
func (s *AnswerSession) abandon(run *answerRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == run && !run.finished {
		s.cancelLocked()
	}
}

// consume folds one Next result and reports whether the pump should
// keep reading.
func (s *AnswerSession) consume(run *answerRun, payload []byte, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != run || run.finished {
		return false
	}
	if err != nil {
		s.failLocked(run, connectionError(err))
		return false
	}

	ev, err := domain.ParseStreamEvent(payload)
	if err != nil {
		s.failLocked(run, err)
		return false
	}

	if s.state.Phase == domain.PhaseConnecting {
		s.moveLocked(domain.PhaseStreaming)
	}
	s.state = domain.Fold(s.state, ev)
	if s.state.Phase.IsTerminal() {
		logger.Debug("answer #%d: %s after %d chars", run.id, s.state.Phase, len(s.state.Answer))
		s.endLocked(run)
	}
	s.notifyLocked()
	return !run.finished
}

// failLocked moves the run to Failed, keeping any partial answer.
func (s *AnswerSession) failLocked(run *answerRun, err error) {
	logger.Warn("answer #%d failed: %v", run.id, err)
	s.moveLocked(domain.PhaseFailed)
	s.state.Err = err
	s.endLocked(run)
	s.notifyLocked()
}

// moveLocked applies a table-checked transition. Callers only request
// transitions the table allows, so a refusal is logged and ignored.
func (s *AnswerSession) moveLocked(to domain.AnswerPhase) {
	next, err := s.state.Transition(to)
	if err != nil {
		logger.Warn("answer: %v", err)
		return
	}
	s.state = next
}

// endLocked releases the run's connection and marks it finished.
// The connection is closed at most once.
func (s *AnswerSession) endLocked(run *answerRun) {
	if run.finished {
		return
	}
	run.finished = true
	if run.conn != nil {
		if err := run.conn.Close(); err != nil {
			logger.Debug("answer #%d: close: %v", run.id, err)
		}
		run.conn = nil
	}
	run.cancel()
	close(run.done)
}

func (s *AnswerSession) notifyLocked() {
	if s.listener != nil {
		s.listener(s.state.Clone())
	}
}

func connectionError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: stream ended before %s", domain.ErrStreamConnection, domain.EndOfStreamSentinel)
	}
	if errors.Is(err, domain.ErrStreamConnection) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStreamConnection, err)
}

// validateQuestion checks the fields a RAG request uses.
func validateQuestion(params domain.QueryParameters) error {
	if strings.TrimSpace(params.Query) == "" {
		return fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if !params.Mode.IsValid() {
		return fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, params.Mode)
	}
	if params.TopK < 0 {
		return fmt.Errorf("%w: top-k must not be negative, got %d", domain.ErrInvalidInput, params.TopK)
	}
	return nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
