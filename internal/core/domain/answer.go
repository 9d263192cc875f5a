package domain

import (
	"errors"
	"fmt"
)

// ErrAnswerFailed indicates the backend reported a failure while
// generating an answer.
var ErrAnswerFailed = errors.New("answer generation failed")

// AnswerPhase is the lifecycle phase of one RAG answer.
type AnswerPhase int

// Answer phases. Connecting and Streaming are live; Completed, Failed
// and Cancelled are terminal.
const (
	PhaseIdle AnswerPhase = iota
	PhaseConnecting
	PhaseStreaming
	PhaseCompleted
	PhaseFailed
	PhaseCancelled
)

// String returns the string representation of the phase.
func (p AnswerPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseStreaming:
		return "streaming"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsLive reports whether a connection may be open in this phase.
func (p AnswerPhase) IsLive() bool {
	return p == PhaseConnecting || p == PhaseStreaming
}

// IsTerminal reports whether the phase can only be left through a reset.
func (p AnswerPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseCancelled
}

// answerTransitions lists the allowed phase changes. Leaving a terminal
// phase is only possible through a reset, which is not a transition.
var answerTransitions = map[AnswerPhase][]AnswerPhase{
	PhaseIdle:       {PhaseConnecting, PhaseCancelled},
	PhaseConnecting: {PhaseStreaming, PhaseCompleted, PhaseFailed, PhaseCancelled},
	PhaseStreaming:  {PhaseCompleted, PhaseFailed, PhaseCancelled},
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to AnswerPhase) bool {
	for _, p := range answerTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// AnswerState is the accumulated answer of one RAG request.
// Answer only grows by append or is replaced wholesale; it is never
// truncated except by a reset. A failed answer keeps its partial text.
type AnswerState struct {
	// Phase is the lifecycle phase.
	Phase AnswerPhase

	// Answer is the accumulated answer text.
	Answer string

	// Citations is the latest complete citation list.
	Citations []Citation

	// Err is set when Phase is PhaseFailed.
	Err error
}

// Transition moves the state to phase to, or returns ErrInvalidState.
func (s AnswerState) Transition(to AnswerPhase) (AnswerState, error) {
	if !CanTransition(s.Phase, to) {
		return s, fmt.Errorf("%w: answer cannot move from %s to %s", ErrInvalidState, s.Phase, to)
	}
	s.Phase = to
	return s, nil
}

// Clone returns a copy that shares no storage with s.
func (s AnswerState) Clone() AnswerState {
	s.Citations = CloneCitations(s.Citations)
	return s
}

// Fold applies one stream event to the state. Streaming is the only
// phase that accepts events; in any other phase the state is returned
// unchanged.
func Fold(s AnswerState, ev StreamEvent) AnswerState {
	if s.Phase != PhaseStreaming {
		return s
	}

	switch e := ev.(type) {
	case AnswerDelta:
		s.Answer += e.Content
	case AnswerReplace:
		s.Answer = e.Content
		if e.Citations != nil {
			s.Citations = CloneCitations(e.Citations)
		}
	case CitationsUpdate:
		s.Citations = CloneCitations(e.Citations)
	case StreamFailure:
		s.Phase = PhaseFailed
		s.Err = fmt.Errorf("%w: %s", ErrAnswerFailed, e.Message)
	case EndOfStream:
		s.Phase = PhaseCompleted
	}
	return s
}
