package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EndOfStreamSentinel is the literal payload that terminates an answer
// stream. It is not valid JSON, so it can never collide with an event.
const EndOfStreamSentinel = "[DONE]"

// Wire event types.
const (
	EventTypeAnswer        = "answer"
	EventTypeAnswerDelta   = "answer-delta"
	EventTypeAnswerReplace = "answer-replace"
	EventTypeCitations     = "citations"
	EventTypeError         = "error"
)

// StreamEvent is one classified answer stream event.
// The set of implementations is closed: AnswerDelta, AnswerReplace,
// CitationsUpdate, StreamFailure and EndOfStream.
type StreamEvent interface {
	streamEvent()
}

// AnswerDelta appends Content to the answer.
type AnswerDelta struct {
	Content string
}

// AnswerReplace replaces the whole answer, and the citation list when
// Citations is non-nil. Sent when citation markers are finalised inline.
type AnswerReplace struct {
	Content   string
	Citations []Citation
}

// CitationsUpdate replaces the citation list.
type CitationsUpdate struct {
	Citations []Citation
}

// StreamFailure reports a backend failure.
type StreamFailure struct {
	Message string
}

// EndOfStream marks normal completion.
type EndOfStream struct{}

func (AnswerDelta) streamEvent()     {}
func (AnswerReplace) streamEvent()   {}
func (CitationsUpdate) streamEvent() {}
func (StreamFailure) streamEvent()   {}
func (EndOfStream) streamEvent()     {}

// wireEvent is the JSON shape of a stream payload.
type wireEvent struct {
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	Message   string          `json:"message"`
	Citations json.RawMessage `json:"citations"`
	List      json.RawMessage `json:"list"`
}

// ParseStreamEvent classifies one raw payload. The end-of-stream
// sentinel is recognised before any JSON decoding. Every failure wraps
// ErrStreamProtocol.
func ParseStreamEvent(payload []byte) (StreamEvent, error) {
	trimmed := bytes.TrimSpace(payload)
	if string(trimmed) == EndOfStreamSentinel {
		return EndOfStream{}, nil
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty event payload", ErrStreamProtocol)
	}

	var w wireEvent
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamProtocol, err)
	}

	switch w.Type {
	case EventTypeAnswer, EventTypeAnswerDelta:
		text, err := decodeText(w.Content)
		if err != nil {
			return nil, err
		}
		return AnswerDelta{Content: text}, nil

	case EventTypeAnswerReplace:
		text, err := decodeText(w.Content)
		if err != nil {
			return nil, err
		}
		citations, err := decodeCitations(w.Citations)
		if err != nil {
			return nil, err
		}
		return AnswerReplace{Content: text, Citations: citations}, nil

	case EventTypeCitations:
		raw := w.Content
		if isAbsent(raw) {
			raw = w.List
		}
		if isAbsent(raw) {
			return nil, fmt.Errorf("%w: citations event without a list", ErrStreamProtocol)
		}
		citations, err := decodeCitations(raw)
		if err != nil {
			return nil, err
		}
		if citations == nil {
			citations = []Citation{}
		}
		return CitationsUpdate{Citations: citations}, nil

	case EventTypeError:
		msg := w.Message
		if !isAbsent(w.Content) {
			text, err := decodeText(w.Content)
			if err != nil {
				return nil, err
			}
			msg = text
		}
		if msg == "" {
			msg = "unknown backend error"
		}
		return StreamFailure{Message: msg}, nil

	case "":
		return nil, fmt.Errorf("%w: event without a type", ErrStreamProtocol)

	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrStreamProtocol, w.Type)
	}
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func decodeText(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: content is not a string: %w", ErrStreamProtocol, err)
	}
	return s, nil
}

// decodeCitations returns nil for an absent list.
func decodeCitations(raw json.RawMessage) ([]Citation, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var citations []Citation
	if err := json.Unmarshal(raw, &citations); err != nil {
		return nil, fmt.Errorf("%w: malformed citations: %w", ErrStreamProtocol, err)
	}
	if citations == nil {
		citations = []Citation{}
	}
	return citations, nil
}
