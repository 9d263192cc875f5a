package domain

import "errors"

// Domain errors represent query-session failures.
// Adapters wrap transport errors with one of these so callers can
// classify failures with errors.Is.
var (
	// ErrSearch indicates the remote search call failed, timed out,
	// or returned a response with an invalid shape.
	ErrSearch = errors.New("search failed")

	// ErrStreamProtocol indicates an answer stream event could not be
	// classified or parsed.
	ErrStreamProtocol = errors.New("stream protocol error")

	// ErrStreamConnection indicates a transport-level failure reported
	// by the answer stream.
	ErrStreamConnection = errors.New("stream connection error")

	// ErrInvalidState indicates an operation was called out of sequence,
	// e.g. paginating before any search succeeded.
	ErrInvalidState = errors.New("invalid state")

	// ErrOutOfRange indicates a page number below 1.
	ErrOutOfRange = errors.New("page out of range")

	// ErrInvalidInput indicates malformed query parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSuperseded indicates a response arrived after a newer request's
	// response was already applied. The result was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBackendUnavailable indicates no backend has been configured.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
