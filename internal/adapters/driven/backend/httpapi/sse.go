package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
)

// maxEventSize bounds a single server-sent event.
const maxEventSize = 1 << 20

var errStreamClosed = errors.New("stream closed")

// eventStream reads server-sent events from a response body. Only data
// fields are kept; multi-line data is joined with newlines as the
// event-stream format requires. Comments, event names and ids are
// ignored.
type eventStream struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	reader *bufio.Reader

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

var _ driven.EventChannel = (*eventStream)(nil)

func newEventStream(body io.ReadCloser, cancel context.CancelFunc) *eventStream {
	return &eventStream{
		body:   body,
		cancel: cancel,
		reader: bufio.NewReaderSize(body, 64<<10),
	}
}

// Next returns the data of the next event. Blocking reads are released
// by Close or by cancelling the request context.
func (s *eventStream) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.isClosed() {
		return nil, errStreamClosed
	}

	var data bytes.Buffer
	hasData := false
	for {
		line, err := s.readLine()
		if err != nil {
			if s.isClosed() {
				return nil, errStreamClosed
			}
			if errors.Is(err, io.EOF) && hasData {
				// Last event without its blank terminator.
				return data.Bytes(), nil
			}
			return nil, err
		}

		if len(line) == 0 {
			if hasData {
				return data.Bytes(), nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		if hasData {
			data.WriteByte('\n')
		}
		data.Write(value)
		hasData = true
		if data.Len() > maxEventSize {
			return nil, fmt.Errorf("%w: event exceeds %d bytes", domain.ErrStreamProtocol, maxEventSize)
		}
	}
}

// readLine returns one line without its CR/LF terminator.
func (s *eventStream) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > maxEventSize {
			return nil, fmt.Errorf("%w: line exceeds %d bytes", domain.ErrStreamProtocol, maxEventSize)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

// Close aborts the request and releases the body. Safe to call more
// than once.
func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		err = s.body.Close()
	})
	return err
}

func (s *eventStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
