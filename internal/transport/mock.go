package transport

import (
	"context"
	"errors"
	"sync"
)

// Call captures a single Execute invocation for assertions.
type Call struct {
	Envelope Envelope
	Stream   *Stream
}

// MockTransport implements Transport without any I/O. It records every
// envelope and lets tests drive the returned stream with Emit, Fail and
// Complete.
//
// Thread-safety: MockTransport is safe for concurrent use.
type MockTransport struct {
	mu         sync.Mutex
	calls      []Call
	bufferSize int
	script     [][]byte
	scriptErr  error
	scripted   bool
}

// NewMockTransport creates a MockTransport whose streams stay open until
// the test drives them.
func NewMockTransport() *MockTransport {
	return &MockTransport{bufferSize: DefaultBufferSize}
}

// NewScriptedMockTransport creates a MockTransport that answers every
// Execute with payloads followed by err, or by completion if err is nil.
func NewScriptedMockTransport(err error, payloads ...[]byte) *MockTransport {
	cp := make([][]byte, len(payloads))
	copy(cp, payloads)
	return &MockTransport{
		bufferSize: max(DefaultBufferSize, len(cp)),
		script:     cp,
		scriptErr:  err,
		scripted:   true,
	}
}

// WithBufferSize sets the buffer size of streams created afterwards.
func (m *MockTransport) WithBufferSize(n int) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bufferSize = n
	return m
}

// Execute records env and returns a streaming-state stream. Cancelling
// ctx fails the stream with ctx's error.
func (m *MockTransport) Execute(ctx context.Context, env Envelope) *Stream {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	s := newStream(m.bufferSize, cancel)
	s.advance(StateStreaming)
	m.calls = append(m.calls, Call{Envelope: env, Stream: s})
	scripted, script, scriptErr := m.scripted, m.script, m.scriptErr
	m.mu.Unlock()

	if scripted {
		for _, p := range script {
			s.push(p)
		}
		s.finish(scriptErr)
		return s
	}

	go func() {
		<-ctx.Done()
		s.finish(&ConnectionError{Op: "read", URL: "mock", Err: ctx.Err()})
	}()
	return s
}

// Calls returns a copy of the recorded calls.
func (m *MockTransport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CapturedQuery returns the statement of the most recent call, or "".
func (m *MockTransport) CapturedQuery() string {
	c, ok := m.last()
	if !ok {
		return ""
	}
	return c.Envelope.Statement
}

// Emit pushes payloads onto the most recent stream.
func (m *MockTransport) Emit(payloads ...[]byte) error {
	c, ok := m.last()
	if !ok {
		return errNoCall
	}
	for _, p := range payloads {
		if !c.Stream.push(p) {
			if err := c.Stream.Err(); err != nil {
				return err
			}
			return errTerminated
		}
	}
	return nil
}

// Fail terminates the most recent stream with err.
func (m *MockTransport) Fail(err error) error {
	c, ok := m.last()
	if !ok {
		return errNoCall
	}
	c.Stream.finish(err)
	return nil
}

// Complete terminates the most recent stream normally.
func (m *MockTransport) Complete() error {
	return m.Fail(nil)
}

var (
	errNoCall     = errors.New("mock transport: no query executed")
	errTerminated = errors.New("mock transport: stream already completed")
)

func (m *MockTransport) last() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}
