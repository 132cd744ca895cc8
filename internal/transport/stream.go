package transport

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
)

// DefaultBufferSize is the number of undelivered payloads a stream holds
// before failing with ErrBufferOverflow.
const DefaultBufferSize = 1024

// State is the dispatch state of one query.
type State int

const (
	// StateIdle means the envelope has not been handed to a binding yet.
	StateIdle State = iota
	// StateDispatching means the request is in flight.
	StateDispatching
	// StateStreaming means a persistent connection is delivering payloads.
	StateStreaming
	// StateCompleted is terminal: the sequence ended normally.
	StateCompleted
	// StateFailed is terminal: the sequence ended with an error.
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateDispatching: "dispatching",
	StateStreaming:   "streaming",
	StateCompleted:   "completed",
	StateFailed:      "failed",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stream is the ordered result sequence of one query.
//
// A binding goroutine is the sole producer; the caller is the consumer and
// pulls payloads with Next or All. Payloads are delivered strictly in
// arrival order, and buffered payloads are always delivered before the
// terminal signal.
//
// The buffer is bounded. If the consumer falls behind by more than the
// buffer size the stream fails with ErrBufferOverflow and the connection is
// released; nothing is dropped silently.
//
// Thread-safety: the producer and consumer may run on different goroutines.
// Next is meant for a single consumer.
type Stream struct {
	mu        sync.Mutex
	items     [][]byte
	limit     int
	state     State
	terminal  bool
	err       error
	delivered int

	signal chan struct{} // buffered, size 1
	done   chan struct{} // closed once terminal
	cancel context.CancelFunc
}

// newStream creates an idle stream. cancel releases the producer's
// connection; it runs once the stream reaches a terminal state.
func newStream(limit int, cancel context.CancelFunc) *Stream {
	if limit <= 0 {
		limit = DefaultBufferSize
	}
	if cancel == nil {
		cancel = func() {}
	}
	return &Stream{
		items:  make([][]byte, 0, min(limit, 64)),
		limit:  limit,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Failed returns a stream that is already terminal with err. Transports
// use it for dispatch errors detected before any I/O.
func Failed(err error) *Stream {
	s := newStream(1, nil)
	s.finish(err)
	return s
}

// advance moves a live stream to a non-terminal state.
func (s *Stream) advance(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.terminal {
		s.state = to
	}
}

// push appends one payload. It returns false once the stream is terminal,
// which tells the producer to stop reading.
func (s *Stream) push(p []byte) bool {
	s.mu.Lock()
	if s.terminal {
		s.mu.Unlock()
		return false
	}
	if len(s.items) >= s.limit {
		s.mu.Unlock()
		s.finish(fmt.Errorf("%w: %d payloads undelivered", ErrBufferOverflow, s.limit))
		return false
	}
	s.items = append(s.items, p)
	s.mu.Unlock()

	// Non-blocking: the size-1 buffer coalesces multiple signals.
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

// finish records the terminal outcome. A nil err completes the stream.
// Only the first call has any effect.
func (s *Stream) finish(err error) bool {
	s.mu.Lock()
	if s.terminal {
		s.mu.Unlock()
		return false
	}
	s.terminal = true
	s.err = err
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateCompleted
	}
	close(s.done)
	s.mu.Unlock()

	s.cancel()
	return true
}

// Next returns the next payload. It blocks until a payload is available,
// the stream terminates, or ctx is done.
//
// After the last payload Next returns io.EOF if the stream completed, or
// the terminal error if it failed. A done ctx returns ctx.Err() and leaves
// the stream open.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	for {
		s.mu.Lock()
		if len(s.items) > 0 {
			p := s.items[0]
			s.items[0] = nil
			if len(s.items) == 1 {
				s.items = s.items[:0]
			} else {
				s.items = s.items[1:]
			}
			s.delivered++
			s.mu.Unlock()
			return p, nil
		}
		if s.terminal {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				return nil, io.EOF
			}
			return nil, err
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.signal:
		case <-s.done:
		}
	}
}

// All returns the remaining payloads as a sequence. The sequence ends
// silently on completion and yields one final error on failure. Stopping
// the iteration early, or ctx ending, closes the stream.
//
//	for payload, err := range s.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func (s *Stream) All(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			p, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					s.Close()
				}
				yield(nil, err)
				return
			}
			if !yield(p, nil) {
				s.Close()
				return
			}
		}
	}
}

// Close abandons the stream. The producer's connection is released and
// the stream fails with ErrStreamClosed unless it had already terminated.
// Payloads buffered before Close can still be read with Next.
func (s *Stream) Close() error {
	if !s.finish(ErrStreamClosed) {
		s.cancel()
	}
	return nil
}

// State returns the current dispatch state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, or nil while running and after
// completion.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the stream reaches a terminal state.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Delivered returns how many payloads the consumer has taken.
func (s *Stream) Delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

// Buffered returns how many payloads are waiting for the consumer.
func (s *Stream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Received returns how many payloads the producer has handed over,
// delivered or not.
func (s *Stream) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered + len(s.items)
}
