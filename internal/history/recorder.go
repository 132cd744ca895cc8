package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/orbital/internal/transport"
)

// Recorder is a transport.Transport that logs every query to a Store
// before delegating to Next.
type Recorder struct {
	Store  *Store
	Next   transport.Transport
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	pending sync.WaitGroup
}

// NewRecorder wraps next.
func NewRecorder(store *Store, next transport.Transport, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{Store: store, Next: next, Logger: logger, Now: time.Now}
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Execute records the dispatch, delegates, and records the outcome once
// the stream terminates.
func (r *Recorder) Execute(ctx context.Context, env transport.Envelope) *transport.Stream {
	err := r.Store.RecordDispatch(context.WithoutCancel(ctx), Entry{
		QueryID:   env.ClientQueryID,
		Verb:      env.Verb.String(),
		Statement: env.Statement,
		StartedAt: r.now(),
		State:     transport.StateDispatching.String(),
	})
	if err != nil {
		r.Logger.Warn("history dispatch not recorded",
			"query_id", env.ClientQueryID,
			"error", err,
		)
	}

	s := r.Next.Execute(ctx, env)

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		<-s.Done()
		err := r.Store.RecordOutcome(context.Background(), env.ClientQueryID, s.State().String(), s.Received(), s.Err(), r.now())
		if err != nil {
			r.Logger.Warn("history outcome not recorded",
				"query_id", env.ClientQueryID,
				"error", err,
			)
		}
	}()
	return s
}

// Wait blocks until the outcome of every terminated query is written.
// Queries still running keep Wait blocked.
func (r *Recorder) Wait() {
	r.pending.Wait()
}
