package harness

import "github.com/roach88/orbital/internal/history"

// Trace event types.
const (
	EventDispatch  = "dispatch"
	EventPayload   = "payload"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventRejected  = "rejected"
)

// TraceEvent is one step of a query's lifecycle.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Type    string `json:"type"`
	Verb    string `json:"verb,omitempty"`
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Statement is the rendered TaxiQL, empty if the query was rejected.
	Statement string `json:"statement,omitempty"`

	QueryID string `json:"query_id,omitempty"`

	// State is the terminal stream state, or "rejected" if the query
	// could not be built.
	State string `json:"state"`

	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`

	// Payloads are the raw payloads in arrival order.
	Payloads [][]byte `json:"-"`

	// Err is the query's error, if any.
	Err error `json:"-"`

	// History is the recorded history entry, nil if the query was rejected.
	History *history.Entry `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}

// AddDispatch records that the query was sent.
func (r *Result) AddDispatch(verb string) {
	r.add(TraceEvent{Type: EventDispatch, Verb: verb})
}

// AddPayload records one received payload.
func (r *Result) AddPayload(p []byte) {
	r.Payloads = append(r.Payloads, p)
	r.add(TraceEvent{Type: EventPayload, Payload: string(p)})
}

// AddTerminal records how the query ended.
func (r *Result) AddTerminal(state string, err error) {
	r.State = state
	r.Err = err
	e := TraceEvent{Type: EventCompleted}
	if err != nil {
		e = TraceEvent{Type: EventFailed, Error: err.Error()}
	}
	r.add(e)
}

// Reject records that the query could not be built.
func (r *Result) Reject(err error) {
	r.State = EventRejected
	r.Err = err
	r.add(TraceEvent{Type: EventRejected, Error: err.Error()})
}
