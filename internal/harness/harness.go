package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/orbital/internal/history"
	"github.com/roach88/orbital/internal/schema"
	"github.com/roach88/orbital/internal/testutil"
	"github.com/roach88/orbital/internal/transport"
)

// Harness runs one scenario with deterministic ids and timestamps.
type Harness struct {
	store  *history.Store
	clock  *testutil.Clock
	ids    *testutil.SameIDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with a fresh in-memory history for isolation.
//
// Execution flow:
// 1. Load the schema and build the query
// 2. Send it through the recorder to a scripted transport
// 3. Drain the stream into the trace
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	sch, err := schema.LoadDir(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	st, err := history.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory history: %w", err)
	}
	defer st.Close()

	queryID := scenario.QueryID
	if queryID == "" {
		queryID = DefaultQueryID
	}
	h := &Harness{
		store:  st,
		clock:  testutil.NewClock(time.Time{}, time.Second),
		ids:    testutil.NewSameIDGenerator(queryID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.execute(ctx, sch, scenario, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, sch *schema.Schema, scenario *Scenario, result *Result) error {
	b, err := sch.Build(scenario.Query)
	if err != nil {
		result.Reject(err)
		return nil
	}

	next, err := scenario.Server.transport(h.ids.Generate())
	if err != nil {
		return err
	}
	rec := history.NewRecorder(h.store, next, h.logger)
	rec.Now = h.clock.Now

	env, err := b.WithIDs(h.ids).Envelope()
	if err != nil {
		result.Reject(err)
		return nil
	}
	result.Statement = env.Statement
	result.QueryID = env.ClientQueryID
	result.AddDispatch(env.Verb.String())

	s := rec.Execute(ctx, env)
	for payload, err := range s.All(ctx) {
		if err != nil {
			break
		}
		result.AddPayload(payload)
	}
	result.AddTerminal(s.State().String(), s.Err())
	rec.Wait()

	entry, err := h.store.Get(ctx, env.ClientQueryID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	result.History = &entry
	return nil
}

// transport builds the scripted transport for one query.
func (s Server) transport(queryID string) (*transport.MockTransport, error) {
	payloads := make([][]byte, len(s.Payloads))
	for i, p := range s.Payloads {
		data, err := json.Marshal(normalize(p))
		if err != nil {
			return nil, fmt.Errorf("server.payloads[%d]: %w", i, err)
		}
		payloads[i] = data
	}

	var failure error
	if s.Fail != nil {
		if s.Fail.Status != 0 {
			failure = &transport.QueryFailedError{StatusCode: s.Fail.Status, Message: s.Fail.Message, QueryID: queryID}
		} else {
			failure = &transport.ConnectionError{Op: "read", URL: "scenario", Err: errors.New(s.Fail.Message)}
		}
	}
	return transport.NewScriptedMockTransport(failure, payloads...), nil
}

// normalize converts YAML-decoded values into JSON-encodable ones.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
