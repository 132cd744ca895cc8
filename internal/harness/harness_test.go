package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orbital/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_CompletedQueryIsRecorded(t *testing.T) {
	result, err := Run(loadScenario(t, "find_people_completed"))
	require.NoError(t, err)

	assert.Equal(t, DefaultQueryID, result.QueryID)
	assert.Equal(t, "completed", result.State)
	assert.NoError(t, result.Err)
	require.Len(t, result.Payloads, 2)
	assert.JSONEq(t, `{"firstName":"Jimmy","age":32}`, string(result.Payloads[0]))

	require.NotNil(t, result.History)
	assert.Equal(t, DefaultQueryID, result.History.QueryID)
	assert.Equal(t, result.Statement, result.History.Statement)
	assert.Equal(t, 2, result.History.Payloads)
	assert.True(t, testutil.Epoch.Equal(result.History.StartedAt), "started at %v", result.History.StartedAt)
	assert.True(t, result.History.FinishedAt.After(result.History.StartedAt))
}

func TestRun_RejectedQueryIsNotDispatched(t *testing.T) {
	result, err := Run(loadScenario(t, "reject_structural_source"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Statement)
	assert.Nil(t, result.History)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, EventRejected, result.Trace[0].Type)
}

func TestRun_FixedQueryID(t *testing.T) {
	s := loadScenario(t, "find_people_completed")
	s.QueryID = "qry-fixed"
	s.Assertions = []Assertion{{Type: AssertHistory, Expect: map[string]any{"query_id": "qry-fixed"}}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "qry-fixed", result.QueryID)
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	s := loadScenario(t, "find_people_completed")
	s.Assertions = []Assertion{
		{Type: AssertState, State: "failed"},
		{Type: AssertPayloadCount, Count: 3},
		{Type: AssertPayloadCount, Count: 2},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: state")
	assert.Contains(t, result.Errors[1], "Expected: 3 payloads")
}

func TestRun_BadSchema(t *testing.T) {
	s := loadScenario(t, "find_people_completed")
	s.Schema = "testdata/nowhere"

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"outer": map[any]any{1: "one", "list": []any{map[any]any{"k": true}}},
	}
	want := map[string]any{
		"outer": map[string]any{"1": "one", "list": []any{map[string]any{"k": true}}},
	}
	assert.Equal(t, want, normalize(in))
}
