package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/orbital/internal/query"
	"github.com/roach88/orbital/internal/statement"
	"github.com/roach88/orbital/internal/transport"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Type)
			switch {
			case event.Payload != "":
				fmt.Fprintf(&buf, " %s", event.Payload)
			case event.Error != "":
				fmt.Fprintf(&buf, " %s", event.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func assertStatement(r *Result, a Assertion) error {
	if statement.Equivalent(a.Statement, r.Statement) {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatement,
		Expected: a.Statement,
		Actual:   r.Statement,
	}
}

func assertState(r *Result, a Assertion) error {
	if r.State == a.State {
		return nil
	}
	return &AssertionError{
		Type:     AssertState,
		Expected: a.State,
		Actual:   r.State,
		Trace:    r.Trace,
	}
}

func assertPayloadCount(r *Result, a Assertion) error {
	if len(r.Payloads) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertPayloadCount,
		Expected: fmt.Sprintf("%d payloads", a.Count),
		Actual:   fmt.Sprintf("%d payloads", len(r.Payloads)),
		Trace:    r.Trace,
	}
}

// assertPayloadContains decodes one payload as a JSON object and checks
// the expected fields (subset semantics).
func assertPayloadContains(r *Result, a Assertion) error {
	if a.Index >= len(r.Payloads) {
		return &AssertionError{
			Type:     AssertPayloadContains,
			Expected: fmt.Sprintf("payload %d", a.Index),
			Actual:   fmt.Sprintf("%d payloads", len(r.Payloads)),
			Trace:    r.Trace,
		}
	}

	var actual map[string]any
	if err := json.Unmarshal(r.Payloads[a.Index], &actual); err != nil {
		return &AssertionError{
			Type:     AssertPayloadContains,
			Expected: fmt.Sprintf("payload %d to be a JSON object", a.Index),
			Actual:   string(r.Payloads[a.Index]),
		}
	}

	// Round-trip the expectation so numbers compare as JSON numbers.
	var expected map[string]any
	data, err := json.Marshal(normalize(a.Fields))
	if err != nil {
		return fmt.Errorf("payload_contains: %w", err)
	}
	if err := json.Unmarshal(data, &expected); err != nil {
		return fmt.Errorf("payload_contains: %w", err)
	}

	if !matchFields(actual, expected) {
		return &AssertionError{
			Type:     AssertPayloadContains,
			Expected: fmt.Sprintf("payload %d containing %s", a.Index, data),
			Actual:   string(r.Payloads[a.Index]),
		}
	}
	return nil
}

func assertError(r *Result, a Assertion) error {
	var ok bool
	switch a.Kind {
	case KindConfig:
		ok = query.IsConfigError(r.Err)
	case KindQueryFailed:
		ok = transport.IsQueryFailed(r.Err)
	case KindConnection:
		ok = transport.IsConnectionError(r.Err)
	}
	if ok && a.Contains != "" {
		ok = strings.Contains(r.Err.Error(), a.Contains)
	}
	if ok {
		return nil
	}

	actual := "no error"
	if r.Err != nil {
		actual = r.Err.Error()
	}
	expected := a.Kind + " error"
	if a.Contains != "" {
		expected += fmt.Sprintf(" containing %q", a.Contains)
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: expected,
		Actual:   actual,
		Trace:    r.Trace,
	}
}

// assertHistory checks the recorded history entry (subset semantics).
func assertHistory(r *Result, a Assertion) error {
	if r.History == nil {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: "a recorded query",
			Actual:   "nothing recorded",
		}
	}

	row := map[string]any{
		"query_id":  r.History.QueryID,
		"verb":      r.History.Verb,
		"statement": r.History.Statement,
		"state":     r.History.State,
		"payloads":  r.History.Payloads,
		"error":     r.History.Error,
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expected, actual := a.Expect[key], row[key]
		if !historyValuesEqual(key, expected, actual) {
			return &AssertionError{
				Type:     AssertHistory,
				Expected: fmt.Sprintf("%s = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("%s = %v (type %T)", key, actual, actual),
			}
		}
	}
	return nil
}

// historyValuesEqual compares a YAML value with a history column.
// Statements compare ignoring whitespace.
func historyValuesEqual(key string, expected, actual any) bool {
	switch exp := expected.(type) {
	case string:
		act, ok := actual.(string)
		if !ok {
			return false
		}
		if key == "statement" {
			return statement.Equivalent(exp, act)
		}
		return exp == act
	case int:
		act, ok := actual.(int)
		return ok && exp == act
	}
	return reflect.DeepEqual(expected, actual)
}

// matchFields checks if actual contains all expected keys with equal
// values. Extra keys in actual are ignored.
func matchFields(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !reflect.DeepEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStatement:
			err = assertStatement(result, assertion)
		case AssertState:
			err = assertState(result, assertion)
		case AssertPayloadCount:
			err = assertPayloadCount(result, assertion)
		case AssertPayloadContains:
			err = assertPayloadContains(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		case AssertHistory:
			err = assertHistory(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
