package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/orbital/internal/schema"
)

// DefaultQueryID is used when a scenario does not fix one.
const DefaultQueryID = "qry-test-default"

// Scenario defines one query conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE declaration directory or file. Relative paths are
	// resolved against the scenario file's directory.
	Schema string `yaml:"schema"`

	// Query names the query by declared types.
	Query schema.Query `yaml:"query"`

	// Server scripts the answer.
	Server Server `yaml:"server"`

	// Assertions validate the result.
	Assertions []Assertion `yaml:"assertions"`

	// QueryID is the fixed client query id. Empty means DefaultQueryID.
	QueryID string `yaml:"query_id,omitempty"`
}

// Server scripts the query server's answer.
type Server struct {
	// Payloads are sent in order, each encoded as JSON.
	Payloads []any `yaml:"payloads,omitempty"`

	// Fail ends the query with an error after the payloads. Nil means the
	// query completes.
	Fail *Failure `yaml:"fail,omitempty"`
}

// Failure is a scripted query failure. A non-zero Status is a server
// rejection; zero is a dropped connection.
type Failure struct {
	Status  int    `yaml:"status,omitempty"`
	Message string `yaml:"message"`
}

// Assertion validates one aspect of the result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "statement": the rendered statement, ignoring whitespace
	// - "state": the terminal state (completed, failed, rejected)
	// - "payload_count": number of payloads received
	// - "payload_contains": subset match on one JSON object payload
	// - "error": the error kind (config, query_failed, connection)
	// - "history": subset match on the recorded history entry
	Type string `yaml:"type"`

	Statement string `yaml:"statement,omitempty"`

	State string `yaml:"state,omitempty"`

	Count int `yaml:"count,omitempty"`

	// Index selects the payload (used by payload_contains).
	Index int `yaml:"index,omitempty"`

	// Fields are expected payload fields (used by payload_contains).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Kind is the expected error kind (used by error).
	Kind string `yaml:"kind,omitempty"`

	// Contains must appear in the error message (used by error).
	Contains string `yaml:"contains,omitempty"`

	// Expect contains expected history columns (used by history).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertStatement       = "statement"
	AssertState           = "state"
	AssertPayloadCount    = "payload_count"
	AssertPayloadContains = "payload_contains"
	AssertError           = "error"
	AssertHistory         = "history"
)

// Error kinds for error assertions.
const (
	KindConfig      = "config"
	KindQueryFailed = "query_failed"
	KindConnection  = "connection"
)

// historyColumns are the keys a history assertion may check.
var historyColumns = map[string]bool{
	"query_id":  true,
	"verb":      true,
	"statement": true,
	"state":     true,
	"payloads":  true,
	"error":     true,
}

// LoadScenario reads and parses a scenario YAML file, resolving the
// schema path relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the schema path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) && basePath != "" {
		scenario.Schema = filepath.Join(basePath, scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema not found: %s", s.Schema)
	}
	if s.Query.Find == "" && s.Query.Stream == "" {
		return fmt.Errorf("query: one of find or stream is required")
	}
	if s.Server.Fail != nil && s.Server.Fail.Message == "" {
		return fmt.Errorf("server.fail: message is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStatement:
		if a.Statement == "" {
			return fmt.Errorf("assertions[%d]: statement is required for statement", index)
		}
	case AssertState:
		switch a.State {
		case "completed", "failed", EventRejected:
		default:
			return fmt.Errorf("assertions[%d]: state must be completed, failed or rejected, got %q", index, a.State)
		}
	case AssertPayloadCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for payload_count", index)
		}
	case AssertPayloadContains:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for payload_contains", index)
		}
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields is required for payload_contains", index)
		}
	case AssertError:
		switch a.Kind {
		case KindConfig, KindQueryFailed, KindConnection:
		default:
			return fmt.Errorf("assertions[%d]: kind must be config, query_failed or connection, got %q", index, a.Kind)
		}
	case AssertHistory:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for history", index)
		}
		for key := range a.Expect {
			if !historyColumns[key] {
				return fmt.Errorf("assertions[%d]: unknown history column %q", index, key)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
