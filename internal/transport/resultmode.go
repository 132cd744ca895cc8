package transport

import (
	"fmt"
	"strings"
)

// ResultMode selects how much type metadata the server attaches to each
// streamed result.
type ResultMode string

const (
	// ResultModeRaw returns raw results.
	ResultModeRaw ResultMode = "RAW"

	// ResultModeSimple excludes per-attribute type information.
	//
	// Deprecated: use ResultModeTyped. It is accepted when parsing for
	// compatibility with older configuration but is never sent.
	ResultModeSimple ResultMode = "SIMPLE"

	// ResultModeTyped provides type metadata at row level.
	ResultModeTyped ResultMode = "TYPED"

	// ResultModeVerbose includes type information for every attribute.
	ResultModeVerbose ResultMode = "VERBOSE"
)

// DefaultResultMode is sent when none is configured.
const DefaultResultMode = ResultModeRaw

// ParseResultMode parses a mode name case-insensitively. The deprecated
// SIMPLE mode is accepted.
func ParseResultMode(s string) (ResultMode, error) {
	switch m := ResultMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ResultModeRaw, ResultModeSimple, ResultModeTyped, ResultModeVerbose:
		return m, nil
	default:
		return "", fmt.Errorf("unknown result mode %q", s)
	}
}

// Deprecated reports whether m is a legacy mode that must not be sent.
func (m ResultMode) Deprecated() bool {
	return m == ResultModeSimple
}

// String returns the wire name.
func (m ResultMode) String() string {
	return string(m)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ResultMode) UnmarshalText(text []byte) error {
	parsed, err := ParseResultMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler. An empty mode encodes as
// DefaultResultMode; the deprecated SIMPLE mode is refused.
func (m ResultMode) MarshalText() ([]byte, error) {
	switch m {
	case "":
		return []byte(DefaultResultMode), nil
	case ResultModeRaw, ResultModeTyped, ResultModeVerbose:
		return []byte(m), nil
	case ResultModeSimple:
		return nil, fmt.Errorf("result mode %s is deprecated, use %s", m, ResultModeTyped)
	default:
		return nil, fmt.Errorf("unknown result mode %q", string(m))
	}
}
