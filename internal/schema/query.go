package schema

import (
	"errors"

	"github.com/roach88/orbital/internal/query"
)

// Query describes a query by declared type references, as written in
// CLI flags or scenario files.
type Query struct {
	// Find or Stream names the source type, e.g. "Person[]". Exactly one
	// is set.
	Find   string `yaml:"find,omitempty"`
	Stream string `yaml:"stream,omitempty"`

	// As names the projection type. Empty means no projection.
	As string `yaml:"as,omitempty"`

	// Where holds comparisons joined with &&. See ParseWhere.
	Where []string `yaml:"where,omitempty"`

	Namespace string `yaml:"namespace,omitempty"`
}

var (
	// ErrNoSource is returned by Build when neither Find nor Stream is set.
	ErrNoSource = errors.New("one of find or stream is required")

	// ErrTwoSources is returned by Build when both Find and Stream are set.
	ErrTwoSources = errors.New("find and stream are mutually exclusive")
)

// Build resolves the references in q against s and assembles the query.
// The statement is rendered once so unresolvable types fail here rather
// than at send time.
func (s *Schema) Build(q Query) (*query.Builder, error) {
	switch {
	case q.Find == "" && q.Stream == "":
		return nil, ErrNoSource
	case q.Find != "" && q.Stream != "":
		return nil, ErrTwoSources
	}

	var b *query.Builder
	if q.Find != "" {
		source, err := s.Lookup(q.Find)
		if err != nil {
			return nil, err
		}
		b = query.FindType(source)
	} else {
		source, err := s.Lookup(q.Stream)
		if err != nil {
			return nil, err
		}
		b = query.StreamType(source)
	}

	if q.As != "" {
		target, err := s.Lookup(q.As)
		if err != nil {
			return nil, err
		}
		b = b.Reproject(target)
	}
	if q.Namespace != "" {
		b = b.WithNamespace(q.Namespace)
	}

	c, err := s.ParseWheres(q.Where)
	if err != nil {
		return nil, err
	}
	if c != nil {
		if b, err = b.WithCriterion(c); err != nil {
			return nil, err
		}
	}

	if _, err := b.Statement(); err != nil {
		return nil, err
	}
	return b, nil
}
