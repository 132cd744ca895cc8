package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/orbital/internal/query"
	"github.com/roach88/orbital/internal/schema"
)

// QueryFlags are the flags shared by commands that build a query from a
// schema of declared types.
type QueryFlags struct {
	Schema    string
	Find      string
	Stream    string
	As        string
	Where     []string
	Namespace string
}

func (f *QueryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Schema, "schema", "", "CUE type declarations (directory or .cue file, required)")
	cmd.Flags().StringVar(&f.Find, "find", "", "find the given type, e.g. Person or Person[]")
	cmd.Flags().StringVar(&f.Stream, "stream", "", "stream the given type")
	cmd.Flags().StringVar(&f.As, "as", "", "project results onto the given type")
	cmd.Flags().StringArrayVar(&f.Where, "where", nil, "filter as '<Type> <op> <literal>' (repeatable, joined with &&)")
	cmd.Flags().StringVar(&f.Namespace, "namespace", "", "namespace for synthesized type names")
	_ = cmd.MarkFlagRequired("schema")
	cmd.MarkFlagsMutuallyExclusive("find", "stream")
	cmd.MarkFlagsOneRequired("find", "stream")
}

// BuildError is a failure to turn QueryFlags into a query. Code is one of
// the CLI error codes.
type BuildError struct {
	Code string
	Err  error
}

func (e *BuildError) Error() string {
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Build loads the schema and assembles the query.
func (f *QueryFlags) Build() (*query.Builder, error) {
	sch, err := schema.LoadDir(f.Schema)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		return nil, &BuildError{Code: code, Err: fmt.Errorf("load schema: %w", err)}
	}

	b, err := sch.Build(schema.Query{
		Find:      f.Find,
		Stream:    f.Stream,
		As:        f.As,
		Where:     f.Where,
		Namespace: f.Namespace,
	})
	if err != nil {
		return nil, &BuildError{Code: ErrCodeInvalid, Err: err}
	}
	return b, nil
}

// failBuild reports a Build error.
func failBuild(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		code = buildErr.Code
	}
	return formatter.Fail(ExitCommandError, code, "invalid query", err)
}
