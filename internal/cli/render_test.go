package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orbital/internal/statement"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRender_Text(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "source only",
			args: []string{"--find", "Person"},
			want: "find { Person }",
		},
		{
			name: "list with projection",
			args: []string{"--find", "Person[]", "--as", "Target[]"},
			want: "find { Person[] } as { firstName: FirstName age: Age }[]",
		},
		{
			name: "stream forces sequence",
			args: []string{"--stream", "Person", "--as", "Target"},
			want: "stream { Person } as { firstName: FirstName age: Age }[]",
		},
		{
			name: "named projection",
			args: []string{"--find", "Person", "--as", "FirstName"},
			want: "find { Person } FirstName",
		},
		{
			name: "criterion",
			args: []string{"--find", "Person[]", "--where", `FirstName == "Jimmy"`},
			want: `find { Person[]( FirstName == "Jimmy" ) }`,
		},
		{
			name: "two criteria",
			args: []string{"--find", "Person[]", "--where", `FirstName == "Jimmy"`, "--where", "Age > 21"},
			want: `find { Person[]( (FirstName == "Jimmy") && (Age > 21) ) }`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"render", "--schema", "testdata/types"}, tc.args...)
			out, err := executeRoot(t, args...)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(out, "\n"))
			assert.True(t, statement.Equivalent(tc.want, out), "got %q", out)
		})
	}
}

func TestRender_JSON(t *testing.T) {
	out, err := executeRoot(t, "--format", "json", "render", "--schema", "testdata/types", "--stream", "Person")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RenderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, RenderResult{Verb: "stream", Statement: "stream { Person }"}, resp.Data)
}

func TestRender_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{
			name:     "schema not found",
			args:     []string{"--schema", "testdata/missing", "--find", "Person"},
			wantCode: "E005",
		},
		{
			name:     "schema has no files",
			args:     []string{"--schema", t.TempDir(), "--find", "Person"},
			wantCode: "E003",
		},
		{
			name:     "schema does not compile",
			args:     []string{"--schema", "testdata/broken.cue", "--find", "Person"},
			wantCode: ErrCodeGeneric,
		},
		{
			name:     "unknown source",
			args:     []string{"--schema", "testdata/types", "--find", "Persn"},
			wantCode: ErrCodeInvalid,
		},
		{
			name:     "structural source",
			args:     []string{"--schema", "testdata/types", "--find", "Target"},
			wantCode: ErrCodeInvalid,
		},
		{
			name:     "bad where",
			args:     []string{"--schema", "testdata/types", "--find", "Person", "--where", "Age ~ 3"},
			wantCode: ErrCodeInvalid,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "render"}, tc.args...)
			out, err := executeRoot(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestRender_FlagValidation(t *testing.T) {
	_, err := executeRoot(t, "render", "--schema", "testdata/types")
	require.Error(t, err, "one of --find or --stream is required")

	_, err = executeRoot(t, "render", "--schema", "testdata/types", "--find", "Person", "--stream", "Person")
	require.Error(t, err, "--find and --stream are exclusive")

	_, err = executeRoot(t, "render", "--find", "Person")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}
