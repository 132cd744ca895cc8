package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orbital/internal/statement"
	"github.com/roach88/orbital/internal/typedesc"
)

const people = `
type: {
	Person:    dataType: "Person"
	FirstName: dataType: "FirstName"
	Target: fields: {
		firstName: "FirstName"
		address:   "Address"
		aliases:   "FirstName[]"
	}
	Address: fields: {
		street: "StreetName"
	}
	StreetName: dataType: "addresses.StreetName"
	Nothing: fields: {}
}
`

func TestCompileString_Resolves(t *testing.T) {
	s, err := CompileString(people)
	require.NoError(t, err)
	assert.Equal(t, []string{"Address", "FirstName", "Nothing", "Person", "StreetName", "Target"}, s.Names())
	assert.Equal(t, 6, s.Len())

	target, err := s.Lookup("Target")
	require.NoError(t, err)

	got, err := typedesc.NewResolver("").Resolve(target)
	require.NoError(t, err)
	assert.True(t, got.IsStructural())
	require.Len(t, got.Fields, 3)
	assert.Equal(t, "firstName", got.Fields[0].Name)
	assert.Equal(t, "FirstName", got.Fields[0].Type.Name)
	assert.Equal(t, "address", got.Fields[1].Name)
	assert.Equal(t, "Address", got.Fields[1].Type.Ref())
	assert.Equal(t, "aliases", got.Fields[2].Name)
	assert.True(t, got.Fields[2].Type.Collection)

	nothing, err := s.Lookup("Nothing")
	require.NoError(t, err)
	got, err = typedesc.NewResolver("").Resolve(nothing)
	require.NoError(t, err)
	assert.Empty(t, got.Fields)
}

func TestLookup(t *testing.T) {
	s, err := CompileString(people)
	require.NoError(t, err)

	a, err := s.Lookup("Person")
	require.NoError(t, err)
	b, err := s.Lookup(" Person ")
	require.NoError(t, err)
	assert.True(t, typedesc.Same(a, b), "named lookups share one descriptor")

	list, err := s.Lookup("Person[]")
	require.NoError(t, err)
	assert.Equal(t, typedesc.KindCollection, list.Kind())
	again, err := s.Lookup("Person[]")
	require.NoError(t, err)
	assert.True(t, typedesc.Same(list, again), "collection lookups share one descriptor")

	_, err = s.Lookup("Persn")
	assert.Error(t, err)
}

func TestSchema_RendersStatement(t *testing.T) {
	s, err := CompileString(people)
	require.NoError(t, err)

	source, err := s.Lookup("Person[]")
	require.NoError(t, err)
	target, err := s.Lookup("Target[]")
	require.NoError(t, err)

	got, err := statement.NewGenerator("").Render(statement.Request{
		Verb:   statement.Find,
		Source: source,
		Target: target,
	})
	require.NoError(t, err)
	assert.True(t, statement.Equivalent(
		"find { Person[] } as { firstName: FirstName address: Address aliases: FirstName[] }[]", got), got)
}

func TestCompileString_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax", src: `type: {`},
		{name: "both", src: `type: A: {dataType: "A", fields: {}}`},
		{name: "neither", src: `type: A: {}`},
		{name: "unknown field ref", src: `type: A: fields: b: "Missing"`},
		{name: "bad data type", src: `type: A: dataType: "not a name"`},
		{name: "unknown key", src: `type: A: {dataType: "A", extra: 1}`},
		{name: "non string ref", src: `type: A: fields: b: 3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src)
			require.Error(t, err)
		})
	}
}

func TestCompileString_UnknownRefHasPosition(t *testing.T) {
	_, err := CompileString("type: A: fields: {\n\tb: \"Missing\"\n}\n")
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "type.A.fields.b", ce.Field)
	assert.Contains(t, ce.Error(), `unknown type "Missing"`)
}

func TestCompileString_Empty(t *testing.T) {
	s, err := CompileString(`other: 1`)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestLoadDir(t *testing.T) {
	s, err := LoadDir("testdata/people")
	require.NoError(t, err)
	assert.Equal(t, []string{"Address", "Age", "FirstName", "HouseNumber", "Person", "Target"}, s.Names())

	source, err := s.Lookup("Person")
	require.NoError(t, err)
	target, err := s.Lookup("Target")
	require.NoError(t, err)

	got, err := statement.NewGenerator("").Render(statement.Request{Verb: statement.Find, Source: source, Target: target})
	require.NoError(t, err)
	assert.True(t, statement.Equivalent("find { Person } as { firstName: FirstName address: Address }", got), got)
}

func TestLoadDir_SingleFile(t *testing.T) {
	s, err := LoadDir("testdata/people/people.cue")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir("testdata/missing")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)

	_, err = LoadDir(t.TempDir())
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}
