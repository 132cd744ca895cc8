package statement

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orbital/internal/criteria"
	"github.com/roach88/orbital/internal/typedesc"
)

type FirstName string

func (FirstName) DataType() string { return "FirstName" }

type HouseNumber string

func (HouseNumber) DataType() string { return "addresses.HouseNumber" }

type StreetName string

func (StreetName) DataType() string { return "addresses.StreetName" }

type Address struct {
	HouseNumber HouseNumber
	StreetName  StreetName
}

type Person struct {
	FirstName FirstName
}

func (Person) DataType() string { return "Person" }

type Film struct{}

func (Film) DataType() string { return "film.Film" }

type Target struct {
	FirstName FirstName `json:"firstName"`
	Address   Address   `json:"address"`
}

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRender_Golden(t *testing.T) {
	jimmy := criteria.On(typedesc.Of[FirstName]()).Eq("Jimmy")
	person := typedesc.Of[Person]()
	people := typedesc.Of[[]Person]()

	testCases := []struct {
		name string
		req  Request
	}{
		{
			name: "find_source_only",
			req:  Request{Verb: Find, Source: person, Target: person},
		},
		{
			name: "find_structural_projection",
			req:  Request{Verb: Find, Source: person, Target: typedesc.Of[Target]()},
		},
		{
			name: "find_list_structural_projection",
			req:  Request{Verb: Find, Source: people, Target: typedesc.Of[[]Target]()},
		},
		{
			name: "find_list_with_criterion",
			req:  Request{Verb: Find, Source: people, Target: people, Criterion: jimmy},
		},
		{
			name: "stream_structural_projection",
			req:  Request{Verb: Stream, Source: person, Target: typedesc.Of[Target]()},
		},
		{
			name: "find_named_projection",
			req:  Request{Verb: Find, Source: person, Target: typedesc.Of[Film]()},
		},
		{
			name: "stream_named_projection",
			req:  Request{Verb: Stream, Source: person, Target: typedesc.Of[Film]()},
		},
		{
			name: "find_anonymous_field",
			req: Request{Verb: Find, Source: person, Target: typedesc.Struct("",
				typedesc.F("name", typedesc.Of[FirstName]()),
				typedesc.F("home", typedesc.Struct("",
					typedesc.F("street", typedesc.Of[StreetName]()),
					typedesc.F("numbers", typedesc.Of[[]HouseNumber]()),
				)),
			)},
		},
		{
			name: "find_empty_projection",
			req:  Request{Verb: Find, Source: person, Target: typedesc.Struct("Nothing")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewGenerator("").Render(tc.req)
			require.NoError(t, err)
			newGolden(t).Assert(t, tc.name, []byte(got))
		})
	}
}

func TestRender_Properties(t *testing.T) {
	person := typedesc.Of[Person]()
	people := typedesc.Of[[]Person]()
	target := typedesc.Of[Target]()
	targets := typedesc.Of[[]Target]()
	g := NewGenerator("")

	render := func(req Request) string {
		t.Helper()
		s, err := g.Render(req)
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, "find { Person }", render(Request{Verb: Find, Source: person, Target: person}))

	assert.True(t, Equivalent(
		"find { Person } as { firstName: FirstName \n address: Address }",
		render(Request{Verb: Find, Source: person, Target: target}),
	))

	assert.True(t, Equivalent(
		"find { Person[] } as { firstName: FirstName \n address: Address }[]",
		render(Request{Verb: Find, Source: people, Target: targets}),
	))

	assert.True(t, Equivalent(
		`find { Person[]( FirstName == "Jimmy" ) }`,
		render(Request{Verb: Find, Source: people, Target: people,
			Criterion: criteria.On(typedesc.Of[FirstName]()).Eq("Jimmy")}),
	))

	// Tagged targets render as a bare data-type name.
	film := typedesc.Of[Film]()
	assert.Equal(t, "find { Person } film.Film", render(Request{Verb: Find, Source: person, Target: film}))
	assert.Equal(t, "stream { Person } film.Film[]", render(Request{Verb: Stream, Source: person, Target: film}))
	assert.Equal(t, "find { Person[] } film.Film[]", render(Request{Verb: Find, Source: people, Target: typedesc.Of[[]Film]()}))

	// Stream always marks the projection as a sequence.
	assert.True(t, Equivalent(
		"stream { Person } as { firstName: FirstName address: Address }[]",
		render(Request{Verb: Stream, Source: person, Target: target}),
	))
	assert.True(t, Equivalent(
		"stream { Person } as { firstName: FirstName address: Address }[]",
		render(Request{Verb: Stream, Source: person, Target: targets}),
	))
}

func TestRender_NilTargetMeansNoProjection(t *testing.T) {
	got, err := NewGenerator("").Render(Request{Verb: Stream, Source: typedesc.Of[Person]()})
	require.NoError(t, err)
	assert.Equal(t, "stream { Person }", got)
}

func TestRender_IdentityNotStructuralEquality(t *testing.T) {
	// Two distinct descriptors with the same tag still produce a projection.
	got, err := NewGenerator("").Render(Request{
		Verb:   Find,
		Source: typedesc.Named("Person"),
		Target: typedesc.Named("Person"),
	})
	require.NoError(t, err)
	assert.Equal(t, "find { Person } Person", got)
}

func TestRender_Idempotent(t *testing.T) {
	req := Request{
		Verb:      Find,
		Source:    typedesc.Of[[]Person](),
		Target:    typedesc.Of[[]Target](),
		Criterion: criteria.On(typedesc.Of[FirstName]()).Ne("Marty"),
	}
	g := NewGenerator("")

	first, err := g.Render(req)
	require.NoError(t, err)
	second, err := g.Render(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_Namespace(t *testing.T) {
	got, err := NewGenerator("com.orbital.client").Render(Request{
		Verb:   Find,
		Source: typedesc.Of[Person](),
		Target: typedesc.Of[Target](),
	})
	require.NoError(t, err)
	assert.True(t, Equivalent(
		"find { Person } as { firstName: FirstName address: com.orbital.client.Address }",
		got,
	))
}

func TestRender_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		req   Request
		check func(error) bool
	}{
		{
			name:  "invalid verb",
			req:   Request{Verb: "delete", Source: typedesc.Of[Person]()},
			check: func(err error) bool { return assert.ErrorIs(t, err, ErrInvalidVerb) },
		},
		{
			name:  "nil source",
			req:   Request{Verb: Find},
			check: typedesc.IsMissingDataType,
		},
		{
			name:  "structural source",
			req:   Request{Verb: Find, Source: typedesc.Of[Target]()},
			check: typedesc.IsMissingDataType,
		},
		{
			name:  "unbounded wildcard source",
			req:   Request{Verb: Find, Source: typedesc.CollectionOf(typedesc.Wildcard(nil))},
			check: typedesc.IsUnboundedWildcard,
		},
		{
			name:  "untagged target field",
			req:   Request{Verb: Find, Source: typedesc.Of[Person](), Target: typedesc.Of[struct{ Name string }]()},
			check: typedesc.IsMissingDataType,
		},
		{
			name: "invalid criterion",
			req: Request{Verb: Find, Source: typedesc.Of[Person](), Criterion: &criteria.Expr{
				Op: criteria.LogicalAnd, Left: criteria.Literal{Value: 1}, Right: criteria.Literal{Value: 2},
			}},
			check: criteria.IsCriterionError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewGenerator("").Render(tc.req)
			require.Error(t, err)
			assert.Empty(t, got, "no partial statement on error")
			assert.True(t, tc.check(err), "unexpected error: %v", err)
		})
	}
}

func TestParseVerb(t *testing.T) {
	v, err := ParseVerb("stream")
	require.NoError(t, err)
	assert.Equal(t, Stream, v)

	_, err = ParseVerb("FIND")
	assert.ErrorIs(t, err, ErrInvalidVerb)
}

func TestEquivalent(t *testing.T) {
	assert.True(t, Equivalent("find {\n\tPerson\n}", "find{Person}"))
	assert.False(t, Equivalent("find { Person }", "find { People }"))
}
