package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orbital/internal/criteria"
	"github.com/roach88/orbital/internal/ids"
	"github.com/roach88/orbital/internal/statement"
	"github.com/roach88/orbital/internal/transport"
	"github.com/roach88/orbital/internal/typedesc"
)

type FirstName string

func (FirstName) DataType() string { return "FirstName" }

type Age int

func (Age) DataType() string { return "Age" }

type HouseNumber string

func (HouseNumber) DataType() string { return "addresses.HouseNumber" }

type Address struct {
	HouseNumber HouseNumber `json:"houseNumber"`
}

type Person struct {
	FirstName FirstName `json:"firstName"`
}

func (Person) DataType() string { return "Person" }

type Target struct {
	FirstName FirstName `json:"firstName"`
	Address   Address   `json:"address"`
}

func send(t *testing.T, b *Builder) string {
	t.Helper()
	m := transport.NewMockTransport()
	_, err := b.Send(context.Background(), m)
	require.NoError(t, err)
	return m.CapturedQuery()
}

func TestSend_Statements(t *testing.T) {
	jimmy := Must(Where[FirstName](Find[[]Person]()).Eq("Jimmy"))

	tests := []struct {
		name string
		b    *Builder
		want string
	}{
		{
			name: "find without projection",
			b:    Find[Person](),
			want: "find { Person }",
		},
		{
			name: "find with projection",
			b:    As[Target](Find[Person]()),
			want: "find { Person } as { firstName: FirstName \n address: Address }",
		},
		{
			name: "find list with list projection",
			b:    As[[]Target](Find[[]Person]()),
			want: "find { Person[] } as { firstName: FirstName \n address: Address }[]",
		},
		{
			name: "find with criterion",
			b:    jimmy,
			want: `find { Person[]( FirstName == "Jimmy" ) }`,
		},
		{
			name: "stream forces sequence",
			b:    As[Target](Stream[Person]()),
			want: "stream { Person } as { firstName: FirstName address: Address }[]",
		},
		{
			name: "namespace",
			b:    As[Target](Find[Person]()).WithNamespace("com.orbital.client"),
			want: "find { Person } as { firstName: FirstName address: com.orbital.client.Address }",
		},
		{
			name: "hand-built descriptors",
			b:    FindType(typedesc.CollectionOf(typedesc.Named("film.Film"))).Reproject(typedesc.Named("film.Title")),
			want: "find { film.Film[] } film.Title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := send(t, tt.b)
			assert.True(t, statement.Equivalent(tt.want, got), "want %q\n got %q", tt.want, got)
		})
	}
}

func TestReproject_LeavesOriginalUsable(t *testing.T) {
	base := Find[Person]()
	projected := As[Target](base)

	assert.NotSame(t, base, projected)
	assert.Equal(t, base.Source(), projected.Source())
	assert.Equal(t, base.Verb(), projected.Verb())

	s, err := base.Statement()
	require.NoError(t, err)
	assert.Equal(t, "find { Person }", s)
}

func TestReproject_CarriesCriterion(t *testing.T) {
	b := Must(Where[Age](Stream[Person]()).Gt(21))
	p := As[Target](b)

	assert.Same(t, b.Criterion(), p.Criterion())
	s, err := p.Statement()
	require.NoError(t, err)
	assert.True(t, statement.Equivalent(
		"stream { Person( Age > 21 ) } as { firstName: FirstName address: Address }[]", s))
}

func TestWithCriterion_SecondFails(t *testing.T) {
	b, err := Where[FirstName](Find[[]Person]()).Eq("Jimmy")
	require.NoError(t, err)
	before, err := b.Statement()
	require.NoError(t, err)

	again, err := Where[FirstName](b).Eq("Marty")
	require.Error(t, err)
	assert.Nil(t, again)
	assert.True(t, criteria.IsAlreadySet(err))
	assert.True(t, IsConfigError(err))

	after, err := b.Statement()
	require.NoError(t, err)
	assert.Equal(t, before, after, "the original builder is unaffected")
}

func TestWithCriterion_Composed(t *testing.T) {
	name := criteria.On(typedesc.Of[FirstName]())
	age := criteria.On(typedesc.Of[Age]())

	b, err := Find[[]Person]().WithCriterion(criteria.And(name.Eq("Jimmy"), age.Le(30)))
	require.NoError(t, err)

	s, err := b.Statement()
	require.NoError(t, err)
	assert.Equal(t, `find { Person[]( (FirstName == "Jimmy") && (Age <= 30) ) }`, s)
}

func TestWithCriterion_Invalid(t *testing.T) {
	_, err := Find[Person]().WithCriterion(nil)
	assert.True(t, criteria.IsCriterionError(err))
	assert.True(t, IsConfigError(err))
}

func TestWhere_AllOperators(t *testing.T) {
	tests := []struct {
		name string
		fn   func(Condition[Age]) (*Builder, error)
		want string
	}{
		{"eq", func(c Condition[Age]) (*Builder, error) { return c.Eq(1) }, "Age == 1"},
		{"ne", func(c Condition[Age]) (*Builder, error) { return c.Ne(1) }, "Age != 1"},
		{"gt", func(c Condition[Age]) (*Builder, error) { return c.Gt(1) }, "Age > 1"},
		{"lt", func(c Condition[Age]) (*Builder, error) { return c.Lt(1) }, "Age < 1"},
		{"ge", func(c Condition[Age]) (*Builder, error) { return c.Ge(1) }, "Age >= 1"},
		{"le", func(c Condition[Age]) (*Builder, error) { return c.Le(1) }, "Age <= 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.fn(Where[Age](Find[Person]()))
			require.NoError(t, err)
			s, err := b.Statement()
			require.NoError(t, err)
			assert.Equal(t, "find { Person( "+tt.want+" ) }", s)
		})
	}
}

func TestStatement_Idempotent(t *testing.T) {
	b := As[[]Target](Must(Where[FirstName](Find[[]Person]()).Ne("Doc")))

	first, err := b.Statement()
	require.NoError(t, err)
	second, err := b.Statement()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnvelope(t *testing.T) {
	b := As[Target](Stream[Person]()).WithIDs(ids.NewFixedGenerator("qry-a", "qry-b"))

	first, err := b.Envelope()
	require.NoError(t, err)
	second, err := b.Envelope()
	require.NoError(t, err)

	assert.Equal(t, "qry-a", first.ClientQueryID)
	assert.Equal(t, "qry-b", second.ClientQueryID, "ids are never reused")
	assert.Equal(t, statement.Stream, first.Verb)
	assert.True(t, typedesc.Same(typedesc.Of[Target](), first.Target))
	assert.Equal(t, first.Statement, second.Statement)
}

func TestEnvelope_DefaultIDs(t *testing.T) {
	env, err := Find[Person]().Envelope()
	require.NoError(t, err)
	assert.True(t, ids.Valid(env.ClientQueryID), "id %q", env.ClientQueryID)
}

func TestSend_ConfigErrorsBeforeDispatch(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
	}{
		{"untagged source", Find[Target]()},
		{"untagged field", As[struct{ Name string }](Find[Person]())},
		{"unbounded wildcard", FindType(typedesc.Wildcard(nil))},
		{"any element", Find[[]any]()},
		{"invalid verb", &Builder{verb: "delete", source: typedesc.Of[Person]()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transport.NewMockTransport()
			s, err := tt.b.Send(context.Background(), m)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, IsConfigError(err), "got %v", err)
			assert.Empty(t, m.Calls(), "no dispatch on configuration error")
		})
	}
}

func TestSend_NilTransport(t *testing.T) {
	_, err := Find[Person]().Send(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilTransport)
	assert.False(t, IsConfigError(err))
}

func TestSend_PassesStreamThrough(t *testing.T) {
	m := transport.NewMockTransport()
	s, err := Stream[Person]().Send(context.Background(), m)
	require.NoError(t, err)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Same(t, calls[0].Stream, s)

	require.NoError(t, m.Emit([]byte(`{"firstName":"Jimmy"}`)))
	require.NoError(t, m.Complete())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := s.Next(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Jimmy"}`, string(p))
}

func TestMust_Panics(t *testing.T) {
	assert.Panics(t, func() {
		Must(Where[Age](Must(Where[Age](Find[Person]()).Eq(1))).Eq(2))
	})
}
