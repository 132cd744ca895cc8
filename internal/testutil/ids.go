package testutil

// SameIDGenerator returns the same correlation id every time.
//
// Unlike ids.FixedGenerator, which returns ids in sequence and panics when
// they run out, this generator never runs out. Use it where output is
// compared against golden files.
//
// Thread-safety: SameIDGenerator is stateless and safe for concurrent use.
type SameIDGenerator struct {
	id string
}

// NewSameIDGenerator creates the generator. An empty id means
// "qry-test-default".
func NewSameIDGenerator(id string) *SameIDGenerator {
	if id == "" {
		id = "qry-test-default"
	}
	return &SameIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *SameIDGenerator) Generate() string {
	return g.id
}
