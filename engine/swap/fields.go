package swap

// Field names one side of a swap form. Values are deliberately usable as
// array indices so per-field data lives in a fixed two-element structure
// instead of a map.
type Field int

const (
	FieldInput Field = iota
	FieldOutput
)

// Other returns the opposite side.
func (f Field) Other() Field {
	if f == FieldInput {
		return FieldOutput
	}
	return FieldInput
}

func (f Field) String() string {
	if f == FieldInput {
		return "input"
	}
	return "output"
}

// FieldPair holds one value per swap side, addressed by Field. The fixed size
// gives compile-time exhaustiveness that map lookups by enum key do not.
type FieldPair[T any] [2]T

// Get returns the value for the given side.
func (p FieldPair[T]) Get(f Field) T {
	return p[f]
}

// Set stores the value for the given side.
func (p *FieldPair[T]) Set(f Field, v T) {
	p[f] = v
}

// Swapped returns the pair with both sides exchanged.
func (p FieldPair[T]) Swapped() FieldPair[T] {
	return FieldPair[T]{p[FieldOutput], p[FieldInput]}
}
