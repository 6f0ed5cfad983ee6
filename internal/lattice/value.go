// Package lattice defines the abstract-value lattices shared by the
// uncoalesced-access and block-size-invariance analyses.
package lattice

// Value is satisfied by a concrete abstract-value type V. It replaces the
// CRTP-style static polymorphism of a template-based abstract execution
// engine: V must know how to join with another V of its own type, with no
// virtual dispatch involved.
type Value[V any] interface {
	// Join returns the least upper bound of the receiver and v.
	Join(v V) V
	// String renders the value for diagnostics and pretty-printing.
	String() string
}
