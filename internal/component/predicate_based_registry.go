package component

import "context"

// Predicate reports whether a registration applies to an input of type A.
type Predicate[A any] interface {
	~func(context.Context, A) (bool, error)
}

// PredicateBasedRegistration pairs a Predicate with the value, and optional
// metadata, that Get hands back when the predicate holds.
type PredicateBasedRegistration[PA any, P Predicate[PA], V, MD any] struct {
	Predicate P
	Value     V
	Metadata  MD
}

// PredicateBasedRegistry selects a registration by asking each one, in the
// order registered, whether it applies to an input.
type PredicateBasedRegistry[PA any, P Predicate[PA], V, MD any] interface {
	Register(PredicateBasedRegistration[PA, P, V, MD]) error
	// MustRegister panics where Register would return an error.
	MustRegister(PredicateBasedRegistration[PA, P, V, MD])
	// Get returns the earliest registration whose predicate holds for the
	// input, or a RegistrationNotFoundError.
	Get(context.Context, PA) (PredicateBasedRegistration[PA, P, V, MD], error)
	// List returns every registration, earliest first.
	List() []PredicateBasedRegistration[PA, P, V, MD]
}

// NewPredicateBasedRegistry returns an empty PredicateBasedRegistry, or one
// seeded with the given registrations.
func NewPredicateBasedRegistry[PA any, P Predicate[PA], V, MD any](
	registrations ...PredicateBasedRegistration[PA, P, V, MD],
) (PredicateBasedRegistry[PA, P, V, MD], error) {
	return newListBasedRegistry(registrations...)
}

// MustNewPredicateBasedRegistry is NewPredicateBasedRegistry, panicking on
// error. It suits package-level registries.
func MustNewPredicateBasedRegistry[PA any, P Predicate[PA], V, MD any](
	registrations ...PredicateBasedRegistration[PA, P, V, MD],
) PredicateBasedRegistry[PA, P, V, MD] {
	r, err := NewPredicateBasedRegistry(registrations...)
	if err != nil {
		panic(err)
	}
	return r
}
