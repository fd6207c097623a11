package component

// NameBasedRegistration associates a name with a value and optional metadata.
type NameBasedRegistration[V, MD any] struct {
	Name     string
	Value    V
	Metadata MD
}

// NameBasedRegistryOptions represents options for a NameBasedRegistry.
type NameBasedRegistryOptions struct {
	// AllowOverwriting, when true, permits a registration to replace an
	// existing registration having the same name.
	AllowOverwriting bool
}

// NameBasedRegistry provides methods for registering and retrieving values and
// metadata by name.
type NameBasedRegistry[V, MD any] interface {
	// Register adds a new registration to the registry.
	Register(NameBasedRegistration[V, MD]) error
	// MustRegister adds a new registration to the registry and panics if any
	// error is encountered.
	MustRegister(NameBasedRegistration[V, MD])
	// Get returns the registration having the specified name. A
	// NamedRegistrationNotFoundError is returned if there is none.
	Get(name string) (NameBasedRegistration[V, MD], error)
	// Names returns the names of all registrations, sorted.
	Names() []string
}

// NewNameBasedRegistry returns a default implementation of the
// NameBasedRegistry interface. Optional initial registrations may be provided
// when calling this function.
func NewNameBasedRegistry[V, MD any](
	opts *NameBasedRegistryOptions,
	registrations ...NameBasedRegistration[V, MD],
) (NameBasedRegistry[V, MD], error) {
	return newMapBasedRegistry(opts, registrations...)
}

// MustNewNameBasedRegistry is like NewNameBasedRegistry, but panics if any
// error is encountered.
func MustNewNameBasedRegistry[V, MD any](
	opts *NameBasedRegistryOptions,
	registrations ...NameBasedRegistration[V, MD],
) NameBasedRegistry[V, MD] {
	r, err := NewNameBasedRegistry(opts, registrations...)
	if err != nil {
		panic(err)
	}
	return r
}
