package artifacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/akuity/artifact-resolver/internal/component"
)

// lookup is the argument to the predicates stored in a Repository. An empty
// name matches any credential handling the type.
type lookup struct {
	artifactType string
	name         string
}

type (
	credentialPredicate = func(context.Context, lookup) (bool, error)

	credentialRegistration = component.PredicateBasedRegistration[
		lookup,              // Arg to the predicate function
		credentialPredicate, // Predicate function
		Credential,          // Type stored in the registry
		struct{},            // This registry uses no metadata
	]
)

// Repository holds every configured Credential. It is populated once at
// startup and is read-only afterwards, so it is safe for concurrent use.
//
// A nil *Repository represents a process in which artifacts are disabled. All
// methods are safe to call on a nil *Repository.
type Repository struct {
	registry component.PredicateBasedRegistry[
		lookup,
		credentialPredicate,
		Credential,
		struct{},
	]
}

// NewRepository returns a Repository holding the provided credentials. Lookups
// consider credentials in the order given. Two credentials having the same
// name and at least one type in common are rejected, since lookups by type
// and name could not tell them apart.
func NewRepository(creds ...Credential) (*Repository, error) {
	registry, err := component.NewPredicateBasedRegistry[
		lookup,
		credentialPredicate,
		Credential,
		struct{},
	]()
	if err != nil {
		return nil, err
	}
	for i, cred := range creds {
		if cred == nil {
			return nil, fmt.Errorf("credential at index %d is nil", i)
		}
		if cred.Name() == "" {
			return nil, fmt.Errorf("credential at index %d has no name", i)
		}
		for _, prior := range creds[:i] {
			if prior.Name() != cred.Name() {
				continue
			}
			for _, t := range cred.Types() {
				if prior.HandlesType(t) {
					return nil, fmt.Errorf(
						"duplicate credentials with name %q for type %q",
						cred.Name(),
						t,
					)
				}
			}
		}
		if err = registry.Register(credentialRegistration{
			Predicate: matches(cred),
			Value:     cred,
		}); err != nil {
			return nil, err
		}
	}
	return &Repository{registry: registry}, nil
}

func matches(cred Credential) credentialPredicate {
	return func(_ context.Context, l lookup) (bool, error) {
		if !cred.HandlesType(l.artifactType) {
			return false, nil
		}
		return l.name == "" || cred.Name() == l.name, nil
	}
}

// List returns every configured credential in registration order. It never
// fails; a disabled Repository yields an empty slice.
func (r *Repository) List() []Credential {
	if r == nil {
		return []Credential{}
	}
	regs := r.registry.List()
	creds := make([]Credential, len(regs))
	for i, reg := range regs {
		creds[i] = reg.Value
	}
	return creds
}

// Find returns the first credential that handles artifactType and whose name
// is exactly name. A *CredentialNotFoundError is returned if there is none,
// and ErrNotConfigured if artifacts are disabled.
func (r *Repository) Find(
	ctx context.Context,
	artifactType string,
	name string,
) (Credential, error) {
	if name == "" {
		return nil, &CredentialNotFoundError{Type: artifactType, Name: name}
	}
	return r.get(ctx, lookup{artifactType: artifactType, name: name})
}

// FindForType returns the first credential that handles artifactType, whatever
// its name.
func (r *Repository) FindForType(
	ctx context.Context,
	artifactType string,
) (Credential, error) {
	return r.get(ctx, lookup{artifactType: artifactType})
}

func (r *Repository) get(ctx context.Context, l lookup) (Credential, error) {
	if r == nil {
		return nil, ErrNotConfigured
	}
	reg, err := r.registry.Get(ctx, l)
	if err != nil {
		if component.IsNotFoundError(err) {
			return nil, &CredentialNotFoundError{Type: l.artifactType, Name: l.name}
		}
		return nil, err
	}
	if reg.Value == nil {
		return nil, errors.New("registration holds no credential")
	}
	return reg.Value, nil
}
