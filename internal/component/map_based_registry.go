package component

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// mapBasedRegistry backs NameBasedRegistry with a map keyed by name.
type mapBasedRegistry[V, MD any] struct {
	mu        sync.RWMutex
	overwrite bool
	byName    map[string]NameBasedRegistration[V, MD]
}

func newMapBasedRegistry[V, MD any](
	opts *NameBasedRegistryOptions,
	initial ...NameBasedRegistration[V, MD],
) (NameBasedRegistry[V, MD], error) {
	r := &mapBasedRegistry[V, MD]{
		byName: make(map[string]NameBasedRegistration[V, MD], len(initial)),
	}
	if opts != nil {
		r.overwrite = opts.AllowOverwriting
	}
	for _, reg := range initial {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *mapBasedRegistry[V, MD]) Register(reg NameBasedRegistration[V, MD]) error {
	if reg.Name == "" {
		return errors.New("a registration name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[reg.Name]; taken && !r.overwrite {
		return fmt.Errorf("name %q is already registered", reg.Name)
	}
	r.byName[reg.Name] = reg
	return nil
}

func (r *mapBasedRegistry[V, MD]) MustRegister(reg NameBasedRegistration[V, MD]) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

func (r *mapBasedRegistry[V, MD]) Get(name string) (NameBasedRegistration[V, MD], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.byName[name]; ok {
		return reg, nil
	}
	return NameBasedRegistration[V, MD]{}, NamedRegistrationNotFoundError{Name: name}
}

func (r *mapBasedRegistry[V, MD]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byName))
}
