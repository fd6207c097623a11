package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// listBasedRegistry keeps registrations in the order they were made. Get
// walks them front to back and stops at the first predicate that holds.
type listBasedRegistry[PA any, P Predicate[PA], V, MD any] struct {
	mu   sync.RWMutex
	regs []PredicateBasedRegistration[PA, P, V, MD]
}

func newListBasedRegistry[PA any, P Predicate[PA], V, MD any](
	initial ...PredicateBasedRegistration[PA, P, V, MD],
) (PredicateBasedRegistry[PA, P, V, MD], error) {
	r := &listBasedRegistry[PA, P, V, MD]{}
	for _, reg := range initial {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *listBasedRegistry[PA, P, V, MD]) Register(
	reg PredicateBasedRegistration[PA, P, V, MD],
) error {
	if reg.Predicate == nil {
		return errors.New("cannot register a nil predicate")
	}
	r.mu.Lock()
	r.regs = append(r.regs, reg)
	r.mu.Unlock()
	return nil
}

func (r *listBasedRegistry[PA, P, V, MD]) MustRegister(
	reg PredicateBasedRegistration[PA, P, V, MD],
) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

func (r *listBasedRegistry[PA, P, V, MD]) Get(
	ctx context.Context,
	arg PA,
) (PredicateBasedRegistration[PA, P, V, MD], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, reg := range r.regs {
		ok, err := reg.Predicate(ctx, arg)
		if err != nil {
			return PredicateBasedRegistration[PA, P, V, MD]{},
				fmt.Errorf("error evaluating predicate of registration %d: %w", i, err)
		}
		if ok {
			return reg, nil
		}
	}
	return PredicateBasedRegistration[PA, P, V, MD]{}, RegistrationNotFoundError{}
}

// List returns a copy, so callers may not reorder the registry.
func (r *listBasedRegistry[PA, P, V, MD]) List() []PredicateBasedRegistration[PA, P, V, MD] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PredicateBasedRegistration[PA, P, V, MD](nil), r.regs...)
}
