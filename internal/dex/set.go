// internal/dex/set.go
package dex

import (
	"fmt"
	"sort"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Set maps swap types onto the adapters that marshal their hops.
type Set struct {
	adapters map[types.SwapType]Adapter
}

// NewSet builds a set, rejecting two adapters for one swap type.
func NewSet(adapters ...Adapter) (*Set, error) {
	s := &Set{adapters: make(map[types.SwapType]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := s.adapters[a.SwapType()]; exists {
			return nil, fmt.Errorf("adapter for %s already registered", a.SwapType())
		}
		s.adapters[a.SwapType()] = a
	}
	return s, nil
}

// Get returns the adapter of swapType.
func (s *Set) Get(swapType types.SwapType) (Adapter, error) {
	a, ok := s.adapters[swapType]
	if !ok {
		return nil, errs.Wrap(errs.ErrUnknownSwapType, "%s", swapType)
	}
	return a, nil
}

// SwapTypes returns the covered swap types in ascending order.
func (s *Set) SwapTypes() []types.SwapType {
	out := make([]types.SwapType, 0, len(s.adapters))
	for st := range s.adapters {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
