package unitconv

import (
	"context"
	"sync"
)

// UnitStore memoizes the generic unit catalog and its direct conversions.
// Each list is fetched at most once per store; an empty result still counts
// as loaded. The mutex keeps a single load in flight, so concurrent callers
// never observe a half-populated cache. A failed fetch leaves the flag
// unset and the next call retries.
type UnitStore struct {
	source Source

	mu          sync.Mutex
	unitsLoaded bool
	convsLoaded bool
	units       []Unit
	conversions []UnitConversion
}

func NewUnitStore(source Source) *UnitStore {
	return &UnitStore{source: source}
}

// EnsureLoaded populates both caches on first use. Idempotent after the
// first successful load.
func (s *UnitStore) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked(ctx)
}

func (s *UnitStore) ensureLoadedLocked(ctx context.Context) error {
	if !s.unitsLoaded {
		units, err := s.source.SelectUnits(ctx, UnitFilter{})
		if err != nil {
			return err
		}
		s.units = units
		s.unitsLoaded = true
	}
	if !s.convsLoaded {
		convs, err := s.source.SelectDirectConversions(ctx, nil)
		if err != nil {
			return err
		}
		s.conversions = convs
		s.convsLoaded = true
	}
	return nil
}

// GenericUnits returns the cached generic units, loading them if needed.
// The returned slice is shared; callers must not mutate it.
func (s *UnitStore) GenericUnits(ctx context.Context) ([]Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return s.units, nil
}

// GenericConversions returns the cached generic conversion rows, loading
// them if needed. The returned slice is shared; callers must not mutate it.
func (s *UnitStore) GenericConversions(ctx context.Context) ([]UnitConversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return s.conversions, nil
}
