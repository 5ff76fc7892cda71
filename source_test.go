package unitconv

import (
	"context"
	"errors"
	"sync"
)

func id(v int64) *int64 { return &v }

// fakeSource is an in-memory Source with call counters, enough to drive the
// resolver without a database.
type fakeSource struct {
	mu        sync.Mutex
	units     []Unit
	generic   []UnitConversion
	byProduct map[int64][]UnitConversion

	unitCalls int
	convCalls int
}

func (f *fakeSource) SelectUnits(_ context.Context, fl UnitFilter) ([]Unit, error) {
	f.mu.Lock()
	f.unitCalls++
	f.mu.Unlock()
	switch {
	case fl.UnitID != nil:
		for _, u := range f.units {
			if u.UnitID == *fl.UnitID {
				return []Unit{u}, nil
			}
		}
		return nil, nil
	case fl.ProductID != nil:
		var out []Unit
		for _, u := range f.units {
			if u.ProductID != nil && *u.ProductID == *fl.ProductID {
				out = append(out, u)
			}
		}
		return out, nil
	default:
		var out []Unit
		for _, u := range f.units {
			if u.ProductID == nil {
				out = append(out, u)
			}
		}
		return out, nil
	}
}

func (f *fakeSource) SelectDirectConversions(_ context.Context, productID *int64) ([]UnitConversion, error) {
	f.mu.Lock()
	f.convCalls++
	f.mu.Unlock()
	if productID == nil {
		return f.generic, nil
	}
	return f.byProduct[*productID], nil
}

// failingSource errors a fixed number of times before delegating.
type failingSource struct {
	inner    Source
	failures int
}

var errSourceDown = errors.New("source down")

func (f *failingSource) SelectUnits(ctx context.Context, fl UnitFilter) ([]Unit, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errSourceDown
	}
	return f.inner.SelectUnits(ctx, fl)
}

func (f *failingSource) SelectDirectConversions(ctx context.Context, productID *int64) ([]UnitConversion, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errSourceDown
	}
	return f.inner.SelectDirectConversions(ctx, productID)
}
