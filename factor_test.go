package unitconv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func metricSource() *fakeSource {
	return &fakeSource{
		units: metricUnits(),
		generic: []UnitConversion{
			{FromUnitID: 1, ToUnitID: 2, Factor: 0.001},
			{FromUnitID: 2, ToUnitID: 3, Factor: 1},
		},
	}
}

func TestGetFactorIdentity(t *testing.T) {
	r := NewResolver(&fakeSource{}, nil)
	factor, found, err := r.GetFactor(context.Background(), 42, 42)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1.0, factor)
}

func TestGetFactorComposesPath(t *testing.T) {
	// mg -> g -> mL: 0.001 * 1
	r := NewResolver(metricSource(), nil)
	factor, found, err := r.GetFactor(context.Background(), 1, 3)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.001, factor, 1e-12)
}

func TestGetFactorRoundTrip(t *testing.T) {
	r := NewResolver(metricSource(), nil)
	ctx := context.Background()

	forward, found, err := r.GetFactor(ctx, 1, 3)
	require.NoError(t, err)
	require.True(t, found)

	back, found, err := r.GetFactor(ctx, 3, 1)
	require.NoError(t, err)
	require.True(t, found)

	require.InDelta(t, 1, forward*back, 1e-9)
}

func TestGetFactorNoPath(t *testing.T) {
	src := metricSource()
	src.units = append(src.units, Unit{UnitID: 9, Name: "drop"})
	r := NewResolver(src, nil)

	_, found, err := r.GetFactor(context.Background(), 1, 9)
	require.NoError(t, err)
	require.False(t, found)
}

func TestGetFactorProductOverridesGeneric(t *testing.T) {
	src := metricSource()
	src.byProduct = map[int64][]UnitConversion{
		10: {{FromUnitID: 1, ToUnitID: 2, Factor: 0.002, ProductID: id(10)}},
	}
	r := NewResolver(src, nil)
	ctx := context.Background()

	factor, found, err := r.GetFactor(ctx, 1, 2, 10)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.002, factor, 1e-12)

	// without the product scope the generic row still answers
	factor, found, err = r.GetFactor(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.001, factor, 1e-12)
}

func TestPreferredDirectFactorInverts(t *testing.T) {
	r := NewResolver(metricSource(), nil)
	factor, found, err := r.PreferredDirectFactor(context.Background(), 2, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 1000, factor, 1e-9)
}

func TestPreferredDirectFactorIgnoresNonPositiveRows(t *testing.T) {
	src := &fakeSource{
		units: metricUnits(),
		generic: []UnitConversion{
			{FromUnitID: 1, ToUnitID: 2, Factor: 0},
			{FromUnitID: 1, ToUnitID: 2, Factor: 0.001},
		},
	}
	r := NewResolver(src, nil)
	factor, found, err := r.PreferredDirectFactor(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.001, factor, 1e-12)
}

func TestPreferredDirectFactorNameFallback(t *testing.T) {
	// product units 100 and 101 are both called "Drop" and have no rows of
	// their own; two generic units share that name and do have a row.
	src := &fakeSource{
		units: []Unit{
			{UnitID: 4, Name: "Drop"},
			{UnitID: 5, Name: "Drop"},
			{UnitID: 100, Name: "Drop", ProductID: id(10)},
			{UnitID: 101, Name: "Drop", ProductID: id(11)},
		},
		generic: []UnitConversion{
			{FromUnitID: 4, ToUnitID: 5, Factor: 2},
		},
	}
	r := NewResolver(src, nil)
	factor, found, err := r.PreferredDirectFactor(context.Background(), 100, 101)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 2, factor, 1e-12)
}

func TestPreferredDirectFactorNameFallbackToGenericTwin(t *testing.T) {
	// product "Drop" converts to mL through the generic "Drop"
	src := &fakeSource{
		units: []Unit{
			{UnitID: 3, Name: "mL"},
			{UnitID: 4, Name: "Drop"},
			{UnitID: 100, Name: "Drop", ProductID: id(10)},
		},
		generic: []UnitConversion{
			{FromUnitID: 3, ToUnitID: 4, Factor: 20},
		},
	}
	r := NewResolver(src, nil)
	factor, found, err := r.PreferredDirectFactor(context.Background(), 100, 3)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 1.0/20, factor, 1e-12)
}

// vanishingSource serves a product row a limited number of times, then stops,
// so path composition hits an edge it can no longer resolve.
type vanishingSource struct {
	fakeSource
	remaining int
}

func (v *vanishingSource) SelectDirectConversions(ctx context.Context, productID *int64) ([]UnitConversion, error) {
	if productID != nil {
		if v.remaining == 0 {
			return nil, nil
		}
		v.remaining--
		return []UnitConversion{{FromUnitID: 1, ToUnitID: 2, Factor: 5, ProductID: productID}}, nil
	}
	return v.fakeSource.SelectDirectConversions(ctx, productID)
}

func TestGetFactorReportsUnresolvedEdge(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := &vanishingSource{
		fakeSource: fakeSource{units: []Unit{{UnitID: 1, Name: "mg"}, {UnitID: 2, Name: "g"}}},
		remaining:  1,
	}
	r := NewResolver(src, zap.New(core))

	_, found, err := r.GetFactor(context.Background(), 1, 2, 10)
	require.False(t, found)

	var edgeErr *UnresolvedEdgeError
	require.ErrorAs(t, err, &edgeErr)
	require.Equal(t, int64(1), edgeErr.From)
	require.Equal(t, int64(2), edgeErr.To)
	require.Equal(t, []int64{1, 2}, edgeErr.Path)

	require.Equal(t, 1, logs.FilterMessage("conversion path edge lost its factor").Len())
}
