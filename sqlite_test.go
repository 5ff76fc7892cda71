package unitconv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSQLiteSource(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func seedSQLite(t *testing.T, src *SQLiteSource) {
	t.Helper()
	ctx := context.Background()
	units := []Unit{
		{UnitID: 1, Name: "mg"},
		{UnitID: 2, Name: "g"},
		{UnitID: 3, Name: "mL", FormID: id(1)},
		{UnitID: 100, Name: "Drop", ProductID: id(10)},
	}
	for _, u := range units {
		require.NoError(t, src.AddUnit(ctx, u))
	}
	conversions := []UnitConversion{
		{FromUnitID: 1, ToUnitID: 2, Factor: 0.001},
		{FromUnitID: 2, ToUnitID: 3, Factor: 1},
		{FromUnitID: 100, ToUnitID: 3, Factor: 0.08, ProductID: id(10)},
	}
	for _, c := range conversions {
		require.NoError(t, src.AddConversion(ctx, c))
	}
	require.NoError(t, src.AddProduct(ctx, Product{
		ProductID:    10,
		Name:         "Eye drops",
		FormID:       id(1),
		AmountUnitID: 3,
	}))
}

func TestSQLiteSelectUnits(t *testing.T) {
	src := testSQLiteSource(t)
	seedSQLite(t, src)
	ctx := context.Background()

	generic, err := src.SelectUnits(ctx, UnitFilter{})
	require.NoError(t, err)
	require.Len(t, generic, 3)
	for _, u := range generic {
		require.Nil(t, u.ProductID)
	}

	scoped, err := src.SelectUnits(ctx, UnitFilter{ProductID: id(10)})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "Drop", scoped[0].Name)
	require.Equal(t, int64(10), *scoped[0].ProductID)

	point, err := src.SelectUnits(ctx, UnitFilter{UnitID: id(3)})
	require.NoError(t, err)
	require.Len(t, point, 1)
	require.Equal(t, int64(1), *point[0].FormID)
}

func TestSQLiteSelectDirectConversions(t *testing.T) {
	src := testSQLiteSource(t)
	seedSQLite(t, src)
	ctx := context.Background()

	generic, err := src.SelectDirectConversions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, generic, 2)
	// insert order preserved, first match wins downstream
	require.Equal(t, int64(1), generic[0].FromUnitID)

	scoped, err := src.SelectDirectConversions(ctx, id(10))
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.InDelta(t, 0.08, scoped[0].Factor, 1e-12)
}

func TestSQLiteGetProduct(t *testing.T) {
	src := testSQLiteSource(t)
	seedSQLite(t, src)
	ctx := context.Background()

	p, err := src.GetProduct(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Eye drops", p.Name)
	require.Equal(t, int64(3), p.AmountUnitID)
	require.Nil(t, p.DoseUnitID)

	p, err = src.GetProduct(ctx, 999)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestCatalogOverSQLite(t *testing.T) {
	src := testSQLiteSource(t)
	seedSQLite(t, src)
	c := NewCatalog(src, OptionPolicy{}, nil)
	ctx := context.Background()

	factor, found, err := c.GetFactor(ctx, 1, 3)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.001, factor, 1e-12)

	factor, found, err = c.GetFactor(ctx, 100, 3, 10)
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.08, factor, 1e-12)
}
