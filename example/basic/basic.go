package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"unitconv"
)

func id(v int64) *int64 { return &v }

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	source, err := unitconv.OpenSQLite("file::memory:?cache=shared")
	if err != nil {
		panic(err)
	}
	defer source.Close()

	ctx := context.Background()

	// Generic units: 1 mg, 2 g, 3 mL. Product 10 adds its own "Drop" unit.
	seed := []unitconv.Unit{
		{UnitID: 1, Name: "mg"},
		{UnitID: 2, Name: "g"},
		{UnitID: 3, Name: "mL", FormID: id(1)},
		{UnitID: 4, Name: "Drop", FormID: id(1)},
		{UnitID: 100, Name: "Drop", ProductID: id(10)},
	}
	for _, u := range seed {
		if err := source.AddUnit(ctx, u); err != nil {
			panic(err)
		}
	}

	conversions := []unitconv.UnitConversion{
		{FromUnitID: 1, ToUnitID: 2, Factor: 0.001}, // 1 mg = 0.001 g
		{FromUnitID: 2, ToUnitID: 3, Factor: 1},     // 1 g = 1 mL
		{FromUnitID: 3, ToUnitID: 4, Factor: 20},    // 1 mL = 20 drops
		{FromUnitID: 100, ToUnitID: 3, Factor: 0.08, ProductID: id(10)},
	}
	for _, c := range conversions {
		if err := source.AddConversion(ctx, c); err != nil {
			panic(err)
		}
	}

	catalog := unitconv.NewCatalog(source, unitconv.OptionPolicy{SmallVolumeUnitIDs: []int64{4}}, log)

	// Multi-hop: mg -> g -> mL
	factor, found, err := catalog.GetFactor(ctx, 1, 3)
	if err != nil {
		panic(err)
	}
	fmt.Printf("1 mg = %g mL (found=%v)\n", factor, found)

	// Product override: this product's drop is thicker than the generic one.
	factor, found, err = catalog.GetFactor(ctx, 100, 3, 10)
	if err != nil {
		panic(err)
	}
	fmt.Printf("1 product drop = %g mL (found=%v)\n", factor, found)

	options, err := catalog.GetUnitOptionsForProduct(ctx, unitconv.Product{
		ProductID:    10,
		Name:         "Eye drops",
		FormID:       id(1),
		AmountUnitID: 3,
	})
	if err != nil {
		panic(err)
	}
	for _, opt := range options {
		fmt.Printf("option %q -> unit %d\n", opt.Label, opt.Value)
	}
}
