package unitconv

import "context"

// Unit is a measurement unit in the catalog. A nil ProductID marks the unit
// as generic, available to every product; a set ProductID scopes it to one
// product only.
type Unit struct {
	UnitID    int64
	Name      string
	FormID    *int64
	ProductID *int64
}

// UnitConversion states that one FromUnitID equals Factor ToUnitID.
// Rows are stored directed but are semantically invertible: a row A->B with
// factor f also answers B->A with 1/f. A nil ProductID marks a generic row.
type UnitConversion struct {
	FromUnitID int64
	ToUnitID   int64
	Factor     float64
	ProductID  *int64
}

// Product carries the catalog metadata option assembly works from.
type Product struct {
	ProductID    int64
	Name         string
	FormID       *int64
	AmountUnitID int64
	DoseUnitID   *int64
}

// UnitOption is one label/value entry of a unit option list.
type UnitOption struct {
	Label string
	Value int64
}

// UnitFilter narrows a SelectUnits query. The zero value selects all
// generic units.
type UnitFilter struct {
	ProductID *int64
	UnitID    *int64
}

// Source is the data-access collaborator units and conversions are read
// from. Results are immutable snapshots; the resolver never writes back.
type Source interface {
	SelectUnits(ctx context.Context, f UnitFilter) ([]Unit, error)
	SelectDirectConversions(ctx context.Context, productID *int64) ([]UnitConversion, error)
}

func cloneUnit(u Unit) Unit {
	if u.FormID != nil {
		v := *u.FormID
		u.FormID = &v
	}
	if u.ProductID != nil {
		v := *u.ProductID
		u.ProductID = &v
	}
	return u
}

func cloneUnits(units []Unit) []Unit {
	out := make([]Unit, len(units))
	for i := range units {
		out[i] = cloneUnit(units[i])
	}
	return out
}

func cloneConversion(c UnitConversion) UnitConversion {
	if c.ProductID != nil {
		v := *c.ProductID
		c.ProductID = &v
	}
	return c
}

func cloneConversions(convs []UnitConversion) []UnitConversion {
	out := make([]UnitConversion, len(convs))
	for i := range convs {
		out[i] = cloneConversion(convs[i])
	}
	return out
}
