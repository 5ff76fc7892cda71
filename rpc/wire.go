package unitconvrpc

import "unitconv"

// Wire mirrors of the catalog types, tagged for msgpack.

type Unit struct {
	UnitID    int64  `msgpack:"unit_id,omitempty"`
	Name      string `msgpack:"name,omitempty"`
	FormID    *int64 `msgpack:"form_id,omitempty"`
	ProductID *int64 `msgpack:"product_id,omitempty"`
}

type UnitConversion struct {
	FromUnitID int64   `msgpack:"from_unit_id,omitempty"`
	ToUnitID   int64   `msgpack:"to_unit_id,omitempty"`
	Factor     float64 `msgpack:"factor,omitempty"`
	ProductID  *int64  `msgpack:"product_id,omitempty"`
}

type UnitOption struct {
	Label string `msgpack:"label,omitempty"`
	Value int64  `msgpack:"value,omitempty"`
}

type UnitRequest struct {
	UnitID int64 `msgpack:"unit_id"`
}

type UnitsRequest struct {
	ProductID *int64 `msgpack:"product_id,omitempty"`
}

type OptionsForProductRequest struct {
	ProductID int64 `msgpack:"product_id"`
}

type FactorRequest struct {
	FromUnitID int64   `msgpack:"from_unit_id"`
	ToUnitID   int64   `msgpack:"to_unit_id"`
	ProductIDs []int64 `msgpack:"product_ids,omitempty"`
}

type FactorResponse struct {
	Factor float64 `msgpack:"factor,omitempty"`
	Found  bool    `msgpack:"found,omitempty"`
}

type UnitList struct {
	Units []Unit `msgpack:"units,omitempty"`
}

type ConversionList struct {
	Conversions []UnitConversion `msgpack:"conversions,omitempty"`
}

type OptionList struct {
	Options []UnitOption `msgpack:"options,omitempty"`
}

func NewUnit(u unitconv.Unit) Unit {
	return Unit{
		UnitID:    u.UnitID,
		Name:      u.Name,
		FormID:    u.FormID,
		ProductID: u.ProductID,
	}
}

func ToCatalogUnit(u Unit) unitconv.Unit {
	return unitconv.Unit{
		UnitID:    u.UnitID,
		Name:      u.Name,
		FormID:    u.FormID,
		ProductID: u.ProductID,
	}
}

func NewUnitList(units []unitconv.Unit) UnitList {
	out := UnitList{Units: make([]Unit, 0, len(units))}
	for _, u := range units {
		out.Units = append(out.Units, NewUnit(u))
	}
	return out
}

func NewConversion(c unitconv.UnitConversion) UnitConversion {
	return UnitConversion{
		FromUnitID: c.FromUnitID,
		ToUnitID:   c.ToUnitID,
		Factor:     c.Factor,
		ProductID:  c.ProductID,
	}
}

func ToCatalogConversion(c UnitConversion) unitconv.UnitConversion {
	return unitconv.UnitConversion{
		FromUnitID: c.FromUnitID,
		ToUnitID:   c.ToUnitID,
		Factor:     c.Factor,
		ProductID:  c.ProductID,
	}
}

func NewConversionList(convs []unitconv.UnitConversion) ConversionList {
	out := ConversionList{Conversions: make([]UnitConversion, 0, len(convs))}
	for _, c := range convs {
		out.Conversions = append(out.Conversions, NewConversion(c))
	}
	return out
}

func NewOptionList(options []unitconv.UnitOption) OptionList {
	out := OptionList{Options: make([]UnitOption, 0, len(options))}
	for _, o := range options {
		out.Options = append(out.Options, UnitOption{Label: o.Label, Value: o.Value})
	}
	return out
}
