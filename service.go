package unitconv

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
)

// OptionPolicy holds the catalog business rules applied while assembling
// unit option lists. SmallVolumeUnitIDs are offered next to a product's own
// units, but only when the product already touches one of them.
type OptionPolicy struct {
	SmallVolumeUnitIDs []int64
}

// Catalog is the public query surface over the resolver. Every returned
// record is a copy; callers never see the internal caches.
type Catalog struct {
	source   Source
	resolver *Resolver
	policy   OptionPolicy
	log      *zap.Logger
}

func NewCatalog(source Source, policy OptionPolicy, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		source:   source,
		resolver: NewResolver(source, log),
		policy:   policy,
		log:      log,
	}
}

func (c *Catalog) Resolver() *Resolver {
	return c.resolver
}

// GetFactor resolves the conversion factor between two units, optionally
// scoped to one or more products. See Resolver.GetFactor.
func (c *Catalog) GetFactor(ctx context.Context, from, to int64, productIDs ...int64) (float64, bool, error) {
	return c.resolver.GetFactor(ctx, from, to, productIDs...)
}

// GetUnit returns the unit with the given id: the generic cache first, then
// a point query. Unknown ids return nil without error.
func (c *Catalog) GetUnit(ctx context.Context, unitID int64) (*Unit, error) {
	generic, err := c.resolver.Store().GenericUnits(ctx)
	if err != nil {
		return nil, err
	}
	for i := range generic {
		if generic[i].UnitID == unitID {
			u := cloneUnit(generic[i])
			return &u, nil
		}
	}
	rows, err := c.source.SelectUnits(ctx, UnitFilter{UnitID: &unitID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	u := cloneUnit(rows[0])
	return &u, nil
}

// GetUnits lists all generic units, or a single product's units when a
// product id is given. Product scope replaces the generic set, it does not
// extend it.
func (c *Catalog) GetUnits(ctx context.Context, productID *int64) ([]Unit, error) {
	if productID == nil {
		generic, err := c.resolver.Store().GenericUnits(ctx)
		if err != nil {
			return nil, err
		}
		return cloneUnits(generic), nil
	}
	rows, err := c.source.SelectUnits(ctx, UnitFilter{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return cloneUnits(rows), nil
}

func (c *Catalog) GetGenericDirectConversions(ctx context.Context) ([]UnitConversion, error) {
	convs, err := c.resolver.Store().GenericConversions(ctx)
	if err != nil {
		return nil, err
	}
	return cloneConversions(convs), nil
}

// GetUnitOption maps a unit to its option pair, nil for unknown ids.
func (c *Catalog) GetUnitOption(ctx context.Context, unitID int64) (*UnitOption, error) {
	u, err := c.GetUnit(ctx, unitID)
	if err != nil || u == nil {
		return nil, err
	}
	return &UnitOption{Label: u.Name, Value: u.UnitID}, nil
}

// GetUnitOptionsForProduct assembles the unit choices offered for a product:
// its amount unit, its dose unit, generic units sharing its form, its own
// units, the endpoints of its conversion rows, and the policy's small-volume
// units when the product already touches one of them. Only units convertible
// to the amount unit survive; the result is sorted by label.
func (c *Catalog) GetUnitOptionsForProduct(ctx context.Context, product Product) ([]UnitOption, error) {
	candidates := make(map[int64]struct{})
	add := func(id int64) { candidates[id] = struct{}{} }

	add(product.AmountUnitID)
	if product.DoseUnitID != nil {
		add(*product.DoseUnitID)
	}

	generic, err := c.resolver.Store().GenericUnits(ctx)
	if err != nil {
		return nil, err
	}
	if product.FormID != nil {
		for _, u := range generic {
			if u.FormID != nil && *u.FormID == *product.FormID {
				add(u.UnitID)
			}
		}
	}

	pid := product.ProductID
	own, err := c.source.SelectUnits(ctx, UnitFilter{ProductID: &pid})
	if err != nil {
		return nil, err
	}
	for _, u := range own {
		add(u.UnitID)
	}

	rows, err := c.source.SelectDirectConversions(ctx, &pid)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		add(row.FromUnitID)
		add(row.ToUnitID)
	}

	touchesSmallVolume := false
	for _, id := range c.policy.SmallVolumeUnitIDs {
		if _, ok := candidates[id]; ok {
			touchesSmallVolume = true
			break
		}
	}
	if touchesSmallVolume {
		for _, id := range c.policy.SmallVolumeUnitIDs {
			add(id)
		}
	}

	ids := make([]int64, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	options := make([]UnitOption, 0, len(ids))
	for _, id := range ids {
		_, convertible, err := c.resolver.GetFactor(ctx, id, product.AmountUnitID, pid)
		if err != nil {
			var edgeErr *UnresolvedEdgeError
			if errors.As(err, &edgeErr) {
				c.log.Warn("skipping unit with a broken conversion path",
					zap.Int64("unit", id),
					zap.Int64("product", pid),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		if !convertible {
			continue
		}
		opt, err := c.GetUnitOption(ctx, id)
		if err != nil {
			return nil, err
		}
		if opt == nil {
			continue
		}
		options = append(options, *opt)
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Label < options[j].Label })
	return options, nil
}
