package unitconv

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Resolver computes multiplicative conversion factors between units by
// composing direct conversion rows along a graph path. Product-specific rows
// override generic ones; units without conversion data of their own fall
// back to generic units carrying the same name.
type Resolver struct {
	source Source
	store  *UnitStore
	log    *zap.Logger

	genericMu sync.Mutex
	generic   *Graph
}

func NewResolver(source Source, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		source: source,
		store:  NewUnitStore(source),
		log:    log,
	}
}

// Store exposes the resolver's generic cache, mainly for the query facade.
func (r *Resolver) Store() *UnitStore {
	return r.store
}

// UnresolvedEdgeError reports a path edge whose factor could not be
// recomputed while composing a multi-hop conversion. Distinct from the
// no-path case: a route existed, but one of its hops lost its factor.
type UnresolvedEdgeError struct {
	From int64
	To   int64
	Path []int64
}

func (e *UnresolvedEdgeError) Error() string {
	return fmt.Sprintf("no direct factor for path edge %d->%d", e.From, e.To)
}

// GetFactor returns the factor converting one unit of from into to units,
// with found == false when no conversion path exists. productIDs, if given,
// overlay those products' conversion rows on the generic data.
func (r *Resolver) GetFactor(ctx context.Context, from, to int64, productIDs ...int64) (factor float64, found bool, err error) {
	if from == to {
		return 1, true, nil
	}

	var g *Graph
	if len(productIDs) > 0 {
		g, err = r.buildProductGraph(ctx, productIDs)
	} else {
		g, err = r.genericGraph(ctx)
	}
	if err != nil {
		return 0, false, err
	}

	path := shortestPath(g, from, to)
	if len(path) < 2 {
		return 0, false, nil
	}

	// Each hop is recomputed with the call's product scope; the graph
	// weights only decided the topology.
	factor = 1
	for i := 0; i+1 < len(path); i++ {
		step, ok, err := r.PreferredDirectFactor(ctx, path[i], path[i+1], productIDs...)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			r.log.Warn("conversion path edge lost its factor",
				zap.Int64("from", path[i]),
				zap.Int64("to", path[i+1]),
				zap.Int64s("path", path))
			return 0, false, &UnresolvedEdgeError{From: path[i], To: path[i+1], Path: path}
		}
		factor *= step
	}
	return factor, true, nil
}

// PreferredDirectFactor resolves a single-hop factor. Precedence: the given
// products' rows, then the generic cache, then generic units matched by name
// standing in for units that have no conversion data of their own.
func (r *Resolver) PreferredDirectFactor(ctx context.Context, from, to int64, productIDs ...int64) (float64, bool, error) {
	if from == to {
		return 1, true, nil
	}
	for _, pid := range productIDs {
		pid := pid
		rows, err := r.source.SelectDirectConversions(ctx, &pid)
		if err != nil {
			return 0, false, err
		}
		if factor, ok := factorFromRows(rows, from, to); ok {
			return factor, true, nil
		}
	}
	generic, err := r.store.GenericConversions(ctx)
	if err != nil {
		return 0, false, err
	}
	if factor, ok := factorFromRows(generic, from, to); ok {
		return factor, true, nil
	}
	return r.nameMatchedFactor(ctx, from, to)
}

// nameMatchedFactor retries the generic direct search with generic units
// whose names equal the queried units' names. Units without a name twin keep
// their original id.
func (r *Resolver) nameMatchedFactor(ctx context.Context, from, to int64) (float64, bool, error) {
	fromUnit, err := r.lookupUnit(ctx, from)
	if err != nil {
		return 0, false, err
	}
	toUnit, err := r.lookupUnit(ctx, to)
	if err != nil {
		return 0, false, err
	}

	generic, err := r.store.GenericUnits(ctx)
	if err != nil {
		return 0, false, err
	}
	fromIDs := genericIDsByName(generic, fromUnit, from)
	toIDs := genericIDsByName(generic, toUnit, to)
	if len(fromIDs) == 1 && fromIDs[0] == from && len(toIDs) == 1 && toIDs[0] == to {
		// no twin on either side, the generic search already failed
		return 0, false, nil
	}

	rows, err := r.store.GenericConversions(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, gf := range fromIDs {
		for _, gt := range toIDs {
			if factor, ok := factorFromRows(rows, gf, gt); ok {
				return factor, true, nil
			}
		}
	}
	return 0, false, nil
}

// genericIDsByName lists the generic units sharing u's name, or the original
// id when u is unknown or has no twin.
func genericIDsByName(generic []Unit, u *Unit, original int64) []int64 {
	if u == nil {
		return []int64{original}
	}
	var ids []int64
	for _, g := range generic {
		if g.Name == u.Name {
			ids = append(ids, g.UnitID)
		}
	}
	if len(ids) == 0 {
		return []int64{original}
	}
	return ids
}

// lookupUnit finds a unit record by id: the generic cache first, then a
// point query against the source. Unknown ids return nil without error.
func (r *Resolver) lookupUnit(ctx context.Context, unitID int64) (*Unit, error) {
	generic, err := r.store.GenericUnits(ctx)
	if err != nil {
		return nil, err
	}
	for i := range generic {
		if generic[i].UnitID == unitID {
			u := generic[i]
			return &u, nil
		}
	}
	rows, err := r.source.SelectUnits(ctx, UnitFilter{UnitID: &unitID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	u := rows[0]
	return &u, nil
}

// matchConversion returns the row's factor when the row covers (from, to)
// directly, or the inverted factor when it covers (to, from). Rows with a
// non-positive factor never match.
func matchConversion(row UnitConversion, from, to int64) (float64, bool) {
	if row.Factor <= 0 {
		return 0, false
	}
	if row.FromUnitID == from && row.ToUnitID == to {
		return row.Factor, true
	}
	if row.FromUnitID == to && row.ToUnitID == from {
		return 1 / row.Factor, true
	}
	return 0, false
}

func factorFromRows(rows []UnitConversion, from, to int64) (float64, bool) {
	for _, row := range rows {
		if factor, ok := matchConversion(row, from, to); ok {
			return factor, true
		}
	}
	return 0, false
}
