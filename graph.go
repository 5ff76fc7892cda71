package unitconv

import (
	"context"
	"sort"
)

// Graph is a directed weighted conversion graph keyed by unit id. An edge
// u->v carries the factor converting a quantity of u into v; an edge exists
// only where a factor could be resolved.
type Graph struct {
	nodes map[int64]struct{}
	edges map[int64]map[int64]float64
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[int64]struct{}),
		edges: make(map[int64]map[int64]float64),
	}
}

func (g *Graph) AddNode(id int64) {
	g.nodes[id] = struct{}{}
}

func (g *Graph) AddEdge(from, to int64, factor float64) {
	g.AddNode(from)
	g.AddNode(to)
	if g.edges[from] == nil {
		g.edges[from] = make(map[int64]float64)
	}
	g.edges[from][to] = factor
}

func (g *Graph) HasNode(id int64) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Weight(from, to int64) (float64, bool) {
	w, ok := g.edges[from][to]
	return w, ok
}

// Neighbors returns the successors of a node in ascending id order so path
// searches stay deterministic.
func (g *Graph) Neighbors(id int64) []int64 {
	out := make([]int64, 0, len(g.edges[id]))
	for to := range g.edges[id] {
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// genericGraph returns the shared generic conversion graph, building it on
// first use. Only a successful build is cached; a failed one is retried by
// the next caller.
func (r *Resolver) genericGraph(ctx context.Context) (*Graph, error) {
	r.genericMu.Lock()
	defer r.genericMu.Unlock()
	if r.generic != nil {
		return r.generic, nil
	}
	g, err := r.buildGenericGraph(ctx)
	if err != nil {
		return nil, err
	}
	r.generic = g
	return g, nil
}

func (r *Resolver) buildGenericGraph(ctx context.Context) (*Graph, error) {
	units, err := r.store.GenericUnits(ctx)
	if err != nil {
		return nil, err
	}
	g := NewGraph()
	for _, u := range units {
		g.AddNode(u.UnitID)
	}
	for _, from := range units {
		for _, to := range units {
			if from.UnitID == to.UnitID {
				continue
			}
			factor, ok, err := r.PreferredDirectFactor(ctx, from.UnitID, to.UnitID)
			if err != nil {
				return nil, err
			}
			if ok {
				g.AddEdge(from.UnitID, to.UnitID, factor)
			}
		}
	}
	return g, nil
}

// buildProductGraph overlays the given products' conversion rows on the
// generic node space. For a pair covered by a product row the row's factor
// wins; every other pair falls back to the generic preferred factor. Never
// cached, the scope differs per call.
func (r *Resolver) buildProductGraph(ctx context.Context, productIDs []int64) (*Graph, error) {
	units, err := r.store.GenericUnits(ctx)
	if err != nil {
		return nil, err
	}
	var productRows []UnitConversion
	for _, pid := range productIDs {
		pid := pid
		rows, err := r.source.SelectDirectConversions(ctx, &pid)
		if err != nil {
			return nil, err
		}
		productRows = append(productRows, rows...)
	}

	nodeSet := make(map[int64]struct{}, len(units))
	for _, u := range units {
		nodeSet[u.UnitID] = struct{}{}
	}
	for _, row := range productRows {
		nodeSet[row.FromUnitID] = struct{}{}
		nodeSet[row.ToUnitID] = struct{}{}
	}
	ids := make([]int64, 0, len(nodeSet))
	for id := range nodeSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	g := NewGraph()
	for _, id := range ids {
		g.AddNode(id)
	}
	for _, from := range ids {
		for _, to := range ids {
			if from == to {
				continue
			}
			if factor, ok := factorFromRows(productRows, from, to); ok {
				g.AddEdge(from, to, factor)
				continue
			}
			factor, ok, err := r.PreferredDirectFactor(ctx, from, to)
			if err != nil {
				return nil, err
			}
			if ok {
				g.AddEdge(from, to, factor)
			}
		}
	}
	return g, nil
}
