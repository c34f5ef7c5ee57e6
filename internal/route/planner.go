package route

import (
	"fmt"
	"math"
)

// Logger is the logging interface used by the planner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Plan is the planner's answer.
type Plan struct {
	// Nodes is the full node sequence with each stop repeated.
	Nodes []string
	Cost  float64
	// Order is the visiting order of the stops.
	Order []string
}

// Planner computes cheapest tours over a Graph.
type Planner struct {
	graph  *Graph
	logger Logger
}

// NewPlanner creates a planner for g.
func NewPlanner(g *Graph) *Planner {
	return &Planner{graph: g, logger: noopLogger{}}
}

// SetLogger sets the logger for planning diagnostics.
func (p *Planner) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// Plan finds the cheapest tour start → every stop → end.
//
// Legs are computed once with Dijkstra (start→stop, stop→end and every
// ordered stop pair); each permutation of stops is then costed from the
// legs. On equal cost the first permutation generated wins.
//
// Returns:
//   - Plan: The concatenated node sequence, cost and stop order
//   - error: ErrUnknownNode, ErrDuplicateStop or ErrNoRoute
func (p *Planner) Plan(start, end string, stops []string) (Plan, error) {
	for _, n := range append([]string{start, end}, stops...) {
		if !p.graph.HasNode(n) {
			return Plan{}, fmt.Errorf("%w: %s", ErrUnknownNode, n)
		}
	}
	seen := make(map[string]bool, len(stops))
	for _, s := range stops {
		if seen[s] {
			return Plan{}, fmt.Errorf("%w: %s", ErrDuplicateStop, s)
		}
		seen[s] = true
	}

	legs, err := p.legs(start, end, stops)
	if err != nil {
		return Plan{}, err
	}

	best := Plan{Cost: math.Inf(1)}
	for _, order := range Permutations(stops) {
		stopsVia := append(append([]string{start}, order...), end)

		var nodes []string
		cost := 0.0
		for i := 0; i+1 < len(stopsVia); i++ {
			leg := legs[legKey{stopsVia[i], stopsVia[i+1]}]
			nodes = append(nodes, leg.Nodes...)
			cost += leg.Cost
		}

		p.logger.Debug("costed order", "order", order, "cost", cost)
		if cost < best.Cost {
			best = Plan{Nodes: nodes, Cost: cost, Order: order}
		}
	}

	p.logger.Info("route planned",
		"start", start,
		"end", end,
		"order", best.Order,
		"cost", best.Cost,
		"nodes", len(best.Nodes),
	)
	return best, nil
}

type legKey struct{ from, to string }

func (p *Planner) legs(start, end string, stops []string) (map[legKey]Path, error) {
	legs := make(map[legKey]Path)
	add := func(from, to string) error {
		path, err := p.graph.ShortestPath(from, to)
		if err != nil {
			return fmt.Errorf("leg %s to %s: %w", from, to, err)
		}
		legs[legKey{from, to}] = path
		return nil
	}

	if len(stops) == 0 {
		if err := add(start, end); err != nil {
			return nil, err
		}
		return legs, nil
	}

	for _, s := range stops {
		if err := add(start, s); err != nil {
			return nil, err
		}
		if err := add(s, end); err != nil {
			return nil, err
		}
		for _, t := range stops {
			if s == t {
				continue
			}
			if err := add(s, t); err != nil {
				return nil, err
			}
		}
	}
	return legs, nil
}

// Permutations returns every ordering of items. The input is not modified
// and no two returned slices share a backing array.
func Permutations(items []string) [][]string {
	if len(items) == 0 {
		return [][]string{{}}
	}

	var out [][]string
	for i, head := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)

		for _, tail := range Permutations(rest) {
			perm := make([]string, 0, len(items))
			perm = append(perm, head)
			perm = append(perm, tail...)
			out = append(out, perm)
		}
	}
	return out
}
