package route

import (
	"fmt"
	"math"
	"strings"
)

// Arc is a directed road segment.
type Arc struct {
	From   string
	To     string
	Weight float64
	// Entry is the heading in degrees leaving From, Exit the heading arriving at To.
	Entry int
	Exit  int
}

// Path is an ordered node list and its total weight.
type Path struct {
	Nodes []string
	Cost  float64
}

// String formats the path as "A -> B -> C (cost)".
func (p Path) String() string {
	return fmt.Sprintf("%s (%.2f)", strings.Join(p.Nodes, " -> "), p.Cost)
}

// Graph is a directed, weighted graph. Nodes and arcs keep insertion
// order, which makes every search deterministic.
type Graph struct {
	nodes []string
	index map[string]int
	out   [][]Arc
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode adds a node if it is not already present.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
	g.out = append(g.out, nil)
}

// AddArc adds an arc, creating both endpoints as needed.
//
// Returns:
//   - error: ErrDuplicateArc if From→To already exists
func (g *Graph) AddArc(a Arc) error {
	g.AddNode(a.From)
	g.AddNode(a.To)

	i := g.index[a.From]
	for _, existing := range g.out[i] {
		if existing.To == a.To {
			return fmt.Errorf("%w: %s-%s", ErrDuplicateArc, a.From, a.To)
		}
	}
	g.out[i] = append(g.out[i], a)
	return nil
}

// HasNode reports whether name is in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Arcs returns the arcs leaving name, in insertion order.
func (g *Graph) Arcs(name string) []Arc {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	out := make([]Arc, len(g.out[i]))
	copy(out, g.out[i])
	return out
}

// Arc returns the arc from→to.
func (g *Graph) Arc(from, to string) (Arc, error) {
	i, ok := g.index[from]
	if !ok {
		return Arc{}, fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	for _, a := range g.out[i] {
		if a.To == to {
			return a, nil
		}
	}
	return Arc{}, fmt.Errorf("%w: %s-%s", ErrNoArc, from, to)
}

// ShortestPath runs Dijkstra from one node to another.
//
// The frontier is scanned linearly (O(V²)); course graphs are tens of
// nodes. Among equal-cost frontier nodes the earliest-inserted wins.
//
// Returns:
//   - Path: The node sequence including both endpoints
//   - error: ErrUnknownNode or ErrNoRoute
func (g *Graph) ShortestPath(from, to string) (Path, error) {
	src, ok := g.index[from]
	if !ok {
		return Path{}, fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	dst, ok := g.index[to]
	if !ok {
		return Path{}, fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}

	n := len(g.nodes)
	dist := make([]float64, n)
	prev := make([]int, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[src] = 0

	for {
		k := -1
		for i := 0; i < n; i++ {
			if done[i] || math.IsInf(dist[i], 1) {
				continue
			}
			if k == -1 || dist[i] < dist[k] {
				k = i
			}
		}
		if k == -1 {
			return Path{}, fmt.Errorf("%w: %s to %s", ErrNoRoute, from, to)
		}
		if k == dst {
			break
		}
		done[k] = true

		for _, a := range g.out[k] {
			j := g.index[a.To]
			if alt := dist[k] + a.Weight; alt < dist[j] {
				dist[j] = alt
				prev[j] = k
			}
		}
	}

	var nodes []string
	for at := dst; at != -1; at = prev[at] {
		nodes = append(nodes, g.nodes[at])
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return Path{Nodes: nodes, Cost: dist[dst]}, nil
}
