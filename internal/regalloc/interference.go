package regalloc

import "github.com/msiegel/substratum-sub000/internal/ir"

// Graph is an undirected interference graph over operand names. Edge
// insertion is idempotent and symmetric, and a value never interferes with
// itself (spec.md §8 invariant 6: "edges are symmetric and irreflexive").
type Graph struct {
	edges map[ir.ValueId]map[ir.ValueId]bool
	order []ir.ValueId
}

// NewGraph returns an empty interference graph.
func NewGraph() *Graph {
	return &Graph{edges: map[ir.ValueId]map[ir.ValueId]bool{}}
}

// addNode registers v as present in the graph even if it never gains an
// edge, so an operand alone in its block's lifetime set still gets colored.
func (g *Graph) addNode(v ir.ValueId) {
	if _, ok := g.edges[v]; !ok {
		g.edges[v] = map[ir.ValueId]bool{}
		g.order = append(g.order, v)
	}
}

// AddEdge records that a and b interfere. A self-edge is a no-op.
func (g *Graph) AddEdge(a, b ir.ValueId) {
	g.addNode(a)
	g.addNode(b)
	if a == b {
		return
	}
	g.edges[a][b] = true
	g.edges[b][a] = true
}

// Interferes reports whether a and b share an edge.
func (g *Graph) Interferes(a, b ir.ValueId) bool {
	return g.edges[a][b]
}

// Neighbors returns the values interfering with v.
func (g *Graph) Neighbors(v ir.ValueId) []ir.ValueId {
	neighbors := make([]ir.ValueId, 0, len(g.edges[v]))
	for n := range g.edges[v] {
		neighbors = append(neighbors, n)
	}
	return neighbors
}

// Degree returns the number of values interfering with v.
func (g *Graph) Degree(v ir.ValueId) int { return len(g.edges[v]) }

// Nodes returns every value known to the graph, in first-seen order.
func (g *Graph) Nodes() []ir.ValueId {
	nodes := make([]ir.ValueId, len(g.order))
	copy(nodes, g.order)
	return nodes
}

// BuildGraph groups lifetimes by block and, for every statement index,
// connects every pair of lifetimes live at that index (spec.md §4.8 step 2).
func BuildGraph(lifetimes []Lifetime) *Graph {
	g := NewGraph()

	byBlock := map[int][]Lifetime{}
	for _, lt := range lifetimes {
		g.addNode(lt.Value)
		byBlock[lt.Block] = append(byBlock[lt.Block], lt)
	}

	for _, block := range byBlock {
		for i := 0; i < len(block); i++ {
			for j := i + 1; j < len(block); j++ {
				if overlaps(block[i], block[j]) {
					g.AddEdge(block[i].Value, block[j].Value)
				}
			}
		}
	}

	return g
}

func overlaps(a, b Lifetime) bool {
	return a.Start <= b.End && b.Start <= a.End
}
