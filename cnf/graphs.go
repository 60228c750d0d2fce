package cnf

import (
	"gonum.org/v1/gonum/graph/simple"
)

// Hypergraph is a hypergraph over the variables of a CNF
type Hypergraph struct {
	NrVertices int
	Edges      [][]int
}

// ToGraph expands every hyperedge into a clique
func (h *Hypergraph) ToGraph() *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for v := 1; v <= h.NrVertices; v++ {
		g.AddNode(simple.Node(v))
	}
	for _, edge := range h.Edges {
		for i := 0; i < len(edge); i++ {
			for j := i + 1; j < len(edge); j++ {
				if edge[i] != edge[j] {
					g.SetEdge(simple.Edge{F: simple.Node(edge[i]), T: simple.Node(edge[j])})
				}
			}
		}
	}
	return g
}

// PrimalGraph builds the primal graph of the CNF, the nodes are the variables
// and every clause connects its variables pairwise
func (c *CNF) PrimalGraph() *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for v := 1; v <= c.NrVars; v++ {
		g.AddNode(simple.Node(v))
	}
	for _, clause := range c.Clauses {
		for i := 0; i < len(clause); i++ {
			for j := i + 1; j < len(clause); j++ {
				a, b := abs(clause[i]), abs(clause[j])
				if a != b {
					g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
				}
			}
		}
	}
	return g
}

// PrimalHypergraph builds the primal hypergraph of the CNF, every clause
// contributes one hyperedge over its variables
func (c *CNF) PrimalHypergraph() *Hypergraph {
	h := &Hypergraph{NrVertices: c.NrVars}
	for _, clause := range c.Clauses {
		edge := make([]int, len(clause))
		for i, lit := range clause {
			edge[i] = abs(lit)
		}
		h.Edges = append(h.Edges, edge)
	}
	return h
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
