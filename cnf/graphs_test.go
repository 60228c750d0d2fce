package cnf

import (
	"strings"
	"testing"
)

func TestPrimalGraph(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 4 2\n1 2 3 0\n3 4 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	g := c.PrimalGraph()
	if got := g.Nodes().Len(); got != 4 {
		t.Errorf("primal graph has %d nodes, want 4", got)
	}
	// the triangle 1-2-3 plus the edge 3-4
	if got := g.Edges().Len(); got != 4 {
		t.Errorf("primal graph has %d edges, want 4", got)
	}
	if !g.HasEdgeBetween(1, 2) || !g.HasEdgeBetween(3, 4) {
		t.Errorf("expected clause variables to be pairwise connected")
	}
	if g.HasEdgeBetween(1, 4) {
		t.Errorf("variables 1 and 4 share no clause")
	}
}

func TestPrimalGraphIgnoresSelfLoops(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 2 1\n1 -1 2 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	g := c.PrimalGraph()
	if got := g.Edges().Len(); got != 1 {
		t.Errorf("primal graph has %d edges, want 1", got)
	}
}

func TestPrimalHypergraph(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 3 2\n1 -2 0\n2 3 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	h := c.PrimalHypergraph()
	if h.NrVertices != 3 {
		t.Errorf("hypergraph has %d vertices, want 3", h.NrVertices)
	}
	if len(h.Edges) != 2 {
		t.Fatalf("hypergraph has %d edges, want 2", len(h.Edges))
	}
	if h.Edges[0][1] != 2 {
		t.Errorf("hyperedges must use variables, got %v", h.Edges[0])
	}
	g := h.ToGraph()
	if got := g.Edges().Len(); got != 2 {
		t.Errorf("clique expansion has %d edges, want 2", got)
	}
}
