package cnf

import (
	"github.com/irifrance/gini"
	"github.com/irifrance/gini/z"
)

// IsSat checks satisfiability of the clauses with the in-process SAT oracle
func (c *CNF) IsSat() bool {
	g := gini.NewV(c.NrVars)
	for _, clause := range c.Clauses {
		for _, lit := range clause {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(0)
	}
	return g.Solve() == 1
}

// SolveSat returns a satisfying total assignment over 1..NrVars, or false
// when the clauses together with the extra unit literals are unsatisfiable
func (c *CNF) SolveSat(units []int) ([]int, bool) {
	g := gini.NewV(c.NrVars)
	for _, clause := range c.Clauses {
		for _, lit := range clause {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(0)
	}
	for _, lit := range units {
		g.Add(z.Dimacs2Lit(lit))
		g.Add(0)
	}
	if g.Solve() != 1 {
		return nil, false
	}
	model := make([]int, c.NrVars)
	for v := 1; v <= c.NrVars; v++ {
		if g.Value(z.Dimacs2Lit(v)) {
			model[v-1] = v
		} else {
			model[v-1] = -v
		}
	}
	return model, true
}
