package cnf

import (
	"github.com/amcframework/amc/semiring"
)

// EvaluateTrivial removes trivial clauses and then checks for the two trivial
// cases: no clauses left, in which case the value is the product over all
// variables of weight(v)+weight(-v), and unsatisfiability, in which case the
// value is the zero of the outer semiring. It returns nil when neither applies.
func (c *CNF) EvaluateTrivial() ([]semiring.Value, error) {
	c.RemoveTrivialClauses()
	if len(c.Clauses) == 0 {
		if c.NrVars == 0 {
			_, _, one, _ := c.WeightsView()
			return []semiring.Value{one}, nil
		}
		if len(c.Semirings) == 2 {
			return c.trivialTwo()
		}
		weights, _, one, sr := c.WeightsView()
		queries := c.QueryCount()
		res := make([]semiring.Value, queries)
		for q := range res {
			res[q] = one
		}
		for v := 1; v <= c.NrVars; v++ {
			for q := range res {
				sum := sr.Add(weights[weightIndex(v)][q], weights[weightIndex(-v)][q])
				res[q] = sr.Mul(res[q], sum)
			}
		}
		return res, nil
	}
	if !c.IsSat() {
		_, zero, _, _ := c.WeightsView()
		queries := c.QueryCount()
		res := make([]semiring.Value, queries)
		for q := range res {
			res[q] = zero
		}
		return res, nil
	}
	return nil, nil
}

// trivialTwo multiplies out the inner level, folds it through the transform
// and multiplies out the outer level
func (c *CNF) trivialTwo() ([]semiring.Value, error) {
	weights, _, _, _ := c.WeightsView()
	queries := c.QueryCount()
	outer, inner := c.Semirings[0], c.Semirings[1]

	res := make([]semiring.Value, queries)
	for q := range res {
		res[q] = inner.One()
	}
	for v := 1; v <= c.NrVars; v++ {
		if c.Level(v) == 0 {
			continue
		}
		for q := range res {
			sum := inner.Add(weights[weightIndex(v)][q], weights[weightIndex(-v)][q])
			res[q] = inner.Mul(res[q], sum)
		}
	}
	for q := range res {
		folded, err := c.Transform.Apply(outer, res[q])
		if err != nil {
			return nil, err
		}
		res[q] = folded
	}
	for v := 1; v <= c.NrVars; v++ {
		if c.Level(v) != 0 {
			continue
		}
		for q := range res {
			sum := outer.Add(weights[weightIndex(v)][q], weights[weightIndex(-v)][q])
			res[q] = outer.Mul(res[q], sum)
		}
	}
	return res, nil
}
