package cnf

import (
	"math"
	"strings"
	"testing"
)

func TestEvaluateTrivialNoClauses(t *testing.T) {
	input := `p cnf 2 0
c p weight 1 0.4 0
c p weight -1 0.6 0
c p weight 2 0.3 0
c p weight -2 0.7 0
c p semirings probability 0
c p quantify 1 2 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := c.EvaluateTrivial()
	if err != nil {
		t.Fatalf("error evaluating: %s", err)
	}
	if res == nil {
		t.Fatalf("an empty formula is trivial")
	}
	if got := res[0].Float(); math.Abs(got-1) > 1e-9 {
		t.Errorf("product of phase sums is %f, want 1", got)
	}
}

func TestEvaluateTrivialCounting(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 3 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := c.EvaluateTrivial()
	if err != nil {
		t.Fatalf("error evaluating: %s", err)
	}
	if res == nil {
		t.Fatalf("expected a trivial result")
	}
	if got := res[0].Float(); got != 8 {
		t.Errorf("counted %f models over 3 free variables, want 8", got)
	}
}

func TestEvaluateTrivialUnsat(t *testing.T) {
	input := `p cnf 1 2
1 0
-1 0
c p weight 1 0.4 0
c p weight -1 0.6 0
c p semirings probability 0
c p quantify 1 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := c.EvaluateTrivial()
	if err != nil {
		t.Fatalf("error evaluating: %s", err)
	}
	if res == nil {
		t.Fatalf("an unsatisfiable formula is trivial")
	}
	if got := res[0].Float(); got != 0 {
		t.Errorf("unsatisfiable instance evaluated to %f, want 0", got)
	}
}

func TestEvaluateTrivialTrivialClausesOnly(t *testing.T) {
	input := `p cnf 1 1
1 -1 0
c p weight 1 0.4 0
c p weight -1 0.6 0
c p semirings probability 0
c p quantify 1 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := c.EvaluateTrivial()
	if err != nil {
		t.Fatalf("error evaluating: %s", err)
	}
	if res == nil {
		t.Fatalf("a formula of trivial clauses is trivial")
	}
	if got := res[0].Float(); math.Abs(got-1) > 1e-9 {
		t.Errorf("evaluated to %f, want 1", got)
	}
}

func TestEvaluateTrivialTwoLevels(t *testing.T) {
	input := `p cnf 2 0
c p weight 1 0.5 0
c p weight -1 0.5 0
c p weight 2 1,1 0
c p weight -2 1,1 0
c p semirings probability twonat 0
c p transform first/second 0
c p quantify 1 0
c p quantify 2 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := c.EvaluateTrivial()
	if err != nil {
		t.Fatalf("error evaluating: %s", err)
	}
	if res == nil {
		t.Fatalf("expected a trivial result")
	}
	// inner level sums to (2,2), the transform folds it to 1, the outer
	// level multiplies by 0.5 + 0.5
	if got := res[0].Float(); math.Abs(got-1) > 1e-9 {
		t.Errorf("evaluated to %f, want 1", got)
	}
}

func TestEvaluateTrivialNonTrivial(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 2 2\n1 2 0\n-1 -2 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := c.EvaluateTrivial()
	if err != nil {
		t.Fatalf("error evaluating: %s", err)
	}
	if res != nil {
		t.Errorf("a satisfiable constrained formula is not trivial, got %v", res)
	}
}
