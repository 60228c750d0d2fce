package backend

import (
	"strings"
	"testing"

	"github.com/amcframework/amc/cnf"
)

const optInstance = `p cnf 3 1
1 2 3 0
c p weight 1 2 0
c p weight -1 0 0
c p weight 2 1 0
c p weight -2 1 0
c p weight 3 -inf 0
c p weight -3 0 0
c p semirings maxplus 0
c p quantify 1 2 3 0
`

func TestBuiltinMaxSAT(t *testing.T) {
	c, err := cnf.Parse(strings.NewReader(optInstance))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	model, sat, err := builtinMaxSAT{}.Solve(c, red)
	if err != nil {
		t.Fatalf("error solving: %s", err)
	}
	if !sat {
		t.Fatalf("satisfiable reduction reported unsatisfiable")
	}
	if len(model) != 3 {
		t.Fatalf("model has %d literals, want 3", len(model))
	}
	if model[0] != 1 {
		t.Errorf("the optimum sets variable 1, model %v", model)
	}
	if model[2] != -3 {
		t.Errorf("the hard unit forces variable 3 to false, model %v", model)
	}
	vals := c.FoldModel(model)
	if got := vals[0].Float(); got != 3 {
		t.Errorf("optimal weight is %f, want 3", got)
	}
}

func TestBuiltinMaxSATUnsat(t *testing.T) {
	input := `p cnf 1 2
1 0
-1 0
c p weight 1 1 0
c p weight -1 0 0
c p semirings maxplus 0
c p quantify 1 0
`
	c, err := cnf.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	_, sat, err := builtinMaxSAT{}.Solve(c, red)
	if err != nil {
		t.Fatalf("error solving: %s", err)
	}
	if sat {
		t.Errorf("contradictory hard clauses reported satisfiable")
	}
}

func TestParseValueLine(t *testing.T) {
	bitstring, err := parseValueLine("101", 3)
	if err != nil {
		t.Fatalf("error parsing bitstring: %s", err)
	}
	if len(bitstring) != 3 || bitstring[0] != 1 || bitstring[1] != -2 || bitstring[2] != 3 {
		t.Errorf("bitstring parsed as %v", bitstring)
	}

	literals, err := parseValueLine("1 -2 3 0", 3)
	if err != nil {
		t.Fatalf("error parsing literal list: %s", err)
	}
	if len(literals) != 3 || literals[1] != -2 {
		t.Errorf("literal list parsed as %v", literals)
	}

	if _, err := parseValueLine("1 x 0", 3); err == nil {
		t.Errorf("expected an error for a malformed value line")
	}
}
