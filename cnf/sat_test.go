package cnf

import (
	"strings"
	"testing"
)

func TestIsSat(t *testing.T) {
	sat, err := Parse(strings.NewReader("p cnf 2 2\n1 2 0\n-1 2 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	if !sat.IsSat() {
		t.Errorf("satisfiable formula reported unsatisfiable")
	}

	unsat, err := Parse(strings.NewReader("p cnf 1 2\n1 0\n-1 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	if unsat.IsSat() {
		t.Errorf("unsatisfiable formula reported satisfiable")
	}
}

func TestSolveSat(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 3 2\n1 2 0\n-1 3 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	model, sat := c.SolveSat(nil)
	if !sat {
		t.Fatalf("satisfiable formula reported unsatisfiable")
	}
	if len(model) != c.NrVars {
		t.Fatalf("model has %d literals, want %d", len(model), c.NrVars)
	}
	assign := make(map[int]bool, len(model))
	for _, lit := range model {
		if lit > 0 {
			assign[lit] = true
		} else {
			assign[-lit] = false
		}
	}
	if !assign[1] && !assign[2] {
		t.Errorf("model %v violates clause 1 2", model)
	}
	if assign[1] && !assign[3] {
		t.Errorf("model %v violates clause -1 3", model)
	}
}

func TestSolveSatWithUnits(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 2 1\n1 2 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	model, sat := c.SolveSat([]int{-1})
	if !sat {
		t.Fatalf("formula with unit -1 should stay satisfiable")
	}
	if model[0] != -1 {
		t.Errorf("unit -1 was not respected, model %v", model)
	}
	if model[1] != 2 {
		t.Errorf("clause 1 2 forces 2, model %v", model)
	}

	if _, sat := c.SolveSat([]int{-1, -2}); sat {
		t.Errorf("units -1 -2 make the formula unsatisfiable")
	}
}
