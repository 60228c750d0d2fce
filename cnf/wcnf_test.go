package cnf

import (
	"errors"
	"sort"
	"strings"
	"testing"
)

const maxplusInstance = `p cnf 3 1
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

func TestReduceToMaxSATMaxPlus(t *testing.T) {
	c, err := Parse(strings.NewReader(maxplusInstance))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	if len(red.HardUnits) != 1 || red.HardUnits[0] != -3 {
		t.Errorf("a -inf literal must become a negated hard unit, got %v", red.HardUnits)
	}
	if len(red.Soft) != 1 {
		t.Fatalf("expected one soft unit, got %v", red.Soft)
	}
	if red.Soft[1] != 1 {
		t.Errorf("soft weight of literal 1 is %d, want 1 after the gcd step", red.Soft[1])
	}
	if red.Top != 3 {
		t.Errorf("top weight is %d, want 3", red.Top)
	}
	if red.SATOnly() {
		t.Errorf("a reduction with soft weights is not SAT only")
	}
}

func TestReduceToMaxSATEqualPhases(t *testing.T) {
	input := `p cnf 1 1
1 0
c p weight 1 5 0
c p weight -1 5 0
c p semirings maxplus 0
c p quantify 1 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	if !red.SATOnly() {
		t.Errorf("equal phases cannot change the optimum, got %v", red.Soft)
	}
	if red.Top != 2 {
		t.Errorf("a SAT only reduction has top 2, got %d", red.Top)
	}
}

func TestReduceToMaxSATMaxTimesZeroWeight(t *testing.T) {
	input := `p cnf 1 1
1 0
c p weight 1 1 0
c p weight -1 0 0
c p semirings maxtimes 0
c p quantify 1 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	if len(red.HardUnits) != 1 || red.HardUnits[0] != 1 {
		t.Errorf("a maxtimes weight of 0 must force the opposite literal, got %v", red.HardUnits)
	}
	if !red.SATOnly() {
		t.Errorf("expected a SAT only reduction, got %v", red.Soft)
	}
}

func TestReduceToMaxSATMinPlus(t *testing.T) {
	input := `p cnf 1 1
1 -1 0
c p weight 1 3 0
c p weight -1 1 0
c p semirings minplus 0
c p quantify 1 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	// minimizing 3 vs 1 becomes maximizing, the cheaper phase keeps the
	// difference as its reward
	if len(red.Soft) != 1 || red.Soft[-1] == 0 {
		t.Fatalf("expected a single soft unit on -1, got %v", red.Soft)
	}
	if red.Soft[-1] != 1 {
		t.Errorf("soft weight is %d, want 1 after the gcd step", red.Soft[-1])
	}
}

func TestReduceToMaxSATQuantization(t *testing.T) {
	input := `p cnf 2 1
1 2 0
c p weight 1 0.25 0
c p weight -1 0 0
c p weight 2 0.75 0
c p weight -2 0 0
c p semirings maxplus 0
c p quantify 1 2 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	if red.Soft[1] != 1 || red.Soft[2] != 3 {
		t.Errorf("quantized weights are %v, want 1 and 3", red.Soft)
	}
	if red.Top != 6 {
		t.Errorf("top weight is %d, want soft sum plus 2", red.Top)
	}
}

func TestReduceToMaxSATOverflow(t *testing.T) {
	input := `p cnf 1 1
1 0
c p weight 1 1e12 0
c p weight -1 0 0
c p semirings maxplus 0
c p quantify 1 0
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	if _, err := c.ReduceToMaxSAT(8); !errors.Is(err, ErrWeightOverflow) {
		t.Errorf("expected ErrWeightOverflow, got %v", err)
	}
}

func TestReduceToMaxSATUnsupported(t *testing.T) {
	c, err := Parse(strings.NewReader(probInstance))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	if _, err := c.ReduceToMaxSAT(8); !errors.Is(err, ErrUnsupportedReduction) {
		t.Errorf("expected ErrUnsupportedReduction, got %v", err)
	}
}

func TestWriteWCNF(t *testing.T) {
	c, err := Parse(strings.NewReader(maxplusInstance))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	red, err := c.ReduceToMaxSAT(8)
	if err != nil {
		t.Fatalf("error reducing: %s", err)
	}
	var sb strings.Builder
	if err := c.WriteWCNF(&sb, red); err != nil {
		t.Fatalf("error writing: %s", err)
	}
	want := "p wcnf 3 3 3\n3 1 2 3 0\n3 -3 0\n1 1 0\n"
	if sb.String() != want {
		t.Errorf("wrote:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestWriteKC(t *testing.T) {
	c, err := Parse(strings.NewReader("p cnf 2 1\n1 2 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	var sb strings.Builder
	if err := c.WriteKC(&sb); err != nil {
		t.Fatalf("error writing: %s", err)
	}
	want := "p cnf 2 1\n1 2 0\nc p weight 1 1 0\nc p weight -1 -1 0\nc p weight 2 2 0\nc p weight -2 -2 0\n"
	if sb.String() != want {
		t.Errorf("wrote:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestContributingVars(t *testing.T) {
	c, err := Parse(strings.NewReader(maxplusInstance))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	contributing := c.ContributingVars()
	sort.Ints(contributing)
	if len(contributing) != 2 || contributing[0] != 1 || contributing[1] != 3 {
		t.Errorf("contributing vars are %v, want [1 3]", contributing)
	}
	non := c.NonContributingVars()
	if len(non) != 1 || non[0] != 2 {
		t.Errorf("non-contributing vars are %v, want [2]", non)
	}
}
