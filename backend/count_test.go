package backend

import (
	"math"
	"strings"
	"testing"

	"github.com/amcframework/amc/cnf"
)

func TestEnumeratorModelCount(t *testing.T) {
	c, err := cnf.Parse(strings.NewReader("p cnf 2 1\n1 2 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := enumerator{}.Count(c)
	if err != nil {
		t.Fatalf("error counting: %s", err)
	}
	if got := res[0].Float(); got != 3 {
		t.Errorf("counted %f models, want 3", got)
	}
}

func TestEnumeratorWeighted(t *testing.T) {
	input := `p cnf 2 2
1 2 0
-1 -2 0
c p weight 1 0.4 0
c p weight -1 0.6 0
c p weight 2 0.3 0
c p weight -2 0.7 0
c p semirings probability 0
c p quantify 1 2 0
`
	c, err := cnf.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := enumerator{}.Count(c)
	if err != nil {
		t.Fatalf("error counting: %s", err)
	}
	want := 0.4*0.7 + 0.6*0.3
	if got := res[0].Float(); math.Abs(got-want) > 1e-9 {
		t.Errorf("weighted count is %f, want %f", got, want)
	}
}

func TestEnumeratorUnsat(t *testing.T) {
	c, err := cnf.Parse(strings.NewReader("p cnf 1 2\n1 0\n-1 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := enumerator{}.Count(c)
	if err != nil {
		t.Fatalf("error counting: %s", err)
	}
	if got := res[0].Float(); got != 0 {
		t.Errorf("unsatisfiable formula counted %f, want 0", got)
	}
}

func TestEnumeratorTwoLevels(t *testing.T) {
	input := `p cnf 2 1
1 2 0
c p weight 1 0.4 0
c p weight -1 0.6 0
c p weight 2 1,1 0
c p weight -2 1,1 0
c p semirings probability twonat 0
c p transform first/second 0
c p quantify 1 0
c p quantify 2 0
`
	c, err := cnf.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := enumerator{}.Count(c)
	if err != nil {
		t.Fatalf("error counting: %s", err)
	}
	// under true both completions count, (2,2) folds to 1, under false the
	// single completion folds to 1 as well
	if got := res[0].Float(); math.Abs(got-1) > 1e-9 {
		t.Errorf("two level count is %f, want 1", got)
	}
}

func TestParseCountLine(t *testing.T) {
	input := `p cnf 1 1
1 -1 0
c p weight 1 0.25;0.5 0
c p weight -1 0.75;0.5 0
c p semirings probability 0
c p quantify 1 0
`
	c, err := cnf.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := parseCountLine(c, "0.25;0.5")
	if err != nil {
		t.Fatalf("error parsing count line: %s", err)
	}
	if len(res) != 2 || res[0].Float() != 0.25 || res[1].Float() != 0.5 {
		t.Errorf("count line parsed as %v", res)
	}
	if _, err := parseCountLine(c, "0.25"); err == nil {
		t.Errorf("expected an error for a short value list")
	}
}

func TestEnumeratorMultipleQueries(t *testing.T) {
	input := `p cnf 1 1
1 -1 0
c p weight 1 0.25;0.5 0
c p weight -1 0.75;0.5 0
c p semirings probability 0
c p quantify 1 0
`
	c, err := cnf.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	res, err := enumerator{}.Count(c)
	if err != nil {
		t.Fatalf("error counting: %s", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected one value per query, got %d", len(res))
	}
	if math.Abs(res[0].Float()-1) > 1e-9 || math.Abs(res[1].Float()-1) > 1e-9 {
		t.Errorf("query values are %f and %f, want 1 and 1", res[0].Float(), res[1].Float())
	}
}
