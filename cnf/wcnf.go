package cnf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/amcframework/amc/semiring"
	"github.com/amcframework/amc/util"
)

var (
	// ErrWeightOverflow is returned when the quantized top weight reaches 2^63
	ErrWeightOverflow = errors.New("maxsat top weight exceeds 2^63")
	// ErrUnsupportedReduction is returned for semirings without a maxsat mapping
	ErrUnsupportedReduction = errors.New("semiring does not reduce to maxsat")
)

// MaxSATReduction is a weighted CNF quantized onto integer weights.
// HardUnits holds literals that must be true. Soft maps a literal to the
// scaled weight of its soft unit clause, at most one per variable.
type MaxSATReduction struct {
	HardUnits []int
	Soft      map[int]int64
	Top       int64
}

// SATOnly reports whether no soft weights survived, in which case the
// instance is answered by a plain SAT query instead of a MaxSAT call
func (r *MaxSATReduction) SATOnly() bool {
	return len(r.Soft) == 0
}

// ReduceToMaxSAT maps the weights of a single idempotent semiring onto a
// common additive scale and quantizes them to integers. The precision is the
// number of significant digits the smallest surviving weight keeps.
func (c *CNF) ReduceToMaxSAT(precision int) (*MaxSATReduction, error) {
	if len(c.Semirings) != 1 {
		return nil, ErrUnsupportedReduction
	}
	rw := make(map[int]float64, len(c.Weights))
	switch c.Semirings[0].(type) {
	case semiring.MaxPlus, semiring.MaxPlusDecisions:
		for lit, vec := range c.Weights {
			rw[lit] = vec[0].Float()
		}
	case semiring.MaxTimes, semiring.MaxTimesDecisions:
		// move onto the additive scale, weight 0 becomes -inf
		for lit, vec := range c.Weights {
			w := vec[0].Float()
			if w > 0 {
				rw[lit] = math.Log(w)
			} else {
				rw[lit] = math.Inf(-1)
			}
		}
	case semiring.MinPlus:
		// minimization becomes maximization by negating, +inf becomes -inf
		for lit, vec := range c.Weights {
			w := vec[0].Float()
			if math.IsInf(w, 1) {
				rw[lit] = math.Inf(-1)
			} else {
				rw[lit] = -w
			}
		}
	default:
		return nil, ErrUnsupportedReduction
	}

	// variables with equal weights on both phases cannot change the optimum
	for lit, w := range rw {
		if neg, ok := rw[-lit]; ok && lit > 0 && neg == w {
			delete(rw, lit)
			delete(rw, -lit)
		}
	}

	// a -inf literal can never be part of an optimal model
	red := &MaxSATReduction{Soft: make(map[int]int64)}
	for lit, w := range rw {
		if math.IsInf(w, -1) {
			red.HardUnits = append(red.HardUnits, -lit)
			delete(rw, lit)
		}
	}

	// leave each variable exactly one soft unit clause of positive weight
	for v := 1; v <= c.NrVars; v++ {
		wp, hasP := rw[v]
		wn, hasN := rw[-v]
		switch {
		case hasP && hasN:
			if wp < wn {
				rw[-v] = wn - wp
				delete(rw, v)
			} else {
				rw[v] = wp - wn
				delete(rw, -v)
			}
		case hasP && wp < 0:
			rw[-v] = -wp
			delete(rw, v)
		case hasN && wn < 0:
			rw[v] = -wn
			delete(rw, -v)
		}
	}

	// smallest power of ten scale keeping `precision` significant digits of
	// the smallest surviving weight
	maxExp := 0
	for _, w := range rw {
		if w > 0 {
			maxExp = util.Max(maxExp, int(math.Ceil(-math.Log10(w))))
		}
	}
	scale := math.Pow(10, float64(precision+maxExp))
	threshold := math.Pow(0.1, float64(precision+maxExp))
	var gcd int64
	for lit, w := range rw {
		if math.Abs(w) < threshold {
			continue
		}
		scaled := math.Floor(w * scale)
		if scaled >= math.Exp2(63) {
			return nil, ErrWeightOverflow
		}
		red.Soft[lit] = int64(scaled)
		gcd = gcdInt64(gcd, int64(scaled))
	}
	sum := big.NewInt(0)
	for lit := range red.Soft {
		red.Soft[lit] /= gcd
		sum.Add(sum, big.NewInt(red.Soft[lit]))
	}
	sum.Add(sum, big.NewInt(2))
	if sum.Cmp(new(big.Int).Lsh(big.NewInt(1), 63)) >= 0 {
		return nil, ErrWeightOverflow
	}
	red.Top = sum.Int64()
	if red.SATOnly() {
		red.Top = 2
	}
	return red, nil
}

// WriteWCNF emits the reduction in DIMACS WCNF form, the original clauses and
// the forced units as hard clauses and the surviving weights as soft units
func (c *CNF) WriteWCNF(w io.Writer, red *MaxSATReduction) error {
	bw := bufio.NewWriter(w)
	nrClauses := len(c.Clauses) + len(red.HardUnits) + len(red.Soft)
	fmt.Fprintf(bw, "p wcnf %d %d %d\n", c.NrVars, nrClauses, red.Top)
	for _, clause := range c.Clauses {
		fmt.Fprintf(bw, "%d ", red.Top)
		for _, lit := range clause {
			fmt.Fprintf(bw, "%d ", lit)
		}
		fmt.Fprintln(bw, "0")
	}
	for _, lit := range red.HardUnits {
		fmt.Fprintf(bw, "%d %d 0\n", red.Top, lit)
	}
	for v := 1; v <= c.NrVars; v++ {
		for _, lit := range []int{v, -v} {
			if weight, ok := red.Soft[lit]; ok {
				fmt.Fprintf(bw, "%d %d 0\n", weight, lit)
			}
		}
	}
	return bw.Flush()
}

// WriteKC emits the self-weighted form the sharpsat-td compiler expects,
// every literal is annotated with itself
func (c *CNF) WriteKC(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "p cnf %d %d\n", c.NrVars, len(c.Clauses))
	for _, clause := range c.Clauses {
		for _, lit := range clause {
			fmt.Fprintf(bw, "%d ", lit)
		}
		fmt.Fprintln(bw, "0")
	}
	for v := 1; v <= c.NrVars; v++ {
		fmt.Fprintf(bw, "c p weight %d %d 0\n", v, v)
		fmt.Fprintf(bw, "c p weight %d %d 0\n", -v, -v)
	}
	return bw.Flush()
}

// NonContributingVars returns the variables whose positive and negative weight
// vectors coincide
func (c *CNF) NonContributingVars() []int {
	var vars []int
	for v := 1; v <= c.NrVars; v++ {
		if !c.contributes(v) {
			vars = append(vars, v)
		}
	}
	return vars
}

// ContributingVars returns the variables whose phases carry different weights
func (c *CNF) ContributingVars() []int {
	var vars []int
	for v := 1; v <= c.NrVars; v++ {
		if c.contributes(v) {
			vars = append(vars, v)
		}
	}
	return vars
}

func (c *CNF) contributes(v int) bool {
	pos, hasPos := c.Weights[v]
	neg, hasNeg := c.Weights[-v]
	if !hasPos || !hasNeg {
		return hasPos != hasNeg
	}
	sr := c.LevelSemiring(v)
	for q := range pos {
		if !sr.Eq(pos[q], neg[q]) {
			return true
		}
	}
	return false
}

func gcdInt64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return util.Abs(a)
}
