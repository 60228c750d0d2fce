package backend

import (
	"bufio"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/irifrance/gini"
	"github.com/irifrance/gini/z"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/semiring"
	"github.com/amcframework/amc/util"
)

// Counter computes the algebraic model count of a formula directly, without a
// circuit on disk
type Counter interface {
	Count(c *cnf.CNF) ([]semiring.Value, error)
}

// NewCounter returns the configured direct counter: an external exact
// weighted counter when one is set and external counters are admissible for
// the caller, otherwise the builtin enumerator or a live adapter around a
// streaming compiler
func NewCounter(cfg *config.Config, grd *guard.Guard, external bool) (Counter, error) {
	if external && cfg.Counter != "" {
		return &externalCounter{path: resolve(cfg, cfg.Counter), grd: grd}, nil
	}
	if cfg.KnowledgeCompiler == config.Builtin {
		return enumerator{}, nil
	}
	if cfg.KnowledgeCompiler == "sharpsat-td-live" {
		return &liveCounter{path: resolve(cfg, filepath.Join("sharpsat-td", "bin", "sharpSAT")), decot: util.Max(cfg.DecompositionTimeout, 0.1), grd: grd}, nil
	}
	return nil, ErrUnknownBackend
}

// enumerator sums the weights of every model with the in-process oracle,
// blocking each model after it is found. With two semirings the models are
// grouped by their outer level projection so the transform is applied once
// per outer assignment.
type enumerator struct{}

func (enumerator) Count(c *cnf.CNF) ([]semiring.Value, error) {
	if len(c.Semirings) == 2 {
		return countTwo(c)
	}
	_, zero, _, sr := c.WeightsView()
	queries := c.QueryCount()
	res := make([]semiring.Value, queries)
	for q := range res {
		res[q] = zero
	}
	err := enumerate(c, func(model []int) error {
		vals := c.FoldModel(model)
		for q := range res {
			res[q] = sr.Add(res[q], vals[q])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func countTwo(c *cnf.CNF) ([]semiring.Value, error) {
	weights, _, _, outer := c.WeightsView()
	inner := c.Semirings[1]
	queries := c.QueryCount()

	var outerVars []int
	for v := 1; v <= c.NrVars; v++ {
		if c.Level(v) == 0 {
			outerVars = append(outerVars, v)
		}
	}

	type group struct {
		outerLits []int
		inner     []semiring.Value
	}
	groups := make(map[string]*group)
	err := enumerate(c, func(model []int) error {
		key := make([]byte, 0, len(outerVars))
		lits := make([]int, 0, len(outerVars))
		for _, v := range outerVars {
			lit := model[v-1]
			lits = append(lits, lit)
			if lit > 0 {
				key = append(key, '1')
			} else {
				key = append(key, '0')
			}
		}
		g, ok := groups[string(key)]
		if !ok {
			g = &group{outerLits: lits, inner: make([]semiring.Value, queries)}
			for q := range g.inner {
				g.inner[q] = inner.Zero()
			}
			groups[string(key)] = g
		}
		// inner product of the model restricted to the inner level
		for q := 0; q < queries; q++ {
			prod := inner.One()
			for _, lit := range model {
				if c.Level(util.Abs(lit)) == 0 {
					continue
				}
				prod = inner.Mul(prod, weights[weightIndex(lit)][q])
			}
			g.inner[q] = inner.Add(g.inner[q], prod)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := make([]semiring.Value, queries)
	for q := range res {
		res[q] = outer.Zero()
	}
	for _, g := range groups {
		for q := 0; q < queries; q++ {
			folded, err := c.Transform.Apply(outer, g.inner[q])
			if err != nil {
				return nil, err
			}
			val := folded
			for _, lit := range g.outerLits {
				val = outer.Mul(val, weights[weightIndex(lit)][q])
			}
			res[q] = outer.Add(res[q], val)
		}
	}
	return res, nil
}

// enumerate calls visit for every model of the clauses, total over 1..NrVars
func enumerate(c *cnf.CNF, visit func(model []int) error) error {
	g := gini.NewV(c.NrVars)
	for _, clause := range c.Clauses {
		for _, lit := range clause {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(0)
	}
	for g.Solve() == 1 {
		model := make([]int, c.NrVars)
		for v := 1; v <= c.NrVars; v++ {
			if g.Value(z.Dimacs2Lit(v)) {
				model[v-1] = v
			} else {
				model[v-1] = -v
			}
		}
		if err := visit(model); err != nil {
			return err
		}
		for _, lit := range model {
			g.Add(z.Dimacs2Lit(-lit))
		}
		g.Add(0)
	}
	return nil
}

// externalCounter hands the full annotated formula to an exact weighted
// counter binary and reads its result line, values are separated by
// semicolons in the outermost semiring
type externalCounter struct {
	path string
	grd  *guard.Guard
}

const countLinePrefix = "c s exact arb float "

func (e *externalCounter) Count(c *cnf.CNF) ([]semiring.Value, error) {
	cnfPath, err := writeTemp(e.grd, "count-*.cnf", func(w io.Writer) error {
		return c.Write(w, true)
	})
	if err != nil {
		return nil, err
	}
	defer e.grd.Remove(cnfPath)

	cmd := exec.Command(e.path, cnfPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	e.grd.Track(cmd)
	defer e.grd.Untrack(cmd)

	var res []semiring.Value
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, countLinePrefix) {
			continue
		}
		res, err = parseCountLine(c, strings.TrimPrefix(line, countLinePrefix))
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, exitErr(cmd, err)
	}
	if res == nil {
		return nil, &SolvingError{Cmd: e.path, Reason: "counter printed no result line"}
	}
	return res, nil
}

func parseCountLine(c *cnf.CNF, line string) ([]semiring.Value, error) {
	_, _, _, outer := c.WeightsView()
	parts := strings.Split(line, ";")
	if len(parts) != c.QueryCount() {
		return nil, &SolvingError{Reason: "counter printed a wrong number of values"}
	}
	res := make([]semiring.Value, len(parts))
	for i, part := range parts {
		v, err := outer.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

// liveCounter streams the circuit out of a sharpsat-td run and evaluates it
// as it arrives, nothing is kept on disk
type liveCounter struct {
	path  string
	decot float64
	grd   *guard.Guard
}

func (l *liveCounter) Count(c *cnf.CNF) ([]semiring.Value, error) {
	cnfPath, err := writeTemp(l.grd, "count-*.cnf", c.WriteKC)
	if err != nil {
		return nil, err
	}
	defer l.grd.Remove(cnfPath)

	cmd := exec.Command(l.path,
		"-dDNNF", "-decot", strconv.FormatFloat(l.decot, 'f', -1, 64),
		"-decow", "100", "-tmpdir", "/tmp/", "-cs", "3500", cnfPath)
	cmd.Dir = filepath.Dir(l.path)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	l.grd.Track(cmd)
	defer l.grd.Untrack(cmd)

	circ, err := ParseCircuit(stdout)
	if err != nil {
		cmd.Wait()
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, exitErr(cmd, err)
	}
	return circ.Evaluate(c)
}
