package backend

import (
	"bufio"
	"io"
	"os/exec"
	"strings"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/semiring"
)

// CircuitEvaluator folds the weights of a formula over a compiled circuit
type CircuitEvaluator interface {
	Evaluate(circuitPath string, c *cnf.CNF) ([]semiring.Value, error)
}

// NewCircuitEvaluator returns the configured circuit evaluator
func NewCircuitEvaluator(cfg *config.Config, grd *guard.Guard) (CircuitEvaluator, error) {
	if cfg.CircuitEvaluator == config.Builtin {
		return builtinEvaluator{}, nil
	}
	return &externalEvaluator{path: resolve(cfg, cfg.CircuitEvaluator), grd: grd}, nil
}

// builtinEvaluator parses the circuit and evaluates it in process
type builtinEvaluator struct{}

func (builtinEvaluator) Evaluate(circuitPath string, c *cnf.CNF) ([]semiring.Value, error) {
	circ, err := ParseCircuitFile(circuitPath)
	if err != nil {
		return nil, err
	}
	return circ.Evaluate(c)
}

// externalEvaluator hands the circuit and the annotated formula to a binary
// and parses one value per query from its output. Values are read in the
// outermost semiring.
type externalEvaluator struct {
	path string
	grd  *guard.Guard
}

func (e *externalEvaluator) Evaluate(circuitPath string, c *cnf.CNF) ([]semiring.Value, error) {
	cnfPath, err := writeTemp(e.grd, "eval-*.cnf", func(w io.Writer) error {
		return c.Write(w, true)
	})
	if err != nil {
		return nil, err
	}
	defer e.grd.Remove(cnfPath)

	cmd := exec.Command(e.path, circuitPath, cnfPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	e.grd.Track(cmd)
	defer e.grd.Untrack(cmd)

	_, _, _, outer := c.WeightsView()
	var res []semiring.Value
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		v, err := outer.Parse(line)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, exitErr(cmd, err)
	}
	if len(res) != c.QueryCount() {
		return nil, &SolvingError{Cmd: e.path, Reason: "evaluator printed a wrong number of values"}
	}
	return res, nil
}
