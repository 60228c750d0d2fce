package backend

import (
	"bufio"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
)

// SATSolver decides satisfiability of a formula together with extra unit
// literals and produces a total assignment over 1..NrVars when satisfiable
type SATSolver interface {
	Solve(c *cnf.CNF, units []int) (model []int, sat bool, err error)
}

// NewSATSolver returns the configured SAT solver
func NewSATSolver(cfg *config.Config, grd *guard.Guard) (SATSolver, error) {
	if cfg.SATSolver == config.Builtin {
		return builtinSAT{}, nil
	}
	return &externalSAT{path: resolve(cfg, cfg.SATSolver), grd: grd}, nil
}

// builtinSAT answers through the in-process oracle
type builtinSAT struct{}

func (builtinSAT) Solve(c *cnf.CNF, units []int) ([]int, bool, error) {
	model, sat := c.SolveSat(units)
	return model, sat, nil
}

// externalSAT drives a minisat style binary: the formula goes to a temp file,
// the binary writes SAT or UNSAT and the model to a result file. Exit codes 10
// and 20 are the solver's answers, not failures.
type externalSAT struct {
	path string
	grd  *guard.Guard
}

func (s *externalSAT) Solve(c *cnf.CNF, units []int) ([]int, bool, error) {
	cnfPath, err := s.grd.TempFile("sat-*.cnf")
	if err != nil {
		return nil, false, err
	}
	defer s.grd.Remove(cnfPath)
	resPath, err := s.grd.TempFile("sat-*.res")
	if err != nil {
		return nil, false, err
	}
	defer s.grd.Remove(resPath)

	f, err := os.Create(cnfPath)
	if err != nil {
		return nil, false, err
	}
	bw := bufio.NewWriter(f)
	writeClauses(bw, c, units)
	if err := bw.Flush(); err != nil {
		f.Close()
		return nil, false, err
	}
	if err := f.Close(); err != nil {
		return nil, false, err
	}

	cmd := exec.Command(s.path, cnfPath, resPath)
	s.grd.Track(cmd)
	err = cmd.Run()
	s.grd.Untrack(cmd)
	if err != nil {
		code := cmd.ProcessState.ExitCode()
		if code != 10 && code != 20 {
			return nil, false, exitErr(cmd, err)
		}
	}
	return parseSATResult(resPath)
}

func writeClauses(bw *bufio.Writer, c *cnf.CNF, units []int) {
	bw.WriteString("p cnf " + strconv.Itoa(c.NrVars) + " " + strconv.Itoa(len(c.Clauses)+len(units)) + "\n")
	for _, clause := range c.Clauses {
		for _, lit := range clause {
			bw.WriteString(strconv.Itoa(lit))
			bw.WriteByte(' ')
		}
		bw.WriteString("0\n")
	}
	for _, lit := range units {
		bw.WriteString(strconv.Itoa(lit))
		bw.WriteString(" 0\n")
	}
}

func parseSATResult(path string) ([]int, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	if !scanner.Scan() {
		return nil, false, ErrNoModel
	}
	switch strings.TrimSpace(scanner.Text()) {
	case "UNSAT":
		return nil, false, nil
	case "SAT":
	default:
		return nil, false, ErrNoModel
	}
	if !scanner.Scan() {
		return nil, false, ErrNoModel
	}
	var model []int
	for _, field := range strings.Fields(scanner.Text()) {
		lit, err := strconv.Atoi(field)
		if err != nil {
			return nil, false, err
		}
		if lit == 0 {
			break
		}
		model = append(model, lit)
	}
	return model, true, nil
}
