package backend

import (
	"bufio"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/crillab/gophersat/maxsat"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
)

// MaxSATSolver finds an optimal total assignment for a quantized reduction,
// sat is false when the hard clauses are unsatisfiable
type MaxSATSolver interface {
	Solve(c *cnf.CNF, red *cnf.MaxSATReduction) (model []int, sat bool, err error)
}

// NewMaxSATSolver returns the configured MaxSAT solver
func NewMaxSATSolver(cfg *config.Config, grd *guard.Guard) (MaxSATSolver, error) {
	if cfg.MaxSATSolver == config.Builtin {
		return builtinMaxSAT{}, nil
	}
	return &externalMaxSAT{path: resolve(cfg, cfg.MaxSATSolver), grd: grd}, nil
}

// builtinMaxSAT solves in process. The clauses and forced units are hard
// constraints, every surviving soft unit keeps its quantized weight.
type builtinMaxSAT struct{}

func (builtinMaxSAT) Solve(c *cnf.CNF, red *cnf.MaxSATReduction) ([]int, bool, error) {
	constrs := make([]maxsat.Constr, 0, len(c.Clauses)+len(red.HardUnits)+len(red.Soft))
	for _, clause := range c.Clauses {
		lits := make([]maxsat.Lit, len(clause))
		for i, lit := range clause {
			lits[i] = maxsatLit(lit)
		}
		constrs = append(constrs, maxsat.HardClause(lits...))
	}
	for _, lit := range red.HardUnits {
		constrs = append(constrs, maxsat.HardClause(maxsatLit(lit)))
	}
	for lit, weight := range red.Soft {
		constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{maxsatLit(lit)}, int(weight)))
	}
	pb := maxsat.New(constrs...)
	solution, _ := pb.Solve()
	if solution == nil {
		return nil, false, nil
	}
	model := make([]int, c.NrVars)
	for v := 1; v <= c.NrVars; v++ {
		if solution[strconv.Itoa(v)] {
			model[v-1] = v
		} else {
			model[v-1] = -v
		}
	}
	return model, true, nil
}

func maxsatLit(lit int) maxsat.Lit {
	if lit > 0 {
		return maxsat.Var(strconv.Itoa(lit))
	}
	return maxsat.Var(strconv.Itoa(-lit)).Negation()
}

// externalMaxSAT drives an EvalMaxSAT style binary on a WCNF file and streams
// its stdout. The status line decides the outcome, OPTIMUM FOUND waits for the
// model, UNKNOWN and a bare SATISFIABLE mean the run was cut short.
type externalMaxSAT struct {
	path string
	grd  *guard.Guard
}

func (s *externalMaxSAT) Solve(c *cnf.CNF, red *cnf.MaxSATReduction) ([]int, bool, error) {
	wcnfPath, err := s.grd.TempFile("maxsat-*.wcnf")
	if err != nil {
		return nil, false, err
	}
	defer s.grd.Remove(wcnfPath)
	f, err := os.Create(wcnfPath)
	if err != nil {
		return nil, false, err
	}
	if err := c.WriteWCNF(f, red); err != nil {
		f.Close()
		return nil, false, err
	}
	if err := f.Close(); err != nil {
		return nil, false, err
	}

	cmd := exec.Command(s.path, wcnfPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, false, err
	}
	if err := cmd.Start(); err != nil {
		return nil, false, err
	}
	s.grd.Track(cmd)
	defer s.grd.Untrack(cmd)
	defer cmd.Wait()

	name := s.path
	var model []int
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "s "):
			switch strings.TrimSpace(line[2:]) {
			case "OPTIMUM FOUND":
			case "UNSATISFIABLE":
				return nil, false, nil
			case "UNKNOWN":
				return nil, false, &SolvingError{Cmd: name, Reason: "solver returned UNKNOWN"}
			case "SATISFIABLE":
				return nil, false, &SolvingError{Cmd: name, Reason: "solver returned SATISFIABLE, probably interrupted"}
			}
		case strings.HasPrefix(line, "v "):
			m, err := parseValueLine(line[2:], c.NrVars)
			if err != nil {
				return nil, false, err
			}
			model = m
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	if model == nil {
		return nil, false, ErrNoModel
	}
	return model, true, nil
}

// parseValueLine accepts both model conventions, a single 0/1 bitstring over
// all variables and a list of signed literals
func parseValueLine(body string, nrVars int) ([]int, error) {
	fields := strings.Fields(body)
	if len(fields) == 1 && len(fields[0]) == nrVars && strings.Trim(fields[0], "01") == "" {
		model := make([]int, nrVars)
		for v := 1; v <= nrVars; v++ {
			if fields[0][v-1] == '1' {
				model[v-1] = v
			} else {
				model[v-1] = -v
			}
		}
		return model, nil
	}
	model := make([]int, 0, len(fields))
	for _, field := range fields {
		lit, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		if lit == 0 {
			break
		}
		model = append(model, lit)
	}
	return model, nil
}
