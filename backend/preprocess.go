package backend

import (
	"bufio"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
)

// Preprocessor simplifies a formula while preserving its algebraic model
// count. The idempotent mode may additionally merge models, it is only sound
// when the single semiring is idempotent.
type Preprocessor interface {
	Preprocess(c *cnf.CNF, idempotent bool) (*cnf.CNF, error)
}

// NewPreprocessor returns the configured preprocessor
func NewPreprocessor(cfg *config.Config, grd *guard.Guard) (Preprocessor, error) {
	if cfg.Preprocessor == config.Builtin {
		return builtinPreprocessor{}, nil
	}
	return &externalPreprocessor{path: resolve(cfg, cfg.Preprocessor), grd: grd}, nil
}

// builtinPreprocessor only drops trivial clauses, everything heavier needs an
// external engine
type builtinPreprocessor struct{}

func (builtinPreprocessor) Preprocess(c *cnf.CNF, idempotent bool) (*cnf.CNF, error) {
	out := c.Clone()
	out.RemoveTrivialClauses()
	return out, nil
}

// externalPreprocessor drives a sharpsat-td style preprocessor binary. The
// annotated formula goes in on a file, the simplified clause list is read
// back from the `p cnf` section of its stdout. Variable numbering is
// preserved so the weights carry over.
type externalPreprocessor struct {
	path string
	grd  *guard.Guard
}

func (p *externalPreprocessor) Preprocess(c *cnf.CNF, idempotent bool) (*cnf.CNF, error) {
	mode := "general"
	if idempotent {
		mode = "idemp"
	}
	cnfPath, err := writeTemp(p.grd, "preprocess-*.cnf", func(w io.Writer) error {
		return c.Write(w, true)
	})
	if err != nil {
		return nil, err
	}
	defer p.grd.Remove(cnfPath)

	cmd := exec.Command(p.path, "-m", mode, "-t", "FPVEGV", cnfPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p.grd.Track(cmd)
	defer p.grd.Untrack(cmd)

	out := c.Clone()
	out.Clauses = nil
	reached := false
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "c" {
			continue
		}
		if fields[0] == "p" && len(fields) >= 3 && fields[1] == "cnf" {
			reached = true
			continue
		}
		if !reached {
			continue
		}
		clause := make([]int, 0, len(fields)-1)
		for _, field := range fields {
			lit, err := strconv.Atoi(field)
			if err != nil {
				return nil, err
			}
			if lit == 0 {
				break
			}
			clause = append(clause, lit)
		}
		out.Clauses = append(out.Clauses, clause)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, exitErr(cmd, err)
	}
	if !reached {
		return nil, &SolvingError{Cmd: filepath.Base(p.path), Reason: "preprocessor printed no formula"}
	}
	return out, nil
}
