package backend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/td"
	"github.com/amcframework/amc/util"
)

// ErrNoConstrained is returned when constrained compilation is requested from
// a compiler that cannot force decision variables to the top of the circuit
var ErrNoConstrained = errors.New("compiler does not support constrained compilation")

// Compiler turns a formula into a smooth d-DNNF circuit on disk and returns
// the circuit path. A non-nil force list requests a constrained circuit where
// the given variables are decided above everything else.
type Compiler interface {
	Name() string
	SupportsConstrained() bool
	Compile(c *cnf.CNF, t *td.TreeDecomposition, force []int) (string, error)
}

// NewCompiler returns the configured knowledge compiler
func NewCompiler(cfg *config.Config, grd *guard.Guard) (Compiler, error) {
	switch cfg.KnowledgeCompiler {
	case "c2d":
		return &c2d{path: resolve(cfg, filepath.Join("c2d", "bin", "c2d_linux")), grd: grd}, nil
	case "miniC2D":
		return &miniC2D{path: resolve(cfg, filepath.Join("miniC2D", "bin", "linux", "miniC2D")), grd: grd}, nil
	case "sharpsat-td":
		return &sharpsatTD{path: resolve(cfg, filepath.Join("sharpsat-td", "bin", "sharpSAT")), decot: cfg.DecompositionTimeout, grd: grd}, nil
	case "d4":
		return &d4{path: resolve(cfg, filepath.Join("d4", "d4_static")), grd: grd}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.KnowledgeCompiler)
}

type c2d struct {
	path string
	grd  *guard.Guard
}

func (*c2d) Name() string              { return "c2d" }
func (*c2d) SupportsConstrained() bool { return true }

func (k *c2d) Compile(c *cnf.CNF, t *td.TreeDecomposition, force []int) (string, error) {
	cnfPath, err := writeTemp(k.grd, "compile-*.cnf", func(w io.Writer) error {
		return c.Write(w, false)
	})
	if err != nil {
		return "", err
	}
	defer k.grd.Remove(cnfPath)
	dtreePath := cnfPath + ".dtree"
	if err := writeFile(k.grd, dtreePath, func(w io.Writer) error {
		return writeDtree(w, c, t)
	}); err != nil {
		return "", err
	}
	defer k.grd.Remove(dtreePath)

	args := []string{"-smooth_all", "-reduce", "-in", cnfPath, "-dt_in", dtreePath}
	if force != nil {
		forcePath, err := writeTemp(k.grd, "compile-*.force", func(w io.Writer) error {
			fmt.Fprintf(w, "%d", len(force))
			for _, v := range force {
				fmt.Fprintf(w, " %d", v)
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		defer k.grd.Remove(forcePath)
		args = []string{"-cache_size", "3500", "-keep_trivial_cls", "-smooth_all", "-in", cnfPath, "-dt_in", dtreePath, "-force", forcePath}
	}

	circuitPath := cnfPath + ".nnf"
	k.grd.Register(circuitPath)
	if err := run(exec.Command(k.path, args...), k.grd); err != nil {
		return "", err
	}
	return circuitPath, nil
}

type miniC2D struct {
	path string
	grd  *guard.Guard
}

func (*miniC2D) Name() string              { return "miniC2D" }
func (*miniC2D) SupportsConstrained() bool { return false }

func (k *miniC2D) Compile(c *cnf.CNF, t *td.TreeDecomposition, force []int) (string, error) {
	if force != nil {
		return "", ErrNoConstrained
	}
	cnfPath, err := writeTemp(k.grd, "compile-*.cnf", func(w io.Writer) error {
		return c.Write(w, false)
	})
	if err != nil {
		return "", err
	}
	defer k.grd.Remove(cnfPath)
	vtreePath := cnfPath + ".vtree"
	if err := writeFile(k.grd, vtreePath, func(w io.Writer) error {
		return writeVtree(w, c, t)
	}); err != nil {
		return "", err
	}
	defer k.grd.Remove(vtreePath)

	circuitPath := cnfPath + ".nnf"
	k.grd.Register(circuitPath)
	if err := run(exec.Command(k.path, "-c", cnfPath, "-v", vtreePath), k.grd); err != nil {
		return "", err
	}
	return circuitPath, nil
}

type sharpsatTD struct {
	path  string
	decot float64
	grd   *guard.Guard
}

func (*sharpsatTD) Name() string              { return "sharpsat-td" }
func (*sharpsatTD) SupportsConstrained() bool { return false }

func (k *sharpsatTD) Compile(c *cnf.CNF, t *td.TreeDecomposition, force []int) (string, error) {
	if force != nil {
		return "", ErrNoConstrained
	}
	cnfPath, err := writeTemp(k.grd, "compile-*.cnf", c.WriteKC)
	if err != nil {
		return "", err
	}
	defer k.grd.Remove(cnfPath)

	decot := util.Max(k.decot, 0.1)
	circuitPath := cnfPath + ".nnf"
	k.grd.Register(circuitPath)
	cmd := exec.Command(k.path,
		"-dDNNF", "-decot", strconv.FormatFloat(decot, 'f', -1, 64),
		"-decow", "100", "-tmpdir", os.TempDir(), "-cs", "3500",
		cnfPath, "-dDNNF_out", circuitPath)
	cmd.Dir = filepath.Dir(k.path)
	if err := run(cmd, k.grd); err != nil {
		return "", err
	}
	return circuitPath, nil
}

type d4 struct {
	path string
	grd  *guard.Guard
}

func (*d4) Name() string              { return "d4" }
func (*d4) SupportsConstrained() bool { return false }

func (k *d4) Compile(c *cnf.CNF, t *td.TreeDecomposition, force []int) (string, error) {
	if force != nil {
		return "", ErrNoConstrained
	}
	cnfPath, err := writeTemp(k.grd, "compile-*.cnf", func(w io.Writer) error {
		return c.Write(w, false)
	})
	if err != nil {
		return "", err
	}
	defer k.grd.Remove(cnfPath)

	circuitPath := cnfPath + ".nnf"
	k.grd.Register(circuitPath)
	if err := run(exec.Command(k.path, cnfPath, "-dDNNF", "-out="+circuitPath, "-smooth"), k.grd); err != nil {
		return "", err
	}
	return circuitPath, nil
}

// writeTemp creates a registered temp file and fills it
func writeTemp(grd *guard.Guard, pattern string, fill func(io.Writer) error) (string, error) {
	path, err := grd.TempFile(pattern)
	if err != nil {
		return "", err
	}
	if err := writeFile(grd, path, fill); err != nil {
		grd.Remove(path)
		return "", err
	}
	return path, nil
}

func writeFile(grd *guard.Guard, path string, fill func(io.Writer) error) error {
	grd.Register(path)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeDtree emits a decomposition guided dtree over the clauses, every
// clause becomes a leaf under the first bag that contains all its variables
// and bags chain their parts together bottom-up
func writeDtree(w io.Writer, c *cnf.CNF, t *td.TreeDecomposition) error {
	bags, err := t.Iterate("post-order")
	if err != nil {
		return err
	}
	clausesOf := make(map[int][]int, len(bags))
	for ci, clause := range c.Clauses {
		vars := make([]int, len(clause))
		for i, lit := range clause {
			vars[i] = util.Abs(lit)
		}
		assigned := false
		for _, bag := range bags {
			if bag.Contains(vars) {
				clausesOf[bag.ID] = append(clausesOf[bag.ID], ci)
				assigned = true
				break
			}
		}
		if !assigned {
			return fmt.Errorf("clause %d not covered by any bag", ci)
		}
	}

	var lines []string
	next := 0
	emit := func(line string) int {
		lines = append(lines, line)
		next++
		return next - 1
	}
	roots := make(map[int]int, len(bags))
	for _, bag := range bags {
		parts := []int{}
		for _, child := range bag.Children {
			if r, ok := roots[child.ID]; ok {
				parts = append(parts, r)
			}
		}
		for _, ci := range clausesOf[bag.ID] {
			parts = append(parts, emit(fmt.Sprintf("L %d", ci)))
		}
		if len(parts) == 0 {
			continue
		}
		acc := parts[0]
		for _, p := range parts[1:] {
			acc = emit(fmt.Sprintf("I %d %d", acc, p))
		}
		roots[bag.ID] = acc
	}
	if _, ok := roots[t.Root]; !ok {
		return fmt.Errorf("formula has no clauses")
	}
	fmt.Fprintf(w, "dtree %d\n", len(lines))
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

// writeVtree emits a decomposition guided vtree over the variables, every
// variable becomes a leaf under the first bag introducing it
func writeVtree(w io.Writer, c *cnf.CNF, t *td.TreeDecomposition) error {
	bags, err := t.Iterate("post-order")
	if err != nil {
		return err
	}
	varsOf := make(map[int][]int, len(bags))
	for v := 1; v <= c.NrVars; v++ {
		for _, bag := range bags {
			if bag.Vertices[v] {
				varsOf[bag.ID] = append(varsOf[bag.ID], v)
				break
			}
		}
	}

	var lines []string
	next := 0
	emit := func(line string) int {
		lines = append(lines, line)
		next++
		return next - 1
	}
	roots := make(map[int]int, len(bags))
	for _, bag := range bags {
		parts := []int{}
		for _, child := range bag.Children {
			if r, ok := roots[child.ID]; ok {
				parts = append(parts, r)
			}
		}
		for _, v := range varsOf[bag.ID] {
			parts = append(parts, emit(fmt.Sprintf("L %d %d", next, v)))
		}
		if len(parts) == 0 {
			continue
		}
		acc := parts[0]
		for _, p := range parts[1:] {
			acc = emit(fmt.Sprintf("I %d %d %d", next, acc, p))
		}
		roots[bag.ID] = acc
	}
	if _, ok := roots[t.Root]; !ok {
		return fmt.Errorf("formula has no variables")
	}
	fmt.Fprintf(w, "vtree %d\n", len(lines))
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
