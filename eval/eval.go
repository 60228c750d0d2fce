// Package eval orchestrates the evaluation of weighted formulas, choosing
// between the optimization shortcut, direct counting and circuit compilation
// based on the strategy and the semirings of the instance.
package eval

import (
	"errors"
	"fmt"
	"time"

	"github.com/amcframework/amc/backend"
	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/log"
	"github.com/amcframework/amc/semiring"
	"github.com/amcframework/amc/td"
)

// Evaluation strategies. Flexible picks the cheapest sound method for the
// instance, compilation always goes through a circuit.
const (
	StrategyFlexible    = "flexible"
	StrategyCompilation = "compilation"
)

var (
	// ErrUnknownStrategy is returned for strategies other than flexible and compilation
	ErrUnknownStrategy = errors.New("unknown evaluation strategy")
	// ErrConstrainedCompiler is returned when two semirings meet a compiler
	// that cannot order the outer variables above the inner ones
	ErrConstrainedCompiler = errors.New("two semirings require a compiler supporting constrained compilation")
)

// Dispatcher evaluates instances under one configuration. Every evaluation
// shares the dispatcher's guard, Close releases its temp files and processes.
type Dispatcher struct {
	cfg    *config.Config
	logger *log.Logger
	grd    *guard.Guard
}

// NewDispatcher creates a dispatcher with its own resource guard
func NewDispatcher(cfg *config.Config, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		grd:    guard.New(logger),
	}
}

// Guard exposes the dispatcher's resource guard
func (d *Dispatcher) Guard() *guard.Guard {
	return d.grd
}

// Close releases the resources of all evaluations
func (d *Dispatcher) Close() {
	d.grd.Release()
}

// Evaluate computes the algebraic model count of the instance, one value per
// query. The input is not modified.
func (d *Dispatcher) Evaluate(c *cnf.CNF, strategy string, preprocess bool) ([]semiring.Value, error) {
	start := time.Now()
	res, err := d.evaluate(c, strategy, preprocess)
	if err == nil {
		d.logger.With(log.LogParams{
			"duration": time.Since(start).String(),
			"strategy": strategy,
		}).Info("Evaluation finished")
	}
	return res, err
}

func (d *Dispatcher) evaluate(c *cnf.CNF, strategy string, preprocess bool) ([]semiring.Value, error) {
	if strategy != StrategyFlexible && strategy != StrategyCompilation {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	c = c.Clone()
	if preprocess {
		d.logger.Info("Preprocessing enabled")
		pp, err := backend.NewPreprocessor(d.cfg, d.grd)
		if err != nil {
			return nil, err
		}
		simplified, err := pp.Preprocess(c, idempotentInstance(c))
		if err != nil {
			return nil, err
		}
		c = simplified
	}

	if res, err := c.EvaluateTrivial(); err != nil || res != nil {
		return res, err
	}

	if strategy == StrategyFlexible && idempotentInstance(c) {
		res, err := d.solveMaxSAT(c)
		if !errors.Is(err, cnf.ErrUnsupportedReduction) {
			return res, err
		}
		// no optimization view of this semiring, fall back to compilation
	}

	if len(c.Semirings) == 2 {
		return d.compileTwo(c, strategy)
	}
	return d.compileSingle(c, strategy)
}

// idempotentInstance reports whether the instance carries exactly one
// idempotent semiring, the precondition of the MaxSAT shortcut and of the
// aggressive preprocessing mode
func idempotentInstance(c *cnf.CNF) bool {
	return len(c.Semirings) == 1 && c.Semirings[0].Idempotent()
}

// solveMaxSAT answers an idempotent instance through one optimal model. When
// the quantized reduction has no soft clauses left a plain SAT call on the
// hard part suffices.
func (d *Dispatcher) solveMaxSAT(c *cnf.CNF) ([]semiring.Value, error) {
	red, err := c.ReduceToMaxSAT(d.cfg.MaxSATPrecision)
	if err != nil {
		return nil, err
	}
	var model []int
	var sat bool
	if red.SATOnly() {
		d.logger.Debug("Reduction has no soft weights, solving as SAT")
		solver, err := backend.NewSATSolver(d.cfg, d.grd)
		if err != nil {
			return nil, err
		}
		model, sat, err = solver.Solve(c, red.HardUnits)
		if err != nil {
			return nil, err
		}
	} else {
		d.logger.With(log.LogParams{"soft": len(red.Soft), "top": red.Top}).Debug("Solving MaxSAT reduction")
		solver, err := backend.NewMaxSATSolver(d.cfg, d.grd)
		if err != nil {
			return nil, err
		}
		model, sat, err = solver.Solve(c, red)
		if err != nil {
			return nil, err
		}
	}
	if !sat {
		return zeroVector(c), nil
	}
	return c.FoldModel(model), nil
}

// compileSingle evaluates an instance with at most one semiring through a
// circuit, or directly when a counter is configured
func (d *Dispatcher) compileSingle(c *cnf.CNF, strategy string) ([]semiring.Value, error) {
	if d.counterConfigured(strategy) {
		counter, err := backend.NewCounter(d.cfg, d.grd, d.externalCounter(strategy))
		if err != nil {
			return nil, err
		}
		return counter.Count(c)
	}
	t, err := d.decompose(c)
	if err != nil {
		return nil, err
	}
	return d.compileAndEvaluate(c, t, nil)
}

// compileTwo evaluates a doubly quantified instance, the outer variables must
// be decided above all inner ones so the transform is applied exactly once
// per outer assignment
func (d *Dispatcher) compileTwo(c *cnf.CNF, strategy string) ([]semiring.Value, error) {
	if d.counterConfigured(strategy) {
		// the live counter only understands self-weighted formulas, an
		// external counter receives the full annotated instance
		if !d.externalCounter(strategy) && d.cfg.KnowledgeCompiler != config.Builtin {
			return nil, ErrConstrainedCompiler
		}
		counter, err := backend.NewCounter(d.cfg, d.grd, d.externalCounter(strategy))
		if err != nil {
			return nil, err
		}
		return counter.Count(c)
	}
	var force []int
	for v := 1; v <= c.NrVars; v++ {
		if c.Level(v) == 0 {
			force = append(force, v)
		}
	}
	t, err := d.decompose(c)
	if err != nil {
		return nil, err
	}
	return d.compileAndEvaluate(c, t, force)
}

// counterConfigured reports whether the instance is counted directly instead
// of compiled to a circuit on disk. An external counter is a shortcut of the
// flexible strategy only, the builtin enumerator and the live adapter stand in
// for a compiler under both strategies.
func (d *Dispatcher) counterConfigured(strategy string) bool {
	if d.externalCounter(strategy) {
		return true
	}
	return d.cfg.KnowledgeCompiler == config.Builtin ||
		d.cfg.KnowledgeCompiler == "sharpsat-td-live"
}

func (d *Dispatcher) externalCounter(strategy string) bool {
	return d.cfg.Counter != "" && strategy == StrategyFlexible
}

func (d *Dispatcher) decompose(c *cnf.CNF) (*td.TreeDecomposition, error) {
	t, err := td.FromGraph(c.PrimalGraph(), d.cfg, d.grd)
	if err != nil {
		return nil, err
	}
	d.logger.With(log.LogParams{"width": t.Width, "bags": t.BagCount}).Debug("Tree decomposition ready")
	return t, nil
}

func (d *Dispatcher) compileAndEvaluate(c *cnf.CNF, t *td.TreeDecomposition, force []int) ([]semiring.Value, error) {
	compiler, err := backend.NewCompiler(d.cfg, d.grd)
	if err != nil {
		return nil, err
	}
	if force != nil && !compiler.SupportsConstrained() {
		return nil, ErrConstrainedCompiler
	}
	circuitPath, err := compiler.Compile(c, t, force)
	if err != nil {
		return nil, err
	}
	defer d.grd.Remove(circuitPath)
	evaluator, err := backend.NewCircuitEvaluator(d.cfg, d.grd)
	if err != nil {
		return nil, err
	}
	return evaluator.Evaluate(circuitPath, c)
}

func zeroVector(c *cnf.CNF) []semiring.Value {
	_, zero, _, _ := c.WeightsView()
	res := make([]semiring.Value, c.QueryCount())
	for q := range res {
		res[q] = zero
	}
	return res
}
