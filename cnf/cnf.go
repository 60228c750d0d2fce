package cnf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/amcframework/amc/log"
	"github.com/amcframework/amc/semiring"
)

// FormatError indicates a malformed extended CNF
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("cnf format error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("cnf format error: %s", e.Msg)
}

// CNF is an extended weighted CNF over at most two semirings.
//
// The text format is DIMACS derived:
//
//	p cnf <nr_vars> <nr_clauses>
//	<lit> ... <lit> 0
//	c p weight <lit> <w1>;<w2>;...;<wn> 0
//	c p semirings <name> ... 0
//	c p quantify <var> ... 0        (one line per level, elimination order)
//	c p transform <expr> 0          (present iff two semirings)
//
// A CNF is constructed once, by Parse or by an upstream producer, and is
// immutable afterwards except for RemoveTrivialClauses.
type CNF struct {
	NrVars  int
	Clauses [][]int
	// Weights maps a signed literal to its weight vector, one entry per query
	Weights map[int][]semiring.Value
	// Semirings holds at most two levels, level 0 is eliminated last
	Semirings []semiring.Semiring
	// Quantified holds the variables of each level, aligned with Semirings
	Quantified [][]int
	// Transform folds a level 1 value into level 0, present iff two semirings
	Transform *semiring.Transform

	levels map[int]int
}

// New returns an empty CNF
func New() *CNF {
	return &CNF{
		Clauses: [][]int{},
		Weights: make(map[int][]semiring.Value),
	}
}

// Level returns the quantification level of a variable. Variables missing
// from every level belong to the innermost one.
func (c *CNF) Level(v int) int {
	if c.levels == nil {
		c.buildLevels()
	}
	if lvl, ok := c.levels[v]; ok {
		return lvl
	}
	if len(c.Semirings) > 1 {
		return len(c.Semirings) - 1
	}
	return 0
}

func (c *CNF) buildLevels() {
	c.levels = make(map[int]int)
	for lvl, vars := range c.Quantified {
		for _, v := range vars {
			c.levels[v] = lvl
		}
	}
}

// LevelSemiring returns the semiring of the quantification level of a variable
func (c *CNF) LevelSemiring(v int) semiring.Semiring {
	return c.Semirings[c.Level(v)]
}

// QueryCount returns the length of the weight vectors
func (c *CNF) QueryCount() int {
	for _, w := range c.Weights {
		return len(w)
	}
	return 1
}

// Parse reads an extended CNF
func Parse(r io.Reader) (*CNF, error) {
	c := New()
	rawWeights := make(map[int]string)
	var rawTransform string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	lineNr := 0
	for scanner.Scan() {
		lineNr++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "c":
			if len(fields) > 2 && fields[1] == "p" {
				if fields[len(fields)-1] != "0" {
					return nil, &FormatError{Line: lineNr, Msg: "property line not ended with 0"}
				}
				args := fields[3 : len(fields)-1]
				switch fields[2] {
				case "weight":
					if len(args) < 2 {
						return nil, &FormatError{Line: lineNr, Msg: "weight line needs a literal and a value"}
					}
					lit, err := strconv.Atoi(args[0])
					if err != nil || lit == 0 {
						return nil, &FormatError{Line: lineNr, Msg: "bad weight literal"}
					}
					rawWeights[lit] = strings.Join(args[1:], " ")
				case "semirings":
					for _, name := range args {
						sr, err := semiring.Get(name)
						if err != nil {
							return nil, &FormatError{Line: lineNr, Msg: fmt.Sprintf("unknown semiring %q", name)}
						}
						c.Semirings = append(c.Semirings, sr)
					}
				case "quantify":
					level := make([]int, 0, len(args))
					for _, tok := range args {
						v, err := strconv.Atoi(tok)
						if err != nil || v <= 0 {
							return nil, &FormatError{Line: lineNr, Msg: "bad quantified variable"}
						}
						level = append(level, v)
					}
					c.Quantified = append(c.Quantified, level)
				case "transform":
					rawTransform = strings.Join(args, " ")
				default:
					// unknown keys may come from newer producers, skip them
					if log.DefaultLogger != nil {
						log.With(log.LogParams{"property": fields[2], "line": lineNr}).Warn("Skipping unknown property")
					}
				}
			}
		case "p":
			if len(fields) < 4 || fields[1] != "cnf" {
				return nil, &FormatError{Line: lineNr, Msg: "bad problem line"}
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, &FormatError{Line: lineNr, Msg: "bad variable count"}
			}
			c.NrVars = n
		default:
			clause := make([]int, 0, len(fields)-1)
			for i, tok := range fields {
				lit, err := strconv.Atoi(tok)
				if err != nil {
					return nil, &FormatError{Line: lineNr, Msg: fmt.Sprintf("bad literal %q", tok)}
				}
				if lit == 0 {
					if i != len(fields)-1 {
						return nil, &FormatError{Line: lineNr, Msg: "literal 0 inside clause"}
					}
					continue
				}
				clause = append(clause, lit)
			}
			if len(fields) > 0 && fields[len(fields)-1] != "0" {
				return nil, &FormatError{Line: lineNr, Msg: "clause not ended with 0"}
			}
			c.Clauses = append(c.Clauses, clause)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := c.finish(rawWeights, rawTransform); err != nil {
		return nil, err
	}
	return c, nil
}

// finish validates the counts and parses the raw weights against their levels
func (c *CNF) finish(rawWeights map[int]string, rawTransform string) error {
	if len(c.Quantified) != len(c.Semirings) {
		return &FormatError{Msg: "number of semirings and quantifier levels differ"}
	}
	if len(c.Semirings) > 2 {
		return &FormatError{Msg: "more than two semirings are not supported"}
	}
	if len(c.Semirings) == 2 && rawTransform == "" {
		return &FormatError{Msg: "two semirings need a transform between them"}
	}
	if rawTransform != "" {
		if len(c.Semirings) != 2 {
			return &FormatError{Msg: "transform given without two semirings"}
		}
		t, err := semiring.ParseTransform(rawTransform)
		if err != nil {
			return &FormatError{Msg: err.Error()}
		}
		c.Transform = t
	}
	if len(c.Semirings) == 0 && len(rawWeights) > 0 {
		return &FormatError{Msg: "weights given without semirings"}
	}
	c.buildLevels()
	queries := -1
	for lit, raw := range rawWeights {
		v := lit
		if v < 0 {
			v = -v
		}
		if _, ok := c.levels[v]; !ok {
			return &FormatError{Msg: fmt.Sprintf("weighted variable %d is not quantified", v)}
		}
		sr := c.Semirings[c.levels[v]]
		parts := strings.Split(raw, ";")
		vec := make([]semiring.Value, 0, len(parts))
		for _, part := range parts {
			val, err := sr.Parse(strings.TrimSpace(part))
			if err != nil {
				return &FormatError{Msg: fmt.Sprintf("bad weight for literal %d: %s", lit, err)}
			}
			vec = append(vec, val)
		}
		if queries == -1 {
			queries = len(vec)
		} else if len(vec) != queries {
			return &FormatError{Msg: fmt.Sprintf("weight vector of literal %d has length %d, want %d", lit, len(vec), queries)}
		}
		c.Weights[lit] = vec
	}
	return nil
}

// Write serializes the CNF. With extras the weights, semirings, transform and
// quantifier levels are written too, without them the output is plain DIMACS.
func (c *CNF) Write(w io.Writer, extras bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "p cnf %d %d\n", c.NrVars, len(c.Clauses))
	for _, clause := range c.Clauses {
		for _, lit := range clause {
			fmt.Fprintf(bw, "%d ", lit)
		}
		fmt.Fprintln(bw, "0")
	}
	if extras {
		for v := 1; v <= c.NrVars; v++ {
			for _, lit := range []int{v, -v} {
				vec, ok := c.Weights[lit]
				if !ok {
					continue
				}
				sr := c.LevelSemiring(v)
				formatted := make([]string, len(vec))
				for i, val := range vec {
					formatted[i] = sr.Format(val)
				}
				fmt.Fprintf(bw, "c p weight %d %s 0\n", lit, strings.Join(formatted, ";"))
			}
		}
		if len(c.Semirings) > 0 {
			names := make([]string, len(c.Semirings))
			for i, sr := range c.Semirings {
				names[i] = sr.Name()
			}
			fmt.Fprintf(bw, "c p semirings %s 0\n", strings.Join(names, " "))
		}
		if c.Transform != nil {
			fmt.Fprintf(bw, "c p transform %s 0\n", c.Transform.String())
		}
		for _, level := range c.Quantified {
			toks := make([]string, len(level))
			for i, v := range level {
				toks[i] = strconv.Itoa(v)
			}
			fmt.Fprintf(bw, "c p quantify %s 0\n", strings.Join(toks, " "))
		}
	}
	return bw.Flush()
}

// String serializes the CNF with extras
func (c *CNF) String() string {
	var sb strings.Builder
	c.Write(&sb, true)
	return sb.String()
}

// Clone returns a copy whose clauses can be replaced without touching the receiver.
// Weight values are shared, they are immutable.
func (c *CNF) Clone() *CNF {
	clauses := make([][]int, len(c.Clauses))
	for i, clause := range c.Clauses {
		clauses[i] = append([]int{}, clause...)
	}
	weights := make(map[int][]semiring.Value, len(c.Weights))
	for lit, vec := range c.Weights {
		weights[lit] = vec
	}
	quantified := make([][]int, len(c.Quantified))
	for i, level := range c.Quantified {
		quantified[i] = append([]int{}, level...)
	}
	return &CNF{
		NrVars:     c.NrVars,
		Clauses:    clauses,
		Weights:    weights,
		Semirings:  append([]semiring.Semiring{}, c.Semirings...),
		Quantified: quantified,
		Transform:  c.Transform,
	}
}

// RemoveTrivialClauses drops every clause containing a variable and its
// negation. In place and idempotent.
func (c *CNF) RemoveTrivialClauses() {
	kept := c.Clauses[:0]
	for _, clause := range c.Clauses {
		trivial := false
		for i := 0; i < len(clause) && !trivial; i++ {
			for j := i + 1; j < len(clause); j++ {
				if clause[i] == -clause[j] {
					trivial = true
					break
				}
			}
		}
		if !trivial {
			kept = append(kept, clause)
		}
	}
	c.Clauses = kept
}

// WeightsView returns the literal weights in a flat array where index 2(v-1)
// holds the weight of v and 2(v-1)+1 the weight of -v, together with the zero,
// the one and the semiring of the outermost level. Without declared semirings
// the counting semiring provides unit multiplicities.
func (c *CNF) WeightsView() ([][]semiring.Value, semiring.Value, semiring.Value, semiring.Semiring) {
	queries := c.QueryCount()
	if len(c.Semirings) == 0 {
		sr := semiring.Counting{}
		weights := make([][]semiring.Value, 2*c.NrVars)
		for i := range weights {
			vec := make([]semiring.Value, queries)
			for q := range vec {
				vec[q] = sr.One()
			}
			weights[i] = vec
		}
		return weights, sr.Zero(), sr.One(), sr
	}
	weights := make([][]semiring.Value, 2*c.NrVars)
	for v := 1; v <= c.NrVars; v++ {
		sr := c.LevelSemiring(v)
		for i, lit := range []int{v, -v} {
			vec, ok := c.Weights[lit]
			if !ok {
				vec = make([]semiring.Value, queries)
				for q := range vec {
					vec[q] = sr.One()
				}
			}
			weights[2*(v-1)+i] = vec
		}
	}
	outer := c.Semirings[0]
	return weights, outer.Zero(), outer.One(), outer
}

// FoldModel multiplies the weights of the literals of a total assignment,
// per query. The model holds one signed literal per variable.
func (c *CNF) FoldModel(model []int) []semiring.Value {
	weights, _, one, sr := c.WeightsView()
	queries := c.QueryCount()
	res := make([]semiring.Value, queries)
	for q := range res {
		res[q] = one
	}
	for _, lit := range model {
		idx := weightIndex(lit)
		for q := range res {
			res[q] = sr.Mul(res[q], weights[idx][q])
		}
	}
	return res
}

func weightIndex(lit int) int {
	if lit > 0 {
		return 2 * (lit - 1)
	}
	return 2*(-lit-1) + 1
}
