package backend

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/semiring"
	"github.com/amcframework/amc/util"
)

const (
	nodeLit   = 'L'
	nodeAnd   = 'A'
	nodeOr    = 'O'
	nodeTrue  = 'T'
	nodeFalse = 'F'
)

type circuitNode struct {
	kind     byte
	lit      int
	children []int
}

// Circuit is a smooth d-DNNF read from a compiler's output. Nodes reference
// their children by index into the node list; the arc based formats put the
// root first, so no ordering between a node and its children is assumed.
type Circuit struct {
	nodes []circuitNode
	root  int
}

// ParseCircuitFile reads a circuit from a file
func ParseCircuitFile(path string) (*Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCircuit(f)
}

// ParseCircuit reads a circuit in either of the two common encodings, the
// c2d table format starting with an `nnf` header and the arc based format of
// d4 and sharpsat-td
func ParseCircuit(r io.Reader) (*Circuit, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "c" {
			continue
		}
		if fields[0] == "nnf" {
			return parseTableCircuit(scanner)
		}
		return parseArcCircuit(scanner, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("empty circuit")
}

// parseTableCircuit reads the c2d format, one node per line referencing
// earlier lines by index, the last node is the root
func parseTableCircuit(scanner *bufio.Scanner) (*Circuit, error) {
	circ := &Circuit{}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "c" {
			continue
		}
		var node circuitNode
		switch fields[0] {
		case "L":
			lit, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, err
			}
			node = circuitNode{kind: nodeLit, lit: lit}
		case "A":
			children, err := atoiAll(fields[2:])
			if err != nil {
				return nil, err
			}
			kind := byte(nodeAnd)
			if len(children) == 0 {
				kind = nodeTrue
			}
			node = circuitNode{kind: kind, children: children}
		case "O":
			// fields[1] is the decision variable, fields[2] the child count
			children, err := atoiAll(fields[3:])
			if err != nil {
				return nil, err
			}
			kind := byte(nodeOr)
			if len(children) == 0 {
				kind = nodeFalse
			}
			node = circuitNode{kind: kind, children: children}
		default:
			return nil, fmt.Errorf("unexpected circuit line: %q", scanner.Text())
		}
		circ.nodes = append(circ.nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(circ.nodes) == 0 {
		return nil, fmt.Errorf("empty circuit")
	}
	circ.root = len(circ.nodes) - 1
	return circ, nil
}

// parseArcCircuit reads the d4 format, `o/a/t/f <id> 0` lines declare nodes
// and `<from> <to> <lits...> 0` lines attach a child under a conjunction of
// literals. Node 1 is the root.
func parseArcCircuit(scanner *bufio.Scanner, first []string) (*Circuit, error) {
	circ := &Circuit{}
	byID := make(map[int]int)
	line := first
	for {
		switch line[0] {
		case "o", "a", "t", "f":
			id, err := strconv.Atoi(line[1])
			if err != nil {
				return nil, err
			}
			var kind byte
			switch line[0] {
			case "o":
				kind = nodeOr
			case "a":
				kind = nodeAnd
			case "t":
				kind = nodeTrue
			case "f":
				kind = nodeFalse
			}
			byID[id] = len(circ.nodes)
			circ.nodes = append(circ.nodes, circuitNode{kind: kind})
		default:
			nums, err := atoiAll(line)
			if err != nil {
				return nil, err
			}
			if len(nums) < 3 || nums[len(nums)-1] != 0 {
				return nil, fmt.Errorf("malformed arc line: %v", line)
			}
			from, ok := byID[nums[0]]
			if !ok {
				return nil, fmt.Errorf("arc from undeclared node %d", nums[0])
			}
			to, ok := byID[nums[1]]
			if !ok {
				return nil, fmt.Errorf("arc to undeclared node %d", nums[1])
			}
			child := to
			if lits := nums[2 : len(nums)-1]; len(lits) > 0 {
				// wrap the labeled arc in a conjunction of its literals
				children := make([]int, 0, len(lits)+1)
				for _, lit := range lits {
					circ.nodes = append(circ.nodes, circuitNode{kind: nodeLit, lit: lit})
					children = append(children, len(circ.nodes)-1)
				}
				children = append(children, to)
				circ.nodes = append(circ.nodes, circuitNode{kind: nodeAnd, children: children})
				child = len(circ.nodes) - 1
			}
			circ.nodes[from].children = append(circ.nodes[from].children, child)
		}
		found := false
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 || fields[0] == "c" {
				continue
			}
			line = fields
			found = true
			break
		}
		if !found {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(circ.nodes) == 0 {
		return nil, fmt.Errorf("empty circuit")
	}
	root, ok := byID[1]
	if !ok {
		return nil, fmt.Errorf("circuit has no root node")
	}
	circ.root = root
	return circ, nil
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// nodeValue is the partial result at a circuit node. Values of nodes whose
// subtree only touches inner level variables stay in the inner semiring until
// an outer node folds them through the transform.
type nodeValue struct {
	vals  []semiring.Value
	inner bool
}

// Evaluate folds the formula's weights over the circuit bottom-up. With two
// semirings the circuit must be constrained so that every outer variable is
// decided above all inner variables, smoothness is assumed in both cases.
func (circ *Circuit) Evaluate(f *cnf.CNF) ([]semiring.Value, error) {
	weights, _, _, outer := f.WeightsView()
	queries := f.QueryCount()
	twoLevel := len(f.Semirings) == 2
	inner := outer
	if twoLevel {
		inner = f.Semirings[1]
	}

	lift := func(nv nodeValue) ([]semiring.Value, error) {
		if !twoLevel || !nv.inner {
			return nv.vals, nil
		}
		out := make([]semiring.Value, queries)
		for q, v := range nv.vals {
			folded, err := f.Transform.Apply(outer, v)
			if err != nil {
				return nil, err
			}
			out[q] = folded
		}
		return out, nil
	}

	values := make([]nodeValue, len(circ.nodes))
	eval := func(i int) error {
		node := circ.nodes[i]
		switch node.kind {
		case nodeLit:
			isInner := !twoLevel || f.Level(util.Abs(node.lit)) != 0
			values[i] = nodeValue{vals: weights[weightIndex(node.lit)], inner: isInner}
		case nodeTrue:
			values[i] = constValue(inner.One(), queries)
		case nodeFalse:
			values[i] = constValue(inner.Zero(), queries)
		case nodeAnd, nodeOr:
			pure := true
			for _, child := range node.children {
				if !values[child].inner {
					pure = false
					break
				}
			}
			sr := inner
			if !pure {
				sr = outer
			}
			combine := sr.Mul
			start := sr.One()
			if node.kind == nodeOr {
				combine = sr.Add
				start = sr.Zero()
			}
			acc := make([]semiring.Value, queries)
			for q := range acc {
				acc[q] = start
			}
			for _, child := range node.children {
				cv := values[child]
				vals := cv.vals
				if !pure {
					lifted, err := lift(cv)
					if err != nil {
						return err
					}
					vals = lifted
				}
				for q := range acc {
					acc[q] = combine(acc[q], vals[q])
				}
			}
			values[i] = nodeValue{vals: acc, inner: pure}
		}
		return nil
	}

	// post-order walk from the root so children are always evaluated before
	// their parents, whichever order the parser emitted the nodes in; shared
	// children of the arc formats are evaluated once
	const (
		unvisited = iota
		visiting
		evaluated
	)
	state := make([]byte, len(circ.nodes))
	type frame struct {
		node int
		next int
	}
	stack := []frame{{node: circ.root}}
	state[circ.root] = visiting
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := circ.nodes[top.node].children
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			switch state[child] {
			case visiting:
				return nil, fmt.Errorf("circuit contains a cycle through node %d", child)
			case unvisited:
				state[child] = visiting
				stack = append(stack, frame{node: child})
			}
			continue
		}
		if err := eval(top.node); err != nil {
			return nil, err
		}
		state[top.node] = evaluated
		stack = stack[:len(stack)-1]
	}
	return lift(values[circ.root])
}

func constValue(v semiring.Value, queries int) nodeValue {
	vals := make([]semiring.Value, queries)
	for q := range vals {
		vals[q] = v
	}
	return nodeValue{vals: vals, inner: true}
}

func weightIndex(lit int) int {
	if lit > 0 {
		return 2 * (lit - 1)
	}
	return 2*(-lit-1) + 1
}
