package td

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
	"github.com/amcframework/amc/log"
)

// FromGraph computes a tree decomposition of the graph. With the builtin
// solver the whole graph becomes a single bag, anything else is run as an
// anytime heuristic in the flow-cutter interface: the graph is streamed in on
// stdin, the process is terminated after the timeout and the decomposition it
// printed is parsed. Vertices are relabeled onto 1..n for the solver and
// mapped back afterwards.
func FromGraph(g graph.Undirected, cfg *config.Config, grd *guard.Guard) (*TreeDecomposition, error) {
	ids := nodeIDs(g)
	if cfg.DecompositionSolver == config.Builtin {
		return singleBag(ids), nil
	}
	path, err := solverPath(cfg)
	if err != nil {
		return nil, err
	}

	toDense := make(map[int64]int, len(ids))
	fromDense := make(map[int]int, len(ids))
	for i, id := range ids {
		toDense[id] = i + 1
		fromDense[i+1] = int(id)
	}
	input := encodeGraph(g, ids, toDense)

	out, err := runAnytime(path, input, cfg.DecompositionTimeout, grd)
	if err != nil {
		return nil, err
	}
	t, err := FromStream(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	for _, bag := range t.bags {
		vertices := make(map[int]bool, len(bag.Vertices))
		for v := range bag.Vertices {
			vertices[fromDense[v]] = true
		}
		bag.Vertices = vertices
	}
	return t, nil
}

// Hypergraph is any hypergraph that can expand its hyperedges into cliques
type Hypergraph interface {
	ToGraph() *simple.UndirectedGraph
}

// FromHypergraph decomposes the clique expansion of a hypergraph
func FromHypergraph(h Hypergraph, cfg *config.Config, grd *guard.Guard) (*TreeDecomposition, error) {
	return FromGraph(h.ToGraph(), cfg, grd)
}

// solverPath maps a registered solver name to its binary, absolute paths pass
// through untouched
func solverPath(cfg *config.Config) (string, error) {
	if cfg.DecompositionSolver == "flow-cutter" {
		return filepath.Join(cfg.ExternalDir, "flow-cutter", "flow_cutter_pace17"), nil
	}
	if filepath.IsAbs(cfg.DecompositionSolver) {
		return cfg.DecompositionSolver, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSolver, cfg.DecompositionSolver)
}

func nodeIDs(g graph.Undirected) []int64 {
	var ids []int64
	nodes := g.Nodes()
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func singleBag(ids []int64) *TreeDecomposition {
	bag := &Bag{ID: 1, Vertices: make(map[int]bool, len(ids))}
	for _, id := range ids {
		bag.Vertices[int(id)] = true
	}
	t := &TreeDecomposition{
		BagCount:    1,
		Width:       len(ids) - 1,
		VertexCount: len(ids),
		bags:        map[int]*Bag{1: bag},
		adj:         map[int][]int{},
	}
	t.SetRoot(1)
	return t
}

func encodeGraph(g graph.Undirected, ids []int64, toDense map[int64]int) []byte {
	var edges [][2]int
	for _, id := range ids {
		from := g.From(id)
		for from.Next() {
			other := from.Node().ID()
			if other <= id {
				continue
			}
			edges = append(edges, [2]int{toDense[id], toDense[other]})
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "p tw %d %d\n", len(ids), len(edges))
	for _, e := range edges {
		fmt.Fprintf(&sb, "%d %d\n", e[0], e[1])
	}
	return []byte(sb.String())
}

// runAnytime starts the solver, feeds it the graph and lets it improve until
// the deadline, then asks it to print its best decomposition with SIGTERM and
// drains stdout to EOF
func runAnytime(solver string, input []byte, timeout float64, grd *guard.Guard) ([]byte, error) {
	cmd := exec.Command(solver)
	cmd.Stdin = bytes.NewReader(input)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	grd.Track(cmd)
	defer grd.Untrack(cmd)

	timer := time.NewTimer(time.Duration(timeout * float64(time.Second)))
	defer timer.Stop()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
		for scanner.Scan() {
			buf.WriteString(scanner.Text())
			buf.WriteByte('\n')
		}
		done <- result{out: buf.Bytes(), err: scanner.Err()}
	}()

	select {
	case <-timer.C:
		log.With(log.LogParams{"solver": filepath.Base(solver)}).Debug("Decomposition timeout reached, terminating solver")
		cmd.Process.Signal(syscall.SIGTERM)
	case res := <-done:
		// solver finished on its own, an exact solver or an error
		cmd.Wait()
		if res.err != nil {
			return nil, res.err
		}
		return res.out, nil
	}

	res := <-done
	cmd.Wait()
	if res.err != nil {
		return nil, res.err
	}
	return res.out, nil
}
