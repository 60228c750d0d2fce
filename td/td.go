// Package td provides tree decompositions of graphs and hypergraphs, built by
// an external anytime treewidth heuristic and consumed to steer knowledge
// compilation.
package td

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownOrder is returned for iteration orders other than post-order and pre-order
	ErrUnknownOrder = errors.New("unsupported iteration order")
	// ErrUnknownSolver is returned for unregistered treewidth heuristics
	ErrUnknownSolver = errors.New("unknown treewidth solver")
)

// Bag is a node of a tree decomposition
type Bag struct {
	// ID is the unique id of the bag in the decomposition
	ID int
	// Vertices are the graph vertices covered by this bag
	Vertices map[int]bool
	// Children are the child bags, meaningful once the decomposition is rooted
	Children []*Bag
}

// Contains reports whether every given vertex is in the bag
func (b *Bag) Contains(vertices []int) bool {
	for _, v := range vertices {
		if !b.Vertices[v] {
			return false
		}
	}
	return true
}

// TreeDecomposition is a connected acyclic graph of bags covering a graph.
// Exactly one bag is the root at a time, re-rooting recomputes every bag's
// children.
type TreeDecomposition struct {
	// BagCount is the number of bags
	BagCount int
	// Width is the width of the decomposition, max bag size minus one
	Width int
	// VertexCount is the number of vertices of the covered graph
	VertexCount int
	// Root is the id of the current root bag, 0 while unrooted
	Root int

	bags map[int]*Bag
	adj  map[int][]int
}

// Bag returns the bag with the given id
func (t *TreeDecomposition) Bag(id int) *Bag {
	return t.bags[id]
}

// GetRoot returns the root bag
func (t *TreeDecomposition) GetRoot() *Bag {
	return t.bags[t.Root]
}

// SetRoot roots the decomposition at the given bag and recomputes every bag's
// children with one explicit stack walk. Calling it again with the same root
// has no further effect.
func (t *TreeDecomposition) SetRoot(root int) {
	t.Root = root
	type frame struct {
		parent int
		cur    int
	}
	stack := []frame{{parent: 0, cur: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		bag := t.bags[f.cur]
		bag.Children = bag.Children[:0]
		for _, neigh := range t.adj[f.cur] {
			if neigh == f.parent {
				continue
			}
			bag.Children = append(bag.Children, t.bags[neigh])
			stack = append(stack, frame{parent: f.cur, cur: neigh})
		}
	}
}

// Iterate returns the bags in the given order, post-order visits every child
// strictly before its parent, pre-order visits a parent before its children.
// Both use an explicit stack, the tree may be deeper than the goroutine stack
// would allow.
func (t *TreeDecomposition) Iterate(order string) ([]*Bag, error) {
	if t.Root == 0 {
		t.SetRoot(1)
	}
	switch order {
	case "post-order":
		return t.postOrder(), nil
	case "pre-order":
		return t.preOrder(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOrder, order)
}

func (t *TreeDecomposition) postOrder() []*Bag {
	out := make([]*Bag, 0, t.BagCount)
	type frame struct {
		bag *Bag
		idx int
	}
	stack := []frame{{bag: t.bags[t.Root]}}
	for len(stack) > 0 {
		top := len(stack) - 1
		if stack[top].idx < len(stack[top].bag.Children) {
			child := stack[top].bag.Children[stack[top].idx]
			stack[top].idx++
			stack = append(stack, frame{bag: child})
			continue
		}
		out = append(out, stack[top].bag)
		stack = stack[:top]
	}
	return out
}

func (t *TreeDecomposition) preOrder() []*Bag {
	out := make([]*Bag, 0, t.BagCount)
	stack := []*Bag{t.bags[t.Root]}
	for len(stack) > 0 {
		bag := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, bag)
		for i := len(bag.Children) - 1; i >= 0; i-- {
			stack = append(stack, bag.Children[i])
		}
	}
	return out
}

// FindCentroid accumulates, for each bag in post-order, the number of vertices
// its subtree introduces relative to its parent and returns the first bag
// whose subtree weight exceeds half the vertices
func (t *TreeDecomposition) FindCentroid() int {
	if t.Root == 0 {
		t.SetRoot(1)
	}
	if t.BagCount == 1 {
		return t.Root
	}
	parents := make(map[int]int, t.BagCount)
	order := t.postOrder()
	for _, bag := range order {
		for _, child := range bag.Children {
			parents[child.ID] = bag.ID
		}
	}
	counts := make(map[int]int, t.BagCount)
	for _, bag := range order {
		introduced := 0
		parentBag := t.bags[parents[bag.ID]]
		for v := range bag.Vertices {
			if parentBag == nil || !parentBag.Vertices[v] {
				introduced++
			}
		}
		total := introduced
		for _, child := range bag.Children {
			total += counts[child.ID]
		}
		counts[bag.ID] = total
		if total > t.VertexCount/2 {
			return bag.ID
		}
	}
	return t.Root
}

// FindContaining returns the first post-order bag whose vertex set is a
// superset of the given vertices, or nil when no bag contains them all
func (t *TreeDecomposition) FindContaining(vertices []int) *Bag {
	bags, _ := t.Iterate("post-order")
	for _, bag := range bags {
		if bag.Contains(vertices) {
			return bag
		}
	}
	return nil
}

// Remove deletes the given vertices from every bag
func (t *TreeDecomposition) Remove(vertices []int) {
	for _, bag := range t.bags {
		for _, v := range vertices {
			delete(bag.Vertices, v)
		}
	}
}

// String serializes the decomposition in the `s tw` format
func (t *TreeDecomposition) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "s tw %d %d %d\n", t.BagCount, t.Width, t.VertexCount)
	bags, _ := t.Iterate("post-order")
	for _, bag := range bags {
		vertices := make([]int, 0, len(bag.Vertices))
		for v := range bag.Vertices {
			vertices = append(vertices, v)
		}
		sort.Ints(vertices)
		fmt.Fprintf(&sb, "b %d", bag.ID)
		for _, v := range vertices {
			fmt.Fprintf(&sb, " %d", v)
		}
		fmt.Fprintln(&sb)
	}
	for _, bag := range bags {
		for _, child := range bag.Children {
			fmt.Fprintf(&sb, "%d %d\n", bag.ID, child.ID)
		}
	}
	return sb.String()
}
