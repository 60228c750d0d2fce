package td

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FromFile reads a tree decomposition in the `s tw` format from a file
func FromFile(path string) (*TreeDecomposition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FromStream(f)
}

// FromStream reads a tree decomposition in the `s tw` format. Lines starting
// with `c` are comments, the `s tw <bags> <width> <vertices>` line carries the
// dimensions, `b <id> <v...>` lines carry the bags and the remaining lines
// carry edges between bags. The decomposition is rooted at bag 1.
func FromStream(r io.Reader) (*TreeDecomposition, error) {
	t := &TreeDecomposition{
		bags: make(map[int]*Bag),
		adj:  make(map[int][]int),
	}
	seenHeader := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "c" {
			continue
		}
		switch fields[0] {
		case "s":
			if len(fields) != 5 || fields[1] != "tw" {
				return nil, fmt.Errorf("malformed solution line: %q", scanner.Text())
			}
			var err error
			if t.BagCount, err = strconv.Atoi(fields[2]); err != nil {
				return nil, err
			}
			if t.Width, err = strconv.Atoi(fields[3]); err != nil {
				return nil, err
			}
			if t.VertexCount, err = strconv.Atoi(fields[4]); err != nil {
				return nil, err
			}
			seenHeader = true
		case "b":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed bag line: %q", scanner.Text())
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, err
			}
			bag := &Bag{ID: id, Vertices: make(map[int]bool, len(fields)-2)}
			for _, field := range fields[2:] {
				v, err := strconv.Atoi(field)
				if err != nil {
					return nil, err
				}
				bag.Vertices[v] = true
			}
			t.bags[id] = bag
		default:
			if len(fields) != 2 {
				return nil, fmt.Errorf("malformed edge line: %q", scanner.Text())
			}
			a, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, err
			}
			b, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, err
			}
			t.adj[a] = append(t.adj[a], b)
			t.adj[b] = append(t.adj[b], a)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seenHeader {
		return nil, fmt.Errorf("missing solution line")
	}
	if len(t.bags) != t.BagCount {
		return nil, fmt.Errorf("expected %d bags, found %d", t.BagCount, len(t.bags))
	}
	t.SetRoot(1)
	return t, nil
}
