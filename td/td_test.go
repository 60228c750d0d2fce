package td

import (
	"strings"
	"testing"
)

// a path shaped decomposition of a path graph over 5 vertices
const pathDecomposition = `c generated by a treewidth heuristic
s tw 4 1 5
b 1 1 2
b 2 2 3
b 3 3 4
b 4 4 5
1 2
2 3
3 4
`

func parsePath(t *testing.T) *TreeDecomposition {
	t.Helper()
	td, err := FromStream(strings.NewReader(pathDecomposition))
	if err != nil {
		t.Fatalf("error parsing decomposition: %s", err)
	}
	return td
}

func TestFromStream(t *testing.T) {
	td := parsePath(t)
	if td.BagCount != 4 || td.Width != 1 || td.VertexCount != 5 {
		t.Errorf("parsed dimensions %d %d %d, want 4 1 5", td.BagCount, td.Width, td.VertexCount)
	}
	if td.Root != 1 {
		t.Errorf("decomposition must be rooted at bag 1, got %d", td.Root)
	}
	bag := td.Bag(2)
	if bag == nil || !bag.Vertices[2] || !bag.Vertices[3] {
		t.Errorf("bag 2 should contain vertices 2 and 3")
	}
}

func TestFromStreamErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing header", "b 1 1 2\n"},
		{"bad header", "s td 1 1 1\n"},
		{"bag count mismatch", "s tw 2 0 1\nb 1 1\n"},
		{"malformed edge", "s tw 1 0 1\nb 1 1\n1 2 3\n"},
	}
	for _, tc := range cases {
		if _, err := FromStream(strings.NewReader(tc.input)); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestIterateOrders(t *testing.T) {
	td := parsePath(t)
	post, err := td.Iterate("post-order")
	if err != nil {
		t.Fatalf("error iterating: %s", err)
	}
	if len(post) != 4 {
		t.Fatalf("post-order visited %d bags, want 4", len(post))
	}
	if post[len(post)-1].ID != td.Root {
		t.Errorf("post-order must visit the root last, got %d", post[len(post)-1].ID)
	}
	seen := map[int]bool{}
	for _, bag := range post {
		for _, child := range bag.Children {
			if !seen[child.ID] {
				t.Errorf("post-order visited bag %d before its child %d", bag.ID, child.ID)
			}
		}
		seen[bag.ID] = true
	}

	pre, err := td.Iterate("pre-order")
	if err != nil {
		t.Fatalf("error iterating: %s", err)
	}
	if pre[0].ID != td.Root {
		t.Errorf("pre-order must visit the root first, got %d", pre[0].ID)
	}

	if _, err := td.Iterate("in-order"); err == nil {
		t.Errorf("expected an error for an unsupported order")
	}
}

func TestSetRoot(t *testing.T) {
	td := parsePath(t)
	td.SetRoot(3)
	if td.Root != 3 {
		t.Fatalf("root is %d, want 3", td.Root)
	}
	root := td.GetRoot()
	if len(root.Children) != 2 {
		t.Fatalf("bag 3 has %d children after re-rooting, want 2", len(root.Children))
	}
	// re-rooting with the same bag is a no-op
	td.SetRoot(3)
	if len(td.GetRoot().Children) != 2 {
		t.Errorf("repeated rooting changed the children")
	}
	post, err := td.Iterate("post-order")
	if err != nil {
		t.Fatalf("error iterating: %s", err)
	}
	if len(post) != 4 || post[3].ID != 3 {
		t.Errorf("post-order after re-rooting must end at bag 3")
	}
}

func TestFindCentroid(t *testing.T) {
	td := parsePath(t)
	centroid := td.FindCentroid()
	// walking the path bottom-up, bag 2 is the first whose subtree
	// introduces more than half of the 5 vertices
	if centroid != 2 {
		t.Errorf("centroid is %d, want 2", centroid)
	}

	single, err := FromStream(strings.NewReader("s tw 1 2 3\nb 1 1 2 3\n"))
	if err != nil {
		t.Fatalf("error parsing decomposition: %s", err)
	}
	if got := single.FindCentroid(); got != 1 {
		t.Errorf("a single bag is its own centroid, got %d", got)
	}
}

func TestFindContaining(t *testing.T) {
	td := parsePath(t)
	bag := td.FindContaining([]int{2, 3})
	if bag == nil || bag.ID != 2 {
		t.Errorf("vertices 2 3 live in bag 2, got %v", bag)
	}
	if td.FindContaining([]int{1, 5}) != nil {
		t.Errorf("no bag contains vertices 1 and 5")
	}
}

func TestRemove(t *testing.T) {
	td := parsePath(t)
	td.Remove([]int{3})
	for _, id := range []int{1, 2, 3, 4} {
		if td.Bag(id).Vertices[3] {
			t.Errorf("vertex 3 still present in bag %d", id)
		}
	}
	if !td.Bag(1).Vertices[1] {
		t.Errorf("removal dropped an unrelated vertex")
	}
}

func TestStringRoundTrip(t *testing.T) {
	td := parsePath(t)
	again, err := FromStream(strings.NewReader(td.String()))
	if err != nil {
		t.Fatalf("error reparsing serialized decomposition: %s", err)
	}
	if again.BagCount != td.BagCount || again.Width != td.Width || again.VertexCount != td.VertexCount {
		t.Errorf("round trip changed the dimensions")
	}
	for id := 1; id <= 4; id++ {
		want := td.Bag(id)
		got := again.Bag(id)
		if got == nil || len(got.Vertices) != len(want.Vertices) {
			t.Errorf("round trip changed bag %d", id)
		}
	}
}
