package backend

import (
	"errors"
	"strings"
	"testing"

	"github.com/amcframework/amc/cnf"
	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/td"
)

const chainDecomposition = `s tw 2 1 3
b 1 1 2
b 2 2 3
1 2
`

func chainSetup(t *testing.T) (*cnf.CNF, *td.TreeDecomposition) {
	t.Helper()
	c, err := cnf.Parse(strings.NewReader("p cnf 3 2\n1 2 0\n2 3 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	decomp, err := td.FromStream(strings.NewReader(chainDecomposition))
	if err != nil {
		t.Fatalf("error parsing decomposition: %s", err)
	}
	return c, decomp
}

func TestWriteDtree(t *testing.T) {
	c, decomp := chainSetup(t)
	var sb strings.Builder
	if err := writeDtree(&sb, c, decomp); err != nil {
		t.Fatalf("error writing dtree: %s", err)
	}
	want := "dtree 3\nL 1\nL 0\nI 0 1\n"
	if sb.String() != want {
		t.Errorf("dtree is\n%q\nwant\n%q", sb.String(), want)
	}
}

func TestWriteDtreeUncoveredClause(t *testing.T) {
	c, err := cnf.Parse(strings.NewReader("p cnf 3 1\n1 3 0\n"))
	if err != nil {
		t.Fatalf("error parsing instance: %s", err)
	}
	decomp, err := td.FromStream(strings.NewReader(chainDecomposition))
	if err != nil {
		t.Fatalf("error parsing decomposition: %s", err)
	}
	var sb strings.Builder
	if err := writeDtree(&sb, c, decomp); err == nil {
		t.Errorf("expected an error for a clause no bag covers")
	}
}

func TestWriteVtree(t *testing.T) {
	c, decomp := chainSetup(t)
	var sb strings.Builder
	if err := writeVtree(&sb, c, decomp); err != nil {
		t.Fatalf("error writing vtree: %s", err)
	}
	want := "vtree 5\nL 0 2\nL 1 3\nI 2 0 1\nL 3 1\nI 4 2 3\n"
	if sb.String() != want {
		t.Errorf("vtree is\n%q\nwant\n%q", sb.String(), want)
	}
}

func TestNewCompilerUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.KnowledgeCompiler = "no-such-compiler"
	if _, err := NewCompiler(cfg, nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestConstrainedUnsupported(t *testing.T) {
	c, decomp := chainSetup(t)
	for _, k := range []Compiler{&miniC2D{}, &sharpsatTD{}, &d4{}} {
		if k.SupportsConstrained() {
			t.Errorf("%s claims constrained support", k.Name())
		}
		if _, err := k.Compile(c, decomp, []int{1}); !errors.Is(err, ErrNoConstrained) {
			t.Errorf("%s: expected ErrNoConstrained, got %v", k.Name(), err)
		}
	}
}
