package semiring

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseTransformTerms(t *testing.T) {
	pair := NatPair{A: big.NewInt(3), B: big.NewInt(4)}
	cases := []struct {
		expr string
		want float64
	}{
		{"value", 0.75},
		{"first", 3},
		{"second", 4},
		{"first/second", 0.75},
		{" first / second ", 0.75},
		{"second/first", 4.0 / 3.0},
	}
	for _, tc := range cases {
		tr, err := ParseTransform(tc.expr)
		if err != nil {
			t.Errorf("error parsing %q: %s", tc.expr, err)
			continue
		}
		got, err := tr.Apply(Probability{}, pair)
		if err != nil {
			t.Errorf("error applying %q: %s", tc.expr, err)
			continue
		}
		if got.Float() != tc.want {
			t.Errorf("%q applied to 3,4 gave %f, want %f", tc.expr, got.Float(), tc.want)
		}
	}
}

func TestParseTransformRejectsBadExpressions(t *testing.T) {
	for _, expr := range []string{"", "third", "first/second/value", "first+second", "exp(value)"} {
		if _, err := ParseTransform(expr); !errors.Is(err, ErrBadTransform) {
			t.Errorf("expected ErrBadTransform for %q, got %v", expr, err)
		}
	}
}

func TestTransformDivisionByZero(t *testing.T) {
	tr, err := ParseTransform("first/second")
	if err != nil {
		t.Fatalf("error parsing transform: %s", err)
	}
	got, err := tr.Apply(Probability{}, NatPair{A: big.NewInt(3), B: big.NewInt(0)})
	if err != nil {
		t.Fatalf("error applying transform: %s", err)
	}
	if got.Float() != 0 {
		t.Errorf("division by zero gave %f, want 0", got.Float())
	}
}

func TestTransformNeedsComponents(t *testing.T) {
	tr, err := ParseTransform("first")
	if err != nil {
		t.Fatalf("error parsing transform: %s", err)
	}
	if _, err := tr.Apply(Probability{}, Prob(0.5)); err == nil {
		t.Errorf("expected an error projecting a plain value")
	}
}

func TestTransformRoundTrip(t *testing.T) {
	tr, err := ParseTransform("first/second")
	if err != nil {
		t.Fatalf("error parsing transform: %s", err)
	}
	if tr.String() != "first/second" {
		t.Errorf("serialized as %q", tr.String())
	}
}
