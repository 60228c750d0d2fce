package semiring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadTransform is returned when a transform expression is not part of the grammar
var ErrBadTransform = errors.New("malformed transform expression")

// Transform maps a value of the inner semiring to a number the outer semiring
// can lift with FromValue. The serialized form is a restricted expression over
// the projections of the inner value, not executable code:
//
//	expr := term | term "/" term
//	term := "value" | "first" | "second"
//
// It is parsed once at CNF construction time into a typed closure.
type Transform struct {
	expr  string
	apply func(Value) (float64, error)
}

func projection(term string) (func(Value) (float64, error), error) {
	switch term {
	case "value":
		return func(v Value) (float64, error) {
			return v.Float(), nil
		}, nil
	case "first":
		return func(v Value) (float64, error) {
			p, ok := v.(Pair)
			if !ok {
				return 0, fmt.Errorf("%w: value has no components", ErrBadTransform)
			}
			return p.First(), nil
		}, nil
	case "second":
		return func(v Value) (float64, error) {
			p, ok := v.(Pair)
			if !ok {
				return 0, fmt.Errorf("%w: value has no components", ErrBadTransform)
			}
			return p.Second(), nil
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown term %q", ErrBadTransform, term)
}

// ParseTransform parses the serialized form of a transform
func ParseTransform(expr string) (*Transform, error) {
	trimmed := strings.TrimSpace(expr)
	parts := strings.Split(trimmed, "/")
	switch len(parts) {
	case 1:
		proj, err := projection(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		return &Transform{expr: trimmed, apply: proj}, nil
	case 2:
		num, err := projection(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		den, err := projection(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		apply := func(v Value) (float64, error) {
			n, err := num(v)
			if err != nil {
				return 0, err
			}
			d, err := den(v)
			if err != nil {
				return 0, err
			}
			if d == 0 {
				return 0, nil
			}
			return n / d, nil
		}
		return &Transform{expr: trimmed, apply: apply}, nil
	}
	return nil, ErrBadTransform
}

// Apply folds an inner value into the outer semiring
func (t *Transform) Apply(outer Semiring, v Value) (Value, error) {
	f, err := t.apply(v)
	if err != nil {
		return nil, err
	}
	return outer.FromValue(f), nil
}

// String returns the serialized form of the transform
func (t *Transform) String() string {
	return t.expr
}
