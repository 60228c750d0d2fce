package semiring

import (
	"fmt"
	"math/big"
	"strings"
)

// NatPair is a pair of naturals, typically a model count over a total count
type NatPair struct {
	A *big.Int
	B *big.Int
}

// Float returns the quotient of the two components
func (p NatPair) Float() float64 {
	if p.B.Sign() == 0 {
		return 0
	}
	q := new(big.Rat).SetFrac(p.A, p.B)
	f, _ := q.Float64()
	return f
}

// First returns the first component as a plain number
func (p NatPair) First() float64 {
	f, _ := new(big.Float).SetInt(p.A).Float64()
	return f
}

// Second returns the second component as a plain number
func (p NatPair) Second() float64 {
	f, _ := new(big.Float).SetInt(p.B).Float64()
	return f
}

// TwoNat is the semiring of pairs of naturals with componentwise operations.
// It is used as the inner level of two-level counting where the second
// component tracks the total count the first one is normalized by.
type TwoNat struct{}

func (TwoNat) Name() string {
	return "twonat"
}

func (TwoNat) Zero() Value {
	return NatPair{A: big.NewInt(0), B: big.NewInt(0)}
}

func (TwoNat) One() Value {
	return NatPair{A: big.NewInt(1), B: big.NewInt(1)}
}

func (TwoNat) Add(a, b Value) Value {
	pa, pb := a.(NatPair), b.(NatPair)
	return NatPair{
		A: new(big.Int).Add(pa.A, pb.A),
		B: new(big.Int).Add(pa.B, pb.B),
	}
}

func (TwoNat) Mul(a, b Value) Value {
	pa, pb := a.(NatPair), b.(NatPair)
	return NatPair{
		A: new(big.Int).Mul(pa.A, pb.A),
		B: new(big.Int).Mul(pa.B, pb.B),
	}
}

// Parse reads a pair serialized as `a,b`. A single natural `a` is read as `a,a`.
func (TwoNat) Parse(s string) (Value, error) {
	parts := strings.Split(s, ",")
	switch len(parts) {
	case 1:
		a, ok := new(big.Int).SetString(parts[0], 10)
		if !ok {
			return nil, ErrBadValue
		}
		return NatPair{A: a, B: new(big.Int).Set(a)}, nil
	case 2:
		a, ok := new(big.Int).SetString(parts[0], 10)
		if !ok {
			return nil, ErrBadValue
		}
		b, ok := new(big.Int).SetString(parts[1], 10)
		if !ok {
			return nil, ErrBadValue
		}
		return NatPair{A: a, B: b}, nil
	}
	return nil, ErrBadValue
}

func (TwoNat) Format(v Value) string {
	p := v.(NatPair)
	return fmt.Sprintf("%s,%s", p.A.String(), p.B.String())
}

// Negate keeps the total count and zeroes the tracked one
func (TwoNat) Negate(v Value) Value {
	p := v.(NatPair)
	return NatPair{A: big.NewInt(0), B: new(big.Int).Set(p.B)}
}

func (TwoNat) FromValue(f float64) Value {
	a, _ := new(big.Float).SetFloat64(f).Int(nil)
	return NatPair{A: a, B: big.NewInt(1)}
}

func (TwoNat) Eq(a, b Value) bool {
	pa, pb := a.(NatPair), b.(NatPair)
	return pa.A.Cmp(pb.A) == 0 && pa.B.Cmp(pb.B) == 0
}

func (TwoNat) Idempotent() bool {
	return false
}
