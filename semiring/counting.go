package semiring

import "math/big"

// Count is an arbitrary precision model count
type Count struct {
	N *big.Int
}

// Float returns the count as a plain number
func (c Count) Float() float64 {
	f, _ := new(big.Float).SetInt(c.N).Float64()
	return f
}

// Counting is the counting semiring (N, +, *). It backs the unit-multiplicity
// mode used when a CNF declares no semirings at all.
type Counting struct{}

func (Counting) Name() string {
	return "counting"
}

func (Counting) Zero() Value {
	return Count{N: big.NewInt(0)}
}

func (Counting) One() Value {
	return Count{N: big.NewInt(1)}
}

func (Counting) Add(a, b Value) Value {
	return Count{N: new(big.Int).Add(a.(Count).N, b.(Count).N)}
}

func (Counting) Mul(a, b Value) Value {
	return Count{N: new(big.Int).Mul(a.(Count).N, b.(Count).N)}
}

func (Counting) Parse(s string) (Value, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrBadValue
	}
	return Count{N: n}, nil
}

func (Counting) Format(v Value) string {
	return v.(Count).N.String()
}

func (Counting) Negate(v Value) Value {
	return Count{N: big.NewInt(1)}
}

func (Counting) FromValue(f float64) Value {
	n, _ := new(big.Float).SetFloat64(f).Int(nil)
	return Count{N: n}
}

func (Counting) Eq(a, b Value) bool {
	return a.(Count).N.Cmp(b.(Count).N) == 0
}

func (Counting) Idempotent() bool {
	return false
}
