package semiring

import (
	"math"
	"strconv"
)

// Trop is a value of one of the tropical semirings
type Trop float64

// Float returns the value as a plain number
func (t Trop) Float() float64 {
	return float64(t)
}

func parseTrop(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrBadValue
	}
	return Trop(f), nil
}

func formatTrop(v Value) string {
	return strconv.FormatFloat(float64(v.(Trop)), 'g', -1, 64)
}

// MaxPlus is the tropical semiring (R ∪ {-inf}, max, +)
type MaxPlus struct{}

func (MaxPlus) Name() string {
	return "maxplus"
}

func (MaxPlus) Zero() Value {
	return Trop(math.Inf(-1))
}

func (MaxPlus) One() Value {
	return Trop(0)
}

func (MaxPlus) Add(a, b Value) Value {
	if a.(Trop) >= b.(Trop) {
		return a
	}
	return b
}

func (MaxPlus) Mul(a, b Value) Value {
	return Trop(a.(Trop) + b.(Trop))
}

func (MaxPlus) Parse(s string) (Value, error) {
	return parseTrop(s)
}

func (MaxPlus) Format(v Value) string {
	return formatTrop(v)
}

func (MaxPlus) Negate(v Value) Value {
	return Trop(math.Inf(-1))
}

func (MaxPlus) FromValue(f float64) Value {
	return Trop(f)
}

func (MaxPlus) Eq(a, b Value) bool {
	return a.(Trop) == b.(Trop)
}

func (MaxPlus) Idempotent() bool {
	return true
}

// MaxTimes is the tropical semiring ([0,inf), max, *)
type MaxTimes struct{}

func (MaxTimes) Name() string {
	return "maxtimes"
}

func (MaxTimes) Zero() Value {
	return Trop(0)
}

func (MaxTimes) One() Value {
	return Trop(1)
}

func (MaxTimes) Add(a, b Value) Value {
	if a.(Trop) >= b.(Trop) {
		return a
	}
	return b
}

func (MaxTimes) Mul(a, b Value) Value {
	return Trop(a.(Trop) * b.(Trop))
}

func (MaxTimes) Parse(s string) (Value, error) {
	return parseTrop(s)
}

func (MaxTimes) Format(v Value) string {
	return formatTrop(v)
}

func (MaxTimes) Negate(v Value) Value {
	return Trop(0)
}

func (MaxTimes) FromValue(f float64) Value {
	return Trop(f)
}

func (MaxTimes) Eq(a, b Value) bool {
	return a.(Trop) == b.(Trop)
}

func (MaxTimes) Idempotent() bool {
	return true
}

// MinPlus is the tropical semiring (R ∪ {inf}, min, +)
type MinPlus struct{}

func (MinPlus) Name() string {
	return "minplus"
}

func (MinPlus) Zero() Value {
	return Trop(math.Inf(1))
}

func (MinPlus) One() Value {
	return Trop(0)
}

func (MinPlus) Add(a, b Value) Value {
	if a.(Trop) <= b.(Trop) {
		return a
	}
	return b
}

func (MinPlus) Mul(a, b Value) Value {
	return Trop(a.(Trop) + b.(Trop))
}

func (MinPlus) Parse(s string) (Value, error) {
	return parseTrop(s)
}

func (MinPlus) Format(v Value) string {
	return formatTrop(v)
}

func (MinPlus) Negate(v Value) Value {
	return Trop(math.Inf(1))
}

func (MinPlus) FromValue(f float64) Value {
	return Trop(f)
}

func (MinPlus) Eq(a, b Value) bool {
	return a.(Trop) == b.(Trop)
}

func (MinPlus) Idempotent() bool {
	return true
}
