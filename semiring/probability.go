package semiring

import "strconv"

// Prob is a probability in [0,1]
type Prob float64

// Float returns the probability as a plain number
func (p Prob) Float() float64 {
	return float64(p)
}

// Probability is the standard probabilistic semiring ([0,1], +, *)
type Probability struct{}

func (Probability) Name() string {
	return "probability"
}

func (Probability) Zero() Value {
	return Prob(0)
}

func (Probability) One() Value {
	return Prob(1)
}

func (Probability) Add(a, b Value) Value {
	return Prob(a.(Prob) + b.(Prob))
}

func (Probability) Mul(a, b Value) Value {
	return Prob(a.(Prob) * b.(Prob))
}

func (Probability) Parse(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrBadValue
	}
	return Prob(f), nil
}

func (Probability) Format(v Value) string {
	return strconv.FormatFloat(float64(v.(Prob)), 'g', -1, 64)
}

// Negate returns the complementary probability
func (Probability) Negate(v Value) Value {
	return Prob(1 - v.(Prob))
}

func (Probability) FromValue(f float64) Value {
	return Prob(f)
}

func (Probability) Eq(a, b Value) bool {
	return a.(Prob) == b.(Prob)
}

func (Probability) Idempotent() bool {
	return false
}
