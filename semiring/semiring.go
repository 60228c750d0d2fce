package semiring

import "errors"

var (
	// ErrUnknownSemiring is returned when a semiring tag is not registered
	ErrUnknownSemiring = errors.New("unknown semiring")
	// ErrBadValue is returned when a serialized value does not match the semiring's format
	ErrBadValue = errors.New("malformed semiring value")
)

// Value is a single element of a semiring.
// Float returns the numeric component of the value,
// which is all that equality and ordering are defined on.
type Value interface {
	Float() float64
}

// Pair is a value with two numeric components, such as a twonat fraction.
type Pair interface {
	Value
	First() float64
	Second() float64
}

// Semiring is a pluggable algebraic value type. Add must be commutative and
// associative, Mul associative and distributing over Add.
type Semiring interface {
	// Name is the tag used in `c p semirings` lines
	Name() string
	// Zero is the neutral element of Add
	Zero() Value
	// One is the neutral element of Mul
	One() Value
	Add(a, b Value) Value
	Mul(a, b Value) Value
	// Parse reads a value from its serialized form
	Parse(s string) (Value, error)
	// Format is the inverse of Parse
	Format(v Value) string
	// Negate derives the weight of a default negation, it need not be an inverse
	Negate(v Value) Value
	// FromValue lifts a plain number into the semiring, used after a transform
	FromValue(f float64) Value
	// Eq compares the numeric components of two values
	Eq(a, b Value) bool
	// Idempotent reports whether Add(a, a) == a holds for all a
	Idempotent() bool
}

// Get resolves a semiring tag against the closed registry.
// Resolution happens once at CNF construction time, never during evaluation.
func Get(name string) (Semiring, error) {
	switch name {
	case "probability":
		return Probability{}, nil
	case "maxplus":
		return MaxPlus{}, nil
	case "maxtimes":
		return MaxTimes{}, nil
	case "minplus":
		return MinPlus{}, nil
	case "twonat":
		return TwoNat{}, nil
	case "maxplusdecisions":
		return MaxPlusDecisions{}, nil
	case "maxtimesdecisions":
		return MaxTimesDecisions{}, nil
	case "counting":
		return Counting{}, nil
	}
	return nil, ErrUnknownSemiring
}

// Names lists the registered semiring tags
func Names() []string {
	return []string{
		"probability",
		"maxplus",
		"maxtimes",
		"minplus",
		"twonat",
		"maxplusdecisions",
		"maxtimesdecisions",
		"counting",
	}
}
