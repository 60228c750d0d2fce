package semiring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decided carries a numeric weight together with the bitmask of decisions
// that achieved it. Ordering and equality ignore the bitmask.
type Decided struct {
	V         float64
	Decisions uint64
}

// Float returns the numeric component
func (d Decided) Float() float64 {
	return d.V
}

func parseDecided(s string) (Value, error) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, ErrBadValue
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return nil, ErrBadValue
	}
	v, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, ErrBadValue
	}
	d, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, ErrBadValue
	}
	return Decided{V: v, Decisions: d}, nil
}

func formatDecided(v Value) string {
	d := v.(Decided)
	return fmt.Sprintf("(%s,%d)", strconv.FormatFloat(d.V, 'g', -1, 64), d.Decisions)
}

// MaxPlusDecisions is the maxplus semiring with a decision payload,
// used for MPE/MEU style queries where the witness matters
type MaxPlusDecisions struct{}

func (MaxPlusDecisions) Name() string {
	return "maxplusdecisions"
}

func (MaxPlusDecisions) Zero() Value {
	return Decided{V: math.Inf(-1)}
}

func (MaxPlusDecisions) One() Value {
	return Decided{V: 0}
}

func (MaxPlusDecisions) Add(a, b Value) Value {
	if a.(Decided).V >= b.(Decided).V {
		return a
	}
	return b
}

func (MaxPlusDecisions) Mul(a, b Value) Value {
	da, db := a.(Decided), b.(Decided)
	return Decided{V: da.V + db.V, Decisions: da.Decisions | db.Decisions}
}

func (MaxPlusDecisions) Parse(s string) (Value, error) {
	return parseDecided(s)
}

func (MaxPlusDecisions) Format(v Value) string {
	return formatDecided(v)
}

// Negate returns the unit, negated decision atoms carry no payload
func (MaxPlusDecisions) Negate(v Value) Value {
	return Decided{V: 0}
}

func (MaxPlusDecisions) FromValue(f float64) Value {
	return Decided{V: f}
}

func (MaxPlusDecisions) Eq(a, b Value) bool {
	return a.(Decided).V == b.(Decided).V
}

func (MaxPlusDecisions) Idempotent() bool {
	return true
}

// MaxTimesDecisions is the maxtimes semiring with a decision payload
type MaxTimesDecisions struct{}

func (MaxTimesDecisions) Name() string {
	return "maxtimesdecisions"
}

func (MaxTimesDecisions) Zero() Value {
	return Decided{V: math.Inf(-1)}
}

func (MaxTimesDecisions) One() Value {
	return Decided{V: 1}
}

func (MaxTimesDecisions) Add(a, b Value) Value {
	if a.(Decided).V >= b.(Decided).V {
		return a
	}
	return b
}

func (MaxTimesDecisions) Mul(a, b Value) Value {
	da, db := a.(Decided), b.(Decided)
	return Decided{V: da.V * db.V, Decisions: da.Decisions | db.Decisions}
}

func (MaxTimesDecisions) Parse(s string) (Value, error) {
	return parseDecided(s)
}

func (MaxTimesDecisions) Format(v Value) string {
	return formatDecided(v)
}

func (MaxTimesDecisions) Negate(v Value) Value {
	return Decided{V: 1}
}

func (MaxTimesDecisions) FromValue(f float64) Value {
	return Decided{V: f}
}

func (MaxTimesDecisions) Eq(a, b Value) bool {
	return a.(Decided).V == b.(Decided).V
}

func (MaxTimesDecisions) Idempotent() bool {
	return true
}
