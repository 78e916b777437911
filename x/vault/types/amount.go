package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// Amount is a tagged request quantity: either an exact number of
// principal units / shares, or "everything the owner has". Using a
// variant instead of a numeric sentinel removes any ambiguity with
// legitimately large values.
type Amount struct {
	All   bool     `json:"all,omitempty"`
	Value math.Int `json:"value,omitempty"`
}

// AmountAll requests the owner's full position.
func AmountAll() Amount {
	return Amount{All: true, Value: math.ZeroInt()}
}

// AmountExact requests a specific quantity.
func AmountExact(v math.Int) Amount {
	return Amount{Value: v}
}

// ParseAmount parses the wire form of an Amount: the literal "all", or a
// base-10 integer.
func ParseAmount(s string) (Amount, error) {
	if s == "all" {
		return AmountAll(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return AmountExact(v), nil
}

// IsZero reports whether an exact amount is zero. An "all" amount is
// never zero at parse time; it resolves against the owner's balance.
func (a Amount) IsZero() bool {
	return !a.All && a.Value.IsZero()
}

// String returns the wire form.
func (a Amount) String() string {
	if a.All {
		return "all"
	}
	return a.Value.String()
}
