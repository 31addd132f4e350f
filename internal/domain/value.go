// Package domain holds the vote and post entities and their acceptance
// state machines.
package domain

import (
	"fmt"

	"github.com/david-shiko/rubik-sub000/internal/logger"
)

// Value is a tri-state vote value.
type Value int

const (
	Negative Value = -1
	Zero     Value = 0
	Positive Value = 1
)

// Valid reports whether v belongs to the full value set.
func (v Value) Valid() bool { return v >= Negative && v <= Positive }

// Votable reports whether v is a real opinion, i.e. not Zero.
func (v Value) Votable() bool { return v == Negative || v == Positive }

func (v Value) String() string {
	switch v {
	case Negative:
		return "negative"
	case Zero:
		return "zero"
	case Positive:
		return "positive"
	default:
		return fmt.Sprintf("value(%d)", int(v))
	}
}

// IsAcceptVote reports whether incoming may be applied on top of current.
// The transition is accepted iff current+incoming is itself a valid value,
// so repeating a vote in the same direction is rejected and opposite votes
// cancel out to Zero.
func IsAcceptVote(current, incoming Value) bool {
	return (current + incoming).Valid()
}

// ConvertValue clamps raw into the value set. When onlyVotable is requested
// but raw resolves to Zero the full set is used instead and a warning is
// logged.
func ConvertValue(raw int, onlyVotable bool) Value {
	v := Value(raw)
	if v < Negative {
		v = Negative
	}
	if v > Positive {
		v = Positive
	}
	if onlyVotable && !v.Votable() {
		logger.Warn("vote value is not votable, falling back to full set", "raw", raw)
	}
	return v
}
