package matcher

import (
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
)

type Goal int8

const (
	GoalChat Goal = iota
	GoalDate
	GoalBoth
)

func (g Goal) Valid() bool { return g >= GoalChat && g <= GoalBoth }

type Gender int8

const (
	GenderMale Gender = iota
	GenderFemale
	GenderBoth
)

func (g Gender) Valid() bool { return g >= GenderMale && g <= GenderBoth }

// MatchType selects which partition GetMatch iterates.
type MatchType int8

const (
	MatchAll MatchType = iota
	MatchNew
)

// AgeRange is an inclusive, ascending age interval.
type AgeRange struct {
	Min int
	Max int
}

// Checkboxes are the boolean filters. Age gates the age range filter.
type Checkboxes struct {
	Age     bool
	Photo   bool
	Country bool
	City    bool
}

// Filters is the search configuration of one matcher. A nil constraint
// means "no constraint" and its filter never touches the store.
type Filters struct {
	Goal       *Goal
	Gender     *Gender
	AgeRange   *AgeRange
	Checkboxes Checkboxes
	MatchType  MatchType

	minAge int
	maxAge int
}

// NewFilters returns unconstrained filters for ages in [minAge, maxAge].
func NewFilters(minAge, maxAge int) *Filters {
	if minAge > maxAge {
		minAge, maxAge = maxAge, minAge
	}
	return &Filters{
		Checkboxes: Checkboxes{Age: true},
		minAge:     minAge,
		maxAge:     maxAge,
	}
}

// SetGoal constrains the goal. GoalBoth clears the constraint.
func (f *Filters) SetGoal(g Goal) error {
	if !g.Valid() {
		return apperr.Invalid("goal", "unknown goal %d", g)
	}
	if g == GoalBoth {
		f.Goal = nil
		return nil
	}
	f.Goal = &g
	return nil
}

// SetGender constrains the gender. GenderBoth clears the constraint.
func (f *Filters) SetGender(g Gender) error {
	if !g.Valid() {
		return apperr.Invalid("gender", "unknown gender %d", g)
	}
	if g == GenderBoth {
		f.Gender = nil
		return nil
	}
	f.Gender = &g
	return nil
}

// SetAgeRange stores the pair sorted ascending. The full declared range
// clears the constraint.
func (f *Filters) SetAgeRange(a, b int) error {
	if a > b {
		a, b = b, a
	}
	if a < f.minAge || b > f.maxAge {
		return apperr.Invalid("age_range", "must be within %d..%d", f.minAge, f.maxAge)
	}
	if a == f.minAge && b == f.maxAge {
		f.AgeRange = nil
		return nil
	}
	f.AgeRange = &AgeRange{Min: a, Max: b}
	return nil
}

// Age returns the effective age range, the full bounds when unconstrained.
func (f *Filters) Age() AgeRange {
	if f.AgeRange == nil {
		return AgeRange{Min: f.minAge, Max: f.maxAge}
	}
	return *f.AgeRange
}

func (f *Filters) SetMatchType(t MatchType) error {
	if t != MatchAll && t != MatchNew {
		return apperr.Invalid("match_type", "unknown match type %d", t)
	}
	f.MatchType = t
	return nil
}
