package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/matcher"
)

func TestNewFiltersDefaults(t *testing.T) {
	f := matcher.NewFilters(18, 99)

	assert.Nil(t, f.Goal)
	assert.Nil(t, f.Gender)
	assert.Nil(t, f.AgeRange)
	assert.True(t, f.Checkboxes.Age)
	assert.False(t, f.Checkboxes.Photo)
	assert.False(t, f.Checkboxes.Country)
	assert.False(t, f.Checkboxes.City)
	assert.Equal(t, matcher.MatchAll, f.MatchType)
	assert.Equal(t, matcher.AgeRange{Min: 18, Max: 99}, f.Age())
}

func TestSetAgeRangeSorts(t *testing.T) {
	f := matcher.NewFilters(18, 99)

	require.NoError(t, f.SetAgeRange(50, 20))
	require.NotNil(t, f.AgeRange)
	assert.Equal(t, matcher.AgeRange{Min: 20, Max: 50}, *f.AgeRange)

	// the full range means no constraint
	require.NoError(t, f.SetAgeRange(99, 18))
	assert.Nil(t, f.AgeRange)

	err := f.SetAgeRange(10, 30)
	assert.True(t, apperr.IsValidation(err))
	assert.Nil(t, f.AgeRange)
}

func TestBothClearsConstraint(t *testing.T) {
	f := matcher.NewFilters(18, 99)

	require.NoError(t, f.SetGoal(matcher.GoalDate))
	require.NotNil(t, f.Goal)
	assert.Equal(t, matcher.GoalDate, *f.Goal)
	require.NoError(t, f.SetGoal(matcher.GoalBoth))
	assert.Nil(t, f.Goal)

	require.NoError(t, f.SetGender(matcher.GenderFemale))
	require.NotNil(t, f.Gender)
	require.NoError(t, f.SetGender(matcher.GenderBoth))
	assert.Nil(t, f.Gender)
}

func TestFiltersRejectUnknownValues(t *testing.T) {
	f := matcher.NewFilters(18, 99)

	assert.True(t, apperr.IsValidation(f.SetGoal(matcher.Goal(5))))
	assert.True(t, apperr.IsValidation(f.SetGender(matcher.Gender(-1))))
	assert.True(t, apperr.IsValidation(f.SetMatchType(matcher.MatchType(3))))
	require.NoError(t, f.SetMatchType(matcher.MatchNew))
	assert.Equal(t, matcher.MatchNew, f.MatchType)
}
