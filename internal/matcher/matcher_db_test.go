package matcher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/david-shiko/rubik-sub000/internal/db"
	"github.com/david-shiko/rubik-sub000/internal/db/dbtest"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/matcher"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// seedCommunity creates an owner (1) with three liked posts and:
//
//	user 2  female, DE, likes all three posts, has a photo
//	user 3  male, RU/Moscow, likes one post
//	user 4  dislikes what the owner likes
func seedCommunity(t *testing.T, database *gorm.DB) {
	t.Helper()

	users := []db.User{
		{ID: 1, Goal: int8(matcher.GoalDate), Gender: int8(matcher.GenderMale), Age: 30, Country: "RU", City: "Moscow"},
		{ID: 2, Goal: int8(matcher.GoalDate), Gender: int8(matcher.GenderFemale), Age: 25, Country: "DE", City: "Berlin"},
		{ID: 3, Goal: int8(matcher.GoalChat), Gender: int8(matcher.GenderMale), Age: 40, Country: "RU", City: "Moscow"},
		{ID: 4, Goal: int8(matcher.GoalBoth), Gender: int8(matcher.GenderFemale), Age: 22, Country: "RU", City: "Kazan"},
	}
	require.NoError(t, database.Create(&users).Error)

	for _, id := range []uint64{10, 11, 12} {
		require.NoError(t, database.Create(&db.PublicPost{ID: id, AuthorID: 99}).Error)
	}

	votes := []db.PublicVote{
		{UserID: 1, PostID: 10, Value: 1},
		{UserID: 1, PostID: 11, Value: 1},
		{UserID: 1, PostID: 12, Value: 1},
		{UserID: 2, PostID: 10, Value: 1},
		{UserID: 2, PostID: 11, Value: 1},
		{UserID: 2, PostID: 12, Value: 1},
		{UserID: 3, PostID: 10, Value: 1},
		{UserID: 3, PostID: 11, Value: -1},
		{UserID: 4, PostID: 10, Value: -1},
	}
	require.NoError(t, database.Create(&votes).Error)
	require.NoError(t, database.Create(&db.UserPhoto{UserID: 2, FileID: "photo-2"}).Error)
}

func userIDs(covotes []*matcher.Covote) []uint64 {
	out := make([]uint64, 0, len(covotes))
	for _, c := range covotes {
		out = append(out, c.UserID)
	}
	return out
}

func TestMakeSearchAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	database, conn := dbtest.Open(t)
	seedCommunity(t, database)

	st := store.New(nil, logger.Discard())
	m := matcher.New(1, st, matcher.NewFilters(18, 99), logger.Discard())

	res, err := m.MakeSearch(ctx, conn, false, false)
	require.NoError(t, err)
	assert.Equal(t, 3, m.UserVotesCount)
	assert.True(t, m.IsUserHasCovotes)
	// weakest overlap first so popping yields the best match
	assert.Equal(t, []uint64{3, 2}, userIDs(res))

	m.SetMatches()
	best := m.GetMatch(true)
	require.NotNil(t, best)
	assert.Equal(t, uint64(2), best.UserID)
	assert.Equal(t, 100, best.Stats.CommonPostsPerc)

	next := m.GetMatch(true)
	require.NotNil(t, next)
	assert.Equal(t, uint64(3), next.UserID)
	assert.Equal(t, 33, next.Stats.CommonPostsPerc)
	assert.Nil(t, m.GetMatch(true))
}

func TestFiltersAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	database, conn := dbtest.Open(t)
	seedCommunity(t, database)
	st := store.New(nil, logger.Discard())

	tests := []struct {
		name   string
		modify func(f *matcher.Filters)
		want   []uint64
	}{
		{"gender", func(f *matcher.Filters) { _ = f.SetGender(matcher.GenderFemale) }, []uint64{2}},
		{"goal", func(f *matcher.Filters) { _ = f.SetGoal(matcher.GoalChat) }, []uint64{3}},
		{"age", func(f *matcher.Filters) { _ = f.SetAgeRange(35, 45) }, []uint64{3}},
		{"country", func(f *matcher.Filters) { f.Checkboxes.Country = true }, []uint64{3}},
		{"city", func(f *matcher.Filters) { f.Checkboxes.City = true }, []uint64{3}},
		{"photo", func(f *matcher.Filters) { f.Checkboxes.Photo = true }, []uint64{2}},
		{"age checkbox off", func(f *matcher.Filters) {
			_ = f.SetAgeRange(35, 45)
			f.Checkboxes.Age = false
		}, []uint64{3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := matcher.NewFilters(18, 99)
			tt.modify(f)
			m := matcher.New(1, st, f, nil)

			// covotes left narrowed by the previous case are rebuilt
			res, err := m.MakeSearch(ctx, conn, false, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, userIDs(res))
		})
	}
}

func TestShownMatchesLeaveNewPartition(t *testing.T) {
	ctx := context.Background()
	database, conn := dbtest.Open(t)
	seedCommunity(t, database)
	st := store.New(nil, logger.Discard())

	m := matcher.New(1, st, matcher.NewFilters(18, 99), nil)
	_, err := m.MakeSearch(ctx, conn, false, false)
	require.NoError(t, err)
	m.SetMatches()
	require.Len(t, m.Matches.New, 2)

	shown := m.GetMatch(true)
	require.NoError(t, m.MarkShown(ctx, conn, shown))
	// marking twice is harmless
	require.NoError(t, m.MarkShown(ctx, conn, shown))

	_, err = m.MakeSearch(ctx, conn, false, false)
	require.NoError(t, err)
	m.SetMatches()

	assert.Equal(t, 2, m.Matches.Raw.CountAll)
	assert.Equal(t, 1, m.Matches.Raw.CountNew)
	require.Len(t, m.Matches.New, 1)
	assert.Equal(t, uint64(3), m.Matches.New[0].UserID)
	assert.Same(t, m.Matches.Raw.New[0], m.Matches.Raw.All[0])
}

func TestWorkingSetsAreIsolatedPerOwner(t *testing.T) {
	ctx := context.Background()
	database, conn := dbtest.Open(t)
	seedCommunity(t, database)
	st := store.New(nil, logger.Discard())

	owner := matcher.New(1, st, matcher.NewFilters(18, 99), nil)
	other := matcher.New(2, st, matcher.NewFilters(18, 99), nil)

	_, err := owner.MakeSearch(ctx, conn, false, false)
	require.NoError(t, err)
	res, err := other.MakeSearch(ctx, conn, false, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, userIDs(res))

	require.NoError(t, other.Drop(ctx, conn))

	var left int64
	require.NoError(t, database.Model(&db.MatcherCovote{}).Where("owner_id = ?", 1).Count(&left).Error)
	assert.Equal(t, int64(2), left)
	require.NoError(t, database.Model(&db.MatcherCovote{}).Where("owner_id = ?", 2).Count(&left).Error)
	assert.Equal(t, int64(0), left)
}
