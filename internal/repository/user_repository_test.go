package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-shiko/rubik-sub000/internal/db"
	"github.com/david-shiko/rubik-sub000/internal/db/dbtest"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/repository"
)

func TestSaveProfileUpserts(t *testing.T) {
	ctx := context.Background()
	database, _ := dbtest.Open(t)
	repo := repository.NewUserRepository(database)

	require.NoError(t, repo.SaveProfile(ctx, &db.User{ID: 1, Goal: 1, Age: 30, City: "Moscow"}))
	// zero values overwrite too
	require.NoError(t, repo.SaveProfile(ctx, &db.User{ID: 1, Goal: 0, Age: 31, City: "Kazan"}))

	u, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int8(0), u.Goal)
	assert.Equal(t, 31, u.Age)
	assert.Equal(t, "Kazan", u.City)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetMissingUser(t *testing.T) {
	database, _ := dbtest.Open(t)
	repo := repository.NewUserRepository(database)

	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReplacePhotos(t *testing.T) {
	ctx := context.Background()
	database, _ := dbtest.Open(t)
	repo := repository.NewUserRepository(database)

	require.NoError(t, repo.ReplacePhotos(ctx, 1, []string{"a", "b"}))
	require.NoError(t, repo.ReplacePhotos(ctx, 1, []string{"c"}))
	require.NoError(t, repo.ReplacePhotos(ctx, 2, []string{"d"}))

	photos, err := repo.Photos(ctx, 1)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "c", photos[0].FileID)

	require.NoError(t, repo.ReplacePhotos(ctx, 1, nil))
	photos, err = repo.Photos(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, photos)
}
