package store_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-shiko/rubik-sub000/internal/db/dbtest"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

type collectionRow struct {
	ID       uint64 `db:"id"`
	AuthorID uint64 `db:"author_id"`
	Name     string `db:"name"`
}

type voteRow struct {
	UserID    uint64 `db:"user_id"`
	PostID    uint64 `db:"post_id"`
	MessageID int64  `db:"message_id"`
	Value     int8   `db:"value"`
}

func TestRequiresConnection(t *testing.T) {
	ctx := context.Background()
	s := store.New(nil, logger.Discard())

	var conn *sqlx.DB
	_, err := s.Read(ctx, conn, store.CollectionReadByAuthor, &[]collectionRow{}, 1)
	assert.ErrorIs(t, err, apperr.ErrNoConnection)

	_, err = s.Create(ctx, nil, store.UserCreate, 1)
	assert.ErrorIs(t, err, apperr.ErrNoConnection)

	assert.ErrorIs(t, s.Execute(ctx, nil, store.MatcherVotesDrop, 1), apperr.ErrNoConnection)
	assert.False(t, apperr.IsKnown(apperr.ErrNoConnection))
}

func TestCreateReturnsNilOnConflict(t *testing.T) {
	ctx := context.Background()
	_, conn := dbtest.Open(t)
	s := store.New(nil, logger.Discard())

	id, err := s.Create(ctx, conn, store.CollectionCreate, 7, "travel")
	require.NoError(t, err)
	require.NotNil(t, id)

	again, err := s.Create(ctx, conn, store.CollectionCreate, 7, "travel")
	require.NoError(t, err)
	assert.Nil(t, again)

	var existing uint64
	found, err := s.Read(ctx, conn, store.CollectionReadIDByName, &existing, 7, "travel")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, *id, existing)
}

func TestReadOneAndAll(t *testing.T) {
	ctx := context.Background()
	_, conn := dbtest.Open(t)
	s := store.New(nil, logger.Discard())

	var missing collectionRow
	found, err := s.Read(ctx, conn, store.CollectionReadIDByName, &missing.ID, 1, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	first, err := s.Create(ctx, conn, store.CollectionCreate, 1, "a")
	require.NoError(t, err)
	second, err := s.Create(ctx, conn, store.CollectionCreate, 1, "b")
	require.NoError(t, err)
	_, err = s.Create(ctx, conn, store.CollectionCreate, 2, "c")
	require.NoError(t, err)

	// slice arguments expand into IN (?)
	var rows []collectionRow
	found, err = s.Read(ctx, conn, store.CollectionReadByIDs, &rows, []uint64{*first, *second})
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, "b", rows[1].Name)

	var none []collectionRow
	found, err = s.Read(ctx, conn, store.CollectionReadByAuthor, &none, 99)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, none)
}

func TestVoteSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	_, conn := dbtest.Open(t)
	s := store.New(nil, logger.Discard())

	require.NoError(t, s.Update(ctx, conn, store.PublicVoteSave, 1, 10, 100, 1))
	require.NoError(t, s.Update(ctx, conn, store.PublicVoteSave, 1, 10, 101, 0))

	var v voteRow
	found, err := s.Read(ctx, conn, store.PublicVoteRead, &v, 1, 10)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int8(0), v.Value)
	assert.Equal(t, int64(101), v.MessageID)
}

func TestUnknownStatement(t *testing.T) {
	_, conn := dbtest.Open(t)
	s := store.New(&store.MapRegistry{}, logger.Discard())

	err := s.Execute(context.Background(), conn, store.MatcherVotesDrop, 1)
	assert.ErrorContains(t, err, "unknown statement")
}

func TestRegistryOverrides(t *testing.T) {
	reg := store.DefaultRegistry()

	sqlite, ok := reg.Lookup(store.CollectionCreate, "sqlite3")
	require.True(t, ok)
	assert.Contains(t, sqlite, "INSERT OR IGNORE")

	mysql, ok := reg.Lookup(store.CollectionCreate, "mysql")
	require.True(t, ok)
	assert.Contains(t, mysql, "INSERT IGNORE")

	upsert, ok := reg.Lookup(store.PublicVoteSave, "mysql")
	require.True(t, ok)
	assert.Contains(t, upsert, "ON DUPLICATE KEY UPDATE")

	// statements without an override fall back to the base text
	base, _ := reg.Lookup(store.MatcherVotesDrop, "sqlite3")
	viaMySQL, _ := reg.Lookup(store.MatcherVotesDrop, "mysql")
	assert.Equal(t, base, viaMySQL)
}
