package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/david-shiko/rubik-sub000/internal/db/dbtest"
	"github.com/david-shiko/rubik-sub000/internal/domain"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/store"
	"github.com/david-shiko/rubik-sub000/internal/store/storetest"
)

func TestAcceptVoteValueCounters(t *testing.T) {
	p := &domain.PublicPost{ID: 1}

	assert.True(t, p.AcceptVoteValue(domain.Zero, domain.Positive))
	assert.Equal(t, 1, p.LikesCount)
	assert.Equal(t, 0, p.DislikesCount)

	assert.True(t, p.AcceptVoteValue(domain.Zero, domain.Negative))
	assert.Equal(t, 1, p.LikesCount)
	assert.Equal(t, 1, p.DislikesCount)

	assert.True(t, p.AcceptVoteValue(domain.Negative, domain.Positive))
	assert.Equal(t, 1, p.LikesCount)
	assert.Equal(t, 0, p.DislikesCount)
}

// Every accepted transition moves exactly one counter by one, so a like
// followed by a dislike only cancels the like; the dislike needs a second
// negative vote from zero.
func TestPositiveThenNegativeCancelsToZero(t *testing.T) {
	p := &domain.PublicPost{ID: 1}

	require.True(t, p.AcceptVoteValue(domain.Zero, domain.Positive))
	require.True(t, p.AcceptVoteValue(domain.Positive, domain.Negative))
	assert.Equal(t, 0, p.LikesCount)
	assert.Equal(t, 0, p.DislikesCount)

	// the stored vote is back to zero
	require.True(t, p.AcceptVoteValue(domain.Zero, domain.Negative))
	assert.Equal(t, 0, p.LikesCount)
	assert.Equal(t, 1, p.DislikesCount)
}

func TestAcceptVoteValueRejects(t *testing.T) {
	p := &domain.PublicPost{ID: 1, LikesCount: 3, DislikesCount: 2}

	for _, pair := range [][2]domain.Value{
		{domain.Positive, domain.Positive},
		{domain.Negative, domain.Negative},
		{domain.Zero, domain.Zero},
		{domain.Positive, domain.Zero},
	} {
		assert.False(t, p.AcceptVoteValue(pair[0], pair[1]), "%v", pair)
	}
	assert.Equal(t, 3, p.LikesCount)
	assert.Equal(t, 2, p.DislikesCount)
}

func TestAcceptVoteValueNeverNegative(t *testing.T) {
	p := &domain.PublicPost{ID: 1}
	assert.True(t, p.AcceptVoteValue(domain.Positive, domain.Negative))
	assert.Equal(t, 0, p.LikesCount)
}

func TestPublicPostHandleVote(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted transition writes a relative change", func(t *testing.T) {
		st := new(storetest.MockStore)
		st.OnUpdate(store.PublicPostUpdateCounters).Return(nil)
		st.OnRead(store.PublicPostRead, func(dest any) {
			// another user liked the post meanwhile
			*dest.(*domain.PublicPost) = domain.PublicPost{ID: 9, LikesCount: 2}
		}, true)

		p := &domain.PublicPost{ID: 9}
		ok, err := p.HandleVote(ctx, nil, st, domain.Zero, domain.Positive)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, p.LikesCount)

		st.AssertCalled(t, "Update", mock.Anything, mock.Anything, store.PublicPostUpdateCounters, []any{1, 1, 0, 0, uint64(9)})
	})

	t.Run("cancel sends a negative delta", func(t *testing.T) {
		st := new(storetest.MockStore)
		st.OnUpdate(store.PublicPostUpdateCounters).Return(nil)
		st.OnRead(store.PublicPostRead, nil, false)

		p := &domain.PublicPost{ID: 9}
		ok, err := p.HandleVote(ctx, nil, st, domain.Negative, domain.Positive)
		require.NoError(t, err)
		assert.True(t, ok)

		st.AssertCalled(t, "Update", mock.Anything, mock.Anything, store.PublicPostUpdateCounters, []any{0, 0, -1, -1, uint64(9)})
	})

	t.Run("double vote writes nothing", func(t *testing.T) {
		st := new(storetest.MockStore)

		p := &domain.PublicPost{ID: 9, LikesCount: 1}
		ok, err := p.HandleVote(ctx, nil, st, domain.Positive, domain.Positive)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, p.LikesCount)
		st.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed write restores counters", func(t *testing.T) {
		st := new(storetest.MockStore)
		st.OnUpdate(store.PublicPostUpdateCounters).Return(errors.New("boom"))

		p := &domain.PublicPost{ID: 9}
		ok, err := p.HandleVote(ctx, nil, st, domain.Zero, domain.Negative)
		assert.Error(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, p.DislikesCount)
	})
}

func TestPersonalPostAcceptsEverything(t *testing.T) {
	st := new(storetest.MockStore)
	p := &domain.PersonalPost{ID: 3}

	ok, err := p.HandleVote(context.Background(), nil, st, domain.Positive, domain.Positive)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, st.Calls)
}

func TestStatusLifecycle(t *testing.T) {
	p := &domain.PublicPost{}

	require.NoError(t, p.Advance())
	assert.Equal(t, domain.StatusReadyToRelease, p.Status)
	require.NoError(t, p.Advance())
	assert.Equal(t, domain.StatusReleased, p.Status)

	assert.True(t, apperr.IsValidation(p.Advance()))
	assert.True(t, apperr.IsValidation(p.SetStatus(domain.StatusPending)))
	assert.True(t, apperr.IsValidation(p.SetStatus(domain.Status(7))))
	assert.Equal(t, domain.StatusReleased, p.Status)
}

func TestPostRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, conn := dbtest.Open(t)
	st := store.New(nil, logger.Discard())

	created, err := domain.CreatePublicPost(ctx, conn, st, 5, 500)
	require.NoError(t, err)

	ok, err := created.HandleVote(ctx, conn, st, domain.Zero, domain.Positive)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, created.Advance())
	require.NoError(t, created.SaveStatus(ctx, conn, st))

	loaded, err := domain.ReadPost(ctx, conn, st, domain.Public, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	pub := loaded.(*domain.PublicPost)
	assert.Equal(t, 1, pub.LikesCount)
	assert.Equal(t, domain.StatusReadyToRelease, pub.Status)
	assert.Equal(t, uint64(5), pub.Author())

	missing, err := domain.ReadPost(ctx, conn, st, domain.Personal, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = domain.ReadPost(ctx, conn, st, domain.Kind(9), 1)
	var unexpected *apperr.UnexpectedTypeError
	assert.ErrorAs(t, err, &unexpected)
}

func TestVoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, conn := dbtest.Open(t)
	st := store.New(nil, logger.Discard())

	none, err := domain.ReadVote(ctx, conn, st, domain.Personal, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, none)

	v := domain.NewZeroVote(domain.Personal, 1, 2)
	v.Value = domain.Negative
	v.MessageID = 77
	require.NoError(t, domain.SaveVote(ctx, conn, st, v))

	got, err := domain.ReadVote(ctx, conn, st, domain.Personal, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.Negative, got.Value)
	assert.Equal(t, domain.Personal, got.Kind)
	assert.Equal(t, int64(77), got.MessageID)
}

func TestConcurrentVotersDoNotOverwriteCounters(t *testing.T) {
	ctx := context.Background()
	_, conn := dbtest.Open(t)
	st := store.New(nil, logger.Discard())

	created, err := domain.CreatePublicPost(ctx, conn, st, 5, 500)
	require.NoError(t, err)

	// two voters hold the same snapshot of the post
	first, err := domain.ReadPost(ctx, conn, st, domain.Public, created.ID)
	require.NoError(t, err)
	second, err := domain.ReadPost(ctx, conn, st, domain.Public, created.ID)
	require.NoError(t, err)

	ok, err := first.HandleVote(ctx, conn, st, domain.Zero, domain.Positive)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = second.HandleVote(ctx, conn, st, domain.Zero, domain.Positive)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2, second.(*domain.PublicPost).LikesCount)

	loaded, err := domain.ReadPost(ctx, conn, st, domain.Public, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.(*domain.PublicPost).LikesCount)

	// a cancel below zero is floored
	ok, err = first.HandleVote(ctx, conn, st, domain.Negative, domain.Positive)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, first.(*domain.PublicPost).DislikesCount)
}
