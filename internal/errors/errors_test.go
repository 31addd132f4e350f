package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
)

func TestKnownFamily(t *testing.T) {
	assert.True(t, apperr.IsKnown(apperr.ErrNoVotes))
	assert.True(t, apperr.IsKnown(fmt.Errorf("search: %w", apperr.ErrNoCovotes)))
	assert.True(t, apperr.IsKnown(apperr.Invalid("age", "must be at least %d", 18)))
	assert.True(t, apperr.IsKnown(apperr.NotFound("post", 7)))

	assert.False(t, apperr.IsKnown(apperr.ErrNoConnection))
	assert.False(t, apperr.IsKnown(apperr.Unexpected("set vote", 3.14)))
}

func TestDomainStateParent(t *testing.T) {
	assert.ErrorIs(t, apperr.ErrNoVotes, apperr.ErrDomainState)
	assert.ErrorIs(t, apperr.ErrNoCovotes, apperr.ErrDomainState)
	assert.NotErrorIs(t, apperr.ErrNotFound, apperr.ErrDomainState)
}

func TestUnexpectedCarriesType(t *testing.T) {
	err := apperr.Unexpected("handle vote", struct{ X int }{})
	assert.Contains(t, err.Error(), "struct { X int }")
}

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", apperr.Invalid("name", "too long"), codes.InvalidArgument},
		{"no votes", apperr.ErrNoVotes, codes.FailedPrecondition},
		{"not found", apperr.NotFound("post", 1), codes.NotFound},
		{"gorm not found", gorm.ErrRecordNotFound, codes.NotFound},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"no connection", apperr.ErrNoConnection, codes.Internal},
		{"other", stderrors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(apperr.Map(tc.err))
			assert.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
		})
	}

	assert.NoError(t, apperr.Map(nil))
	st, _ := status.FromError(apperr.Map(apperr.ErrNoConnection))
	assert.Equal(t, "internal error", st.Message())
}
