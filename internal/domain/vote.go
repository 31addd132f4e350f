package domain

import (
	"context"
	"fmt"

	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// Kind distinguishes public content from content addressed to one user.
type Kind int8

const (
	Public Kind = iota
	Personal
)

func (k Kind) String() string {
	switch k {
	case Public:
		return "public"
	case Personal:
		return "personal"
	default:
		return fmt.Sprintf("kind(%d)", int8(k))
	}
}

// Vote is the opinion of UserID on PostID. MessageID points at the
// delivered message so it can be edited after the vote.
type Vote struct {
	Kind      Kind   `db:"-"`
	UserID    uint64 `db:"user_id"`
	PostID    uint64 `db:"post_id"`
	MessageID int64  `db:"message_id"`
	Value     Value  `db:"value"`
}

// NewZeroVote synthesizes the vote of a user who has not voted yet.
func NewZeroVote(kind Kind, userID, postID uint64) *Vote {
	return &Vote{Kind: kind, UserID: userID, PostID: postID, Value: Zero}
}

func voteStatements(kind Kind) (read, save store.Statement, err error) {
	switch kind {
	case Public:
		return store.PublicVoteRead, store.PublicVoteSave, nil
	case Personal:
		return store.PersonalVoteRead, store.PersonalVoteSave, nil
	default:
		return "", "", &apperr.UnexpectedTypeError{Op: "vote statements", Type: kind.String()}
	}
}

// ReadVote loads the vote of userID on postID. A missing row is reported
// with a nil vote and no error.
func ReadVote(ctx context.Context, conn store.Conn, st store.Store, kind Kind, userID, postID uint64) (*Vote, error) {
	read, _, err := voteStatements(kind)
	if err != nil {
		return nil, err
	}

	var v Vote
	found, err := st.Read(ctx, conn, read, &v, userID, postID)
	if err != nil || !found {
		return nil, err
	}
	v.Kind = kind
	return &v, nil
}

// SaveVote stores v, overwriting any previous vote of the user on the post.
func SaveVote(ctx context.Context, conn store.Conn, st store.Store, v *Vote) error {
	_, save, err := voteStatements(v.Kind)
	if err != nil {
		return err
	}
	return st.Update(ctx, conn, save, v.UserID, v.PostID, v.MessageID, int(v.Value))
}
