package user

import (
	"context"

	"github.com/david-shiko/rubik-sub000/internal/domain"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// GetVote returns the vote of the user on post, or a zero vote when the
// user has not voted yet.
func (u *User) GetVote(ctx context.Context, conn store.Conn, post domain.Post) (*domain.Vote, error) {
	v, err := domain.ReadVote(ctx, conn, u.deps.Store, post.Kind(), u.ID, post.PostID())
	if err != nil {
		return nil, err
	}
	if v == nil {
		return domain.NewZeroVote(post.Kind(), u.ID, post.PostID()), nil
	}
	return v, nil
}

// SetVote applies vote on top of the current vote of the user. It reports
// whether the transition was accepted; a rejected transition writes
// nothing. A nil post is loaded by vote.PostID.
//
// Run it on a transaction to keep the vote and the post counters in step.
// Counters of an accepted public vote reach the cache only through
// FlushCounters, once the transaction has committed.
func (u *User) SetVote(ctx context.Context, conn store.Conn, vote *domain.Vote, post domain.Post) (bool, error) {
	if vote.UserID != u.ID {
		return false, apperr.Invalid("vote", "vote of user %d cast by %d", vote.UserID, u.ID)
	}

	if post == nil {
		p, err := domain.ReadPost(ctx, conn, u.deps.Store, vote.Kind, vote.PostID)
		if err != nil {
			return false, err
		}
		if p == nil {
			return false, apperr.NotFound("post", vote.PostID)
		}
		post = p
	}
	if post.Kind() != vote.Kind || post.PostID() != vote.PostID {
		return false, &apperr.UnexpectedTypeError{Op: "set vote", Type: post.Kind().String() + " post for " + vote.Kind.String() + " vote"}
	}

	old, err := u.GetVote(ctx, conn, post)
	if err != nil {
		return false, err
	}
	if !domain.IsAcceptVote(old.Value, vote.Value) {
		u.log.DebugContext(ctx, "vote rejected", "post_id", vote.PostID, "old", old.Value, "incoming", vote.Value)
		return false, nil
	}

	ok, err := post.HandleVote(ctx, conn, u.deps.Store, old.Value, vote.Value)
	if err != nil || !ok {
		return false, err
	}

	stored := *vote
	stored.Value = old.Value + vote.Value
	if err := domain.SaveVote(ctx, conn, u.deps.Store, &stored); err != nil {
		return false, err
	}

	if pub, isPublic := post.(*domain.PublicPost); isPublic {
		u.votesDirty = true
		if u.pendingCounters == nil {
			u.pendingCounters = make(map[uint64]*domain.PublicPost)
		}
		u.pendingCounters[pub.ID] = pub
	}
	return true, nil
}

// FlushCounters writes the counters of the votes accepted since the last
// flush to the cache.
func (u *User) FlushCounters(ctx context.Context) {
	pending := u.pendingCounters
	u.pendingCounters = nil
	if u.deps.Counters == nil {
		return
	}
	for _, p := range pending {
		if err := u.deps.Counters.SetPostCounters(ctx, p.ID, p.LikesCount, p.DislikesCount); err != nil {
			u.log.WarnContext(ctx, "failed to cache post counters", "post_id", p.ID, "err", err)
		}
	}
}

// DiscardCounters forgets unflushed counters, e.g. after a rollback.
func (u *User) DiscardCounters() { u.pendingCounters = nil }
