package domain

import (
	"context"
	"fmt"

	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// Post is content users vote on.
type Post interface {
	PostID() uint64
	Author() uint64
	Kind() Kind

	// HandleVote applies the old -> incoming transition to the post and
	// persists whatever the post aggregates. It reports whether the
	// transition was accepted.
	HandleVote(ctx context.Context, conn store.Conn, st store.Store, old, incoming Value) (bool, error)
}

// Status is the release lifecycle of a public post.
type Status int8

const (
	StatusPending Status = iota
	StatusReadyToRelease
	StatusReleased
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReadyToRelease:
		return "ready_to_release"
	case StatusReleased:
		return "released"
	default:
		return fmt.Sprintf("status(%d)", int8(s))
	}
}

// PublicPost is shared content with aggregate like/dislike counters.
type PublicPost struct {
	ID            uint64 `db:"id"`
	AuthorID      uint64 `db:"author_id"`
	MessageID     int64  `db:"message_id"`
	Status        Status `db:"status"`
	LikesCount    int    `db:"likes_count"`
	DislikesCount int    `db:"dislikes_count"`
}

func (p *PublicPost) PostID() uint64 { return p.ID }
func (p *PublicPost) Author() uint64 { return p.AuthorID }
func (p *PublicPost) Kind() Kind     { return Public }

// SetStatus moves the post forward in its lifecycle. Going back is rejected.
func (p *PublicPost) SetStatus(s Status) error {
	if s < StatusPending || s > StatusReleased {
		return apperr.Invalid("status", "unknown status %d", int8(s))
	}
	if s < p.Status {
		return apperr.Invalid("status", "cannot move from %s back to %s", p.Status, s)
	}
	p.Status = s
	return nil
}

// Advance moves the post one step forward.
func (p *PublicPost) Advance() error {
	if p.Status == StatusReleased {
		return apperr.Invalid("status", "post is already released")
	}
	return p.SetStatus(p.Status + 1)
}

// SaveStatus persists the current status.
func (p *PublicPost) SaveStatus(ctx context.Context, conn store.Conn, st store.Store) error {
	return st.Update(ctx, conn, store.PublicPostUpdateStatus, int8(p.Status), p.ID)
}

// voteDelta is the counter change of an old -> incoming transition.
//
//	zero     -> positive  likes + 1
//	zero     -> negative  dislikes + 1
//	positive -> negative  likes - 1
//	negative -> positive  dislikes - 1
//
// Any other pair changes nothing and ok is false.
func voteDelta(old, incoming Value) (likes, dislikes int, ok bool) {
	switch {
	case old == Zero && incoming == Positive:
		return 1, 0, true
	case old == Zero && incoming == Negative:
		return 0, 1, true
	case old == Positive && incoming == Negative:
		return -1, 0, true
	case old == Negative && incoming == Positive:
		return 0, -1, true
	default:
		return 0, 0, false
	}
}

// AcceptVoteValue applies the counter change of an old -> incoming
// transition to the in-memory counters. It returns false, leaving the
// counters untouched, for pairs that change nothing.
func (p *PublicPost) AcceptVoteValue(old, incoming Value) bool {
	likes, dislikes, ok := voteDelta(old, incoming)
	if !ok {
		return false
	}
	p.LikesCount = p.shift("likes", p.LikesCount, likes)
	p.DislikesCount = p.shift("dislikes", p.DislikesCount, dislikes)
	return true
}

func (p *PublicPost) shift(counter string, n, delta int) int {
	if n+delta < 0 {
		logger.Warn("post counter would go negative", "post_id", p.ID, "counter", counter)
		return 0
	}
	return n + delta
}

// HandleVote persists the counter change only when both the vote layer and
// the counter state machine accept the transition.
//
// The change is written relative to the stored counters, so votes of other
// users on the same post are never overwritten; the post then reloads the
// counters it wrote.
func (p *PublicPost) HandleVote(ctx context.Context, conn store.Conn, st store.Store, old, incoming Value) (bool, error) {
	if !IsAcceptVote(old, incoming) {
		return false, nil
	}

	likes, dislikes := p.LikesCount, p.DislikesCount
	if !p.AcceptVoteValue(old, incoming) {
		return false, nil
	}
	dLikes, dDislikes, _ := voteDelta(old, incoming)

	if err := st.Update(ctx, conn, store.PublicPostUpdateCounters, dLikes, dLikes, dDislikes, dDislikes, p.ID); err != nil {
		p.LikesCount, p.DislikesCount = likes, dislikes
		return false, err
	}

	var stored PublicPost
	found, err := st.Read(ctx, conn, store.PublicPostRead, &stored, p.ID)
	if err != nil {
		p.LikesCount, p.DislikesCount = likes, dislikes
		return false, err
	}
	if found {
		p.LikesCount, p.DislikesCount = stored.LikesCount, stored.DislikesCount
	}
	return true, nil
}

// PersonalPost is content addressed to a single recipient. It keeps no
// aggregates.
type PersonalPost struct {
	ID        uint64 `db:"id"`
	AuthorID  uint64 `db:"author_id"`
	MessageID int64  `db:"message_id"`
}

func (p *PersonalPost) PostID() uint64 { return p.ID }
func (p *PersonalPost) Author() uint64 { return p.AuthorID }
func (p *PersonalPost) Kind() Kind     { return Personal }

func (p *PersonalPost) HandleVote(context.Context, store.Conn, store.Store, Value, Value) (bool, error) {
	return true, nil
}

// ReadPost loads a post of the given kind. A missing post is reported with
// a nil Post and no error.
func ReadPost(ctx context.Context, conn store.Conn, st store.Store, kind Kind, id uint64) (Post, error) {
	switch kind {
	case Public:
		var p PublicPost
		found, err := st.Read(ctx, conn, store.PublicPostRead, &p, id)
		if err != nil || !found {
			return nil, err
		}
		return &p, nil
	case Personal:
		var p PersonalPost
		found, err := st.Read(ctx, conn, store.PersonalPostRead, &p, id)
		if err != nil || !found {
			return nil, err
		}
		return &p, nil
	default:
		return nil, &apperr.UnexpectedTypeError{Op: "read post", Type: kind.String()}
	}
}

// CreatePublicPost stores a new pending public post.
func CreatePublicPost(ctx context.Context, conn store.Conn, st store.Store, authorID uint64, messageID int64) (*PublicPost, error) {
	id, err := st.Create(ctx, conn, store.PublicPostCreate, authorID, messageID)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("public post of %d was not created", authorID)
	}
	return &PublicPost{ID: *id, AuthorID: authorID, MessageID: messageID, Status: StatusPending}, nil
}

// CreatePersonalPost stores a new personal post.
func CreatePersonalPost(ctx context.Context, conn store.Conn, st store.Store, authorID uint64, messageID int64) (*PersonalPost, error) {
	id, err := st.Create(ctx, conn, store.PersonalPostCreate, authorID, messageID)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("personal post of %d was not created", authorID)
	}
	return &PersonalPost{ID: *id, AuthorID: authorID, MessageID: messageID}, nil
}

var (
	_ Post = (*PublicPost)(nil)
	_ Post = (*PersonalPost)(nil)
)
