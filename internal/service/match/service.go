package match

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/david-shiko/rubik-sub000/internal/app"
	"github.com/david-shiko/rubik-sub000/internal/collection"
	"github.com/david-shiko/rubik-sub000/internal/domain"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/matcher"
	"github.com/david-shiko/rubik-sub000/internal/repository"
	"github.com/david-shiko/rubik-sub000/internal/stats"
	"github.com/david-shiko/rubik-sub000/internal/user"
	"github.com/david-shiko/rubik-sub000/internal/utils/pagination"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// Service implements the Match gRPC API.
// It drives the matchmaking core for one bot user per call; the user state
// lives in the session registry between calls.
type Service struct {
	appCtx      *app.AppContext
	sessions    *Sessions
	collections *collection.Engine
	deps        user.Deps
}

// NewMatchService creates a new Match service with dependencies from AppContext.
func NewMatchService(appCtx *app.AppContext, sessions *Sessions) *Service {
	cfg := appCtx.Config

	strategy, err := stats.StrategyByName(cfg.Matcher.StatsStrategy)
	if err != nil {
		appCtx.Logger.Warn("falling back to v2 stats strategy", "err", err)
		strategy = stats.V2{}
	}

	engine := collection.New(appCtx.Store, appCtx.Logger)
	deps := user.Deps{
		Store:         appCtx.Store,
		Profiles:      repository.NewUserRepository(appCtx.DB),
		Collections:   engine,
		StatsStrategy: strategy,
		Limits: user.Limits{
			MinAge:        cfg.Matcher.MinAge,
			MaxAge:        cfg.Matcher.MaxAge,
			MaxPhotos:     cfg.Matcher.MaxPhotos,
			MaxCommentLen: cfg.Matcher.MaxCommentLen,
		},
		Log: appCtx.Logger,
	}
	if appCtx.RedisCache != nil {
		deps.Counters = appCtx.RedisCache
	}

	return &Service{
		appCtx:      appCtx,
		sessions:    sessions,
		collections: engine,
		deps:        deps,
	}
}

// withUser runs fn on the session user named by the user_id field.
func (s *Service) withUser(ctx context.Context, in *structpb.Struct, fn func(u *user.User) error) error {
	id, err := uintField(in, "user_id")
	if err != nil {
		return err
	}
	u, release, err := s.sessions.Acquire(ctx, s.appCtx.SQL, id, s.deps)
	if err != nil {
		return err
	}
	defer release()
	return fn(u)
}

// fail logs err and converts it to a gRPC status. Errors meant for the end
// user are expected and logged at debug level.
func (s *Service) fail(method string, err error) error {
	if apperr.IsKnown(err) {
		s.appCtx.Logger.Debug(method+" rejected", "err", err)
	} else {
		s.appCtx.Logger.Error(method+" failed", "err", err)
	}
	return apperr.Map(err)
}

func matchFields(m *matcher.Match) map[string]any {
	return map[string]any{
		"id":                 idString(m.ID),
		"user_id":            idString(m.UserID),
		"common_posts_count": m.Stats.CommonPostsCount,
		"common_posts_perc":  m.Stats.CommonPostsPerc,
	}
}

func searchFields(m *matcher.Matcher) map[string]any {
	return map[string]any{
		"user_votes_count": m.UserVotesCount,
		"count_all":        m.Matches.Raw.CountAll,
		"count_new":        m.Matches.Raw.CountNew,
		"current":          len(m.Matches.Current),
	}
}

// Search builds the matches of a user.
//
// Behavior:
//   - drop_votes / drop_matches force a rebuild of the working sets.
//   - No votes or no covotes is reported as FailedPrecondition.
//   - Returns the partition sizes; matches are then read with NextMatch.
func (s *Service) Search(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.appCtx.Logger.Debug("Search called", "user", stringField(in, "user_id"))

	var out map[string]any
	err := s.withUser(ctx, in, func(u *user.User) error {
		if _, err := u.Search(ctx, s.appCtx.SQL, boolField(in, "drop_votes"), boolField(in, "drop_matches")); err != nil {
			return err
		}
		out = searchFields(u.Matcher())
		return nil
	})
	if err != nil {
		return nil, s.fail("Search", err)
	}
	return response(out)
}

// NextMatch pops the next match of the current partition and records it as
// shown. With peek set the match stays in place and nothing is recorded.
func (s *Service) NextMatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	peek := boolField(in, "peek")

	out := map[string]any{"done": true}
	err := s.withUser(ctx, in, func(u *user.User) error {
		m := u.Matcher()
		next := m.GetMatch(!peek)
		if next == nil {
			return nil
		}
		if !peek {
			if err := m.MarkShown(ctx, s.appCtx.SQL, next); err != nil {
				return err
			}
		}
		out = map[string]any{"done": false, "match": matchFields(next)}
		return nil
	})
	if err != nil {
		return nil, s.fail("NextMatch", err)
	}
	return response(out)
}

// SetFilters updates the search filters of a user.
//
// Behavior:
//   - Only the fields present in the request change.
//   - Either every field is applied or, on a validation error, none.
//   - A search that already ran is redone on fresh covotes.
func (s *Service) SetFilters(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var out map[string]any
	err := s.withUser(ctx, in, func(u *user.User) error {
		m := u.Matcher()
		next := *m.Filters
		if err := applyFilters(&next, in); err != nil {
			return err
		}
		*m.Filters = next

		if m.Computed() {
			_, err := u.Search(ctx, s.appCtx.SQL, false, true)
			if err != nil && !errors.Is(err, apperr.ErrDomainState) {
				return err
			}
		}
		out = searchFields(m)
		return nil
	})
	if err != nil {
		return nil, s.fail("SetFilters", err)
	}
	return response(out)
}

func applyFilters(f *matcher.Filters, in *structpb.Struct) error {
	if goal, ok, err := intField(in, "goal"); err != nil {
		return err
	} else if ok {
		if err := f.SetGoal(matcher.Goal(goal)); err != nil {
			return err
		}
	}

	if gender, ok, err := intField(in, "gender"); err != nil {
		return err
	} else if ok {
		if err := f.SetGender(matcher.Gender(gender)); err != nil {
			return err
		}
	}

	minAge, hasMin, err := intField(in, "age_min")
	if err != nil {
		return err
	}
	maxAge, hasMax, err := intField(in, "age_max")
	if err != nil {
		return err
	}
	if hasMin != hasMax {
		return apperr.Invalid("age_range", "age_min and age_max go together")
	}
	if hasMin {
		if err := f.SetAgeRange(minAge, maxAge); err != nil {
			return err
		}
	}

	if boxes := in.GetFields()["checkboxes"].GetStructValue(); boxes != nil {
		for name, target := range map[string]*bool{
			"age":     &f.Checkboxes.Age,
			"photo":   &f.Checkboxes.Photo,
			"country": &f.Checkboxes.Country,
			"city":    &f.Checkboxes.City,
		} {
			if v, ok := boxes.GetFields()[name]; ok {
				*target = v.GetBoolValue()
			}
		}
	}

	switch stringField(in, "match_type") {
	case "":
	case "all":
		return f.SetMatchType(matcher.MatchAll)
	case "new":
		return f.SetMatchType(matcher.MatchNew)
	default:
		return apperr.Invalid("match_type", "must be all or new")
	}
	return nil
}

func parseKind(in *structpb.Struct) (domain.Kind, error) {
	switch stringField(in, "kind") {
	case "", "public":
		return domain.Public, nil
	case "personal":
		return domain.Personal, nil
	default:
		return 0, apperr.Invalid("kind", "must be public or personal")
	}
}

// Vote applies a vote of a user on a post.
//
// Behavior:
//   - value is clamped to -1..1.
//   - A transition the post turns down (a repeated vote in the same
//     direction, 0 on a public post) returns accepted = false.
//   - The vote and the post counters are written in one transaction; the
//     counter cache is refreshed only after it commits.
func (s *Service) Vote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	postID, err := uintField(in, "post_id")
	if err != nil {
		return nil, s.fail("Vote", err)
	}
	kind, err := parseKind(in)
	if err != nil {
		return nil, s.fail("Vote", err)
	}
	raw, ok, err := intField(in, "value")
	if err != nil {
		return nil, s.fail("Vote", err)
	}
	if !ok {
		return nil, s.fail("Vote", apperr.Invalid("value", "is required"))
	}
	messageID, _, err := intField(in, "message_id")
	if err != nil {
		return nil, s.fail("Vote", err)
	}

	var accepted bool
	err = s.withUser(ctx, in, func(u *user.User) error {
		tx, err := s.appCtx.SQL.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		defer u.DiscardCounters()

		accepted, err = u.SetVote(ctx, tx, &domain.Vote{
			Kind:      kind,
			UserID:    u.ID,
			PostID:    postID,
			MessageID: int64(messageID),
			Value:     domain.ConvertValue(raw, true),
		}, nil)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		u.FlushCounters(ctx)
		return nil
	})
	if err != nil {
		return nil, s.fail("Vote", err)
	}
	return response(map[string]any{"accepted": accepted})
}

// PostCounters returns the like/dislike counters of a public post.
// Cache-first strategy:
//  1. Attempts to read from Redis (posts:counters:postID).
//  2. On a miss, falls back to DB and refreshes the cache.
func (s *Service) PostCounters(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	postID, err := uintField(in, "post_id")
	if err != nil {
		return nil, s.fail("PostCounters", err)
	}

	if rc := s.appCtx.RedisCache; rc != nil {
		if likes, dislikes, ok, err := rc.GetPostCounters(ctx, postID); err == nil && ok {
			return response(map[string]any{"likes": likes, "dislikes": dislikes, "cached": true})
		}
	}

	// fallback: DB
	post, err := domain.ReadPost(ctx, s.appCtx.SQL, s.appCtx.Store, domain.Public, postID)
	if err != nil {
		return nil, s.fail("PostCounters", err)
	}
	if post == nil {
		return nil, s.fail("PostCounters", apperr.NotFound("post", postID))
	}
	pub := post.(*domain.PublicPost)

	if rc := s.appCtx.RedisCache; rc != nil {
		_ = rc.SetPostCounters(ctx, pub.ID, pub.LikesCount, pub.DislikesCount)
	}
	return response(map[string]any{"likes": pub.LikesCount, "dislikes": pub.DislikesCount, "cached": false})
}

// CreatePost stores a new post authored by user_id.
func (s *Service) CreatePost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	authorID, err := uintField(in, "user_id")
	if err != nil {
		return nil, s.fail("CreatePost", err)
	}
	kind, err := parseKind(in)
	if err != nil {
		return nil, s.fail("CreatePost", err)
	}
	messageID, _, err := intField(in, "message_id")
	if err != nil {
		return nil, s.fail("CreatePost", err)
	}

	var id uint64
	switch kind {
	case domain.Public:
		p, err := domain.CreatePublicPost(ctx, s.appCtx.SQL, s.appCtx.Store, authorID, int64(messageID))
		if err != nil {
			return nil, s.fail("CreatePost", err)
		}
		id = p.ID
	case domain.Personal:
		p, err := domain.CreatePersonalPost(ctx, s.appCtx.SQL, s.appCtx.Store, authorID, int64(messageID))
		if err != nil {
			return nil, s.fail("CreatePost", err)
		}
		id = p.ID
	}
	return response(map[string]any{"post_id": idString(id)})
}

// Stats compares the votes of user_id with with_user_id. With chart set
// the response carries a base64 PNG pie chart.
func (s *Service) Stats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	withID, err := uintField(in, "with_user_id")
	if err != nil {
		return nil, s.fail("Stats", err)
	}

	var out map[string]any
	err = s.withUser(ctx, in, func(u *user.User) error {
		st, err := u.Stats(ctx, s.appCtx.SQL, withID)
		if err != nil {
			return err
		}
		out = map[string]any{
			"mine": map[string]any{"positive": st.Mine.Positive, "negative": st.Mine.Negative, "zero": st.Mine.Zero},
			"with": map[string]any{"positive": st.With.Positive, "negative": st.With.Negative, "zero": st.With.Zero},

			"positive_perc": st.PositivePerc,
			"negative_perc": st.NegativePerc,
			"zero_perc":     st.ZeroPerc,
		}
		if boolField(in, "chart") {
			var buf bytes.Buffer
			if err := st.Render(&buf); err != nil {
				return err
			}
			out["chart_png"] = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("Stats", err)
	}
	return response(out)
}

// CreateCollection creates a collection of the user or extends the one
// with the same name.
func (s *Service) CreateCollection(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	postIDs, err := uintList(in, "post_ids")
	if err != nil {
		return nil, s.fail("CreateCollection", err)
	}

	var out map[string]any
	err = s.withUser(ctx, in, func(u *user.User) error {
		c, err := u.CreateCollection(ctx, s.appCtx.SQL, stringField(in, "name"), postIDs)
		if err != nil {
			return err
		}
		out = map[string]any{"collection_id": idString(c.ID), "name": c.Name}
		return nil
	})
	if err != nil {
		return nil, s.fail("CreateCollection", err)
	}
	return response(out)
}

func collectionList(cs []*collection.Collection) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, map[string]any{"id": idString(c.ID), "name": c.Name})
	}
	return out
}

// ListCollections pages through the collections of a user.
//
// Behavior:
//   - Ordered by id ASC.
//   - page_size defaults to 10, capped at 50.
//   - next_page_token is set only when more collections follow.
func (s *Service) ListCollections(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	authorID, err := uintField(in, "user_id")
	if err != nil {
		return nil, s.fail("ListCollections", err)
	}
	size, _, err := intField(in, "page_size")
	if err != nil {
		return nil, s.fail("ListCollections", err)
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	cursor, err := pagination.Decode(stringField(in, "page_token"))
	if err != nil {
		return nil, s.fail("ListCollections", apperr.Invalid("page_token", "%v", err))
	}

	cs, err := s.collections.ListUserCollections(ctx, s.appCtx.SQL, authorID, cursor.LastID, size+1)
	if err != nil {
		return nil, s.fail("ListCollections", err)
	}

	cs, token, err := pagination.Trim(cs, size, func(c *collection.Collection) uint64 { return c.ID })
	if err != nil {
		return nil, s.fail("ListCollections", err)
	}

	out := map[string]any{"collections": collectionList(cs)}
	if token != "" {
		out["next_page_token"] = token
	}
	return response(out)
}

// DefaultCollections lists the seed collections shown to new users.
func (s *Service) DefaultCollections(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	cs, err := s.collections.GetDefaults(ctx, s.appCtx.SQL, s.appCtx.Config.Matcher.DefaultsPrefix)
	if err != nil {
		return nil, s.fail("DefaultCollections", err)
	}
	return response(map[string]any{"collections": collectionList(cs)})
}

// Ensure interface compliance.
var _ MatchServiceServer = (*Service)(nil)
