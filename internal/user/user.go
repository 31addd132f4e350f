// Package user ties a user identity to its profile, votes, matcher and
// collections.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/david-shiko/rubik-sub000/internal/collection"
	"github.com/david-shiko/rubik-sub000/internal/domain"
	"github.com/david-shiko/rubik-sub000/internal/db"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/matcher"
	"github.com/david-shiko/rubik-sub000/internal/stats"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// ProfileRepository persists profiles and photos.
type ProfileRepository interface {
	Get(ctx context.Context, id uint64) (*db.User, error)
	SaveProfile(ctx context.Context, u *db.User) error
	Photos(ctx context.Context, userID uint64) ([]db.UserPhoto, error)
	ReplacePhotos(ctx context.Context, userID uint64, fileIDs []string) error
}

// CounterCache mirrors post counters outside the database.
type CounterCache interface {
	SetPostCounters(ctx context.Context, postID uint64, likes, dislikes int) error
}

// Limits bound the profile fields.
type Limits struct {
	MinAge        int
	MaxAge        int
	MaxPhotos     int
	MaxCommentLen int
}

// Deps are the collaborators shared by every user of a process.
type Deps struct {
	Store         store.Store
	Profiles      ProfileRepository
	Counters      CounterCache
	Collections   *collection.Engine
	StatsStrategy stats.Strategy
	Limits        Limits
	Log           *slog.Logger
}

// Profile holds the user-editable attributes.
type Profile struct {
	Goal    matcher.Goal
	Gender  matcher.Gender
	Age     int
	Country string
	City    string
	Comment string
}

// User is the session state of one bot user.
type User struct {
	ID      uint64
	Profile Profile
	Photos  []string

	deps        Deps
	log         *slog.Logger
	matcher     *matcher.Matcher
	collections []*collection.Collection
	votesDirty  bool

	// counters of accepted public votes not yet flushed to the cache
	pendingCounters map[uint64]*domain.PublicPost
}

// New returns a user with a default profile. Nothing is persisted.
func New(id uint64, deps Deps) *User {
	return &User{
		ID:      id,
		Profile: Profile{Goal: matcher.GoalBoth, Age: deps.Limits.MinAge},
		deps:    deps,
		log:     logger.OrDiscard(deps.Log).With("component", "user", "user_id", id),
	}
}

// Load registers the user on first interaction and reads its profile.
func Load(ctx context.Context, conn store.Conn, id uint64, deps Deps) (*User, error) {
	u := New(id, deps)
	created, err := deps.Store.Create(ctx, conn, store.UserCreate, id)
	if err != nil {
		return nil, err
	}
	if created != nil {
		u.log.InfoContext(ctx, "user registered")
	}

	row, err := deps.Profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Profile = Profile{
		Goal:    matcher.Goal(row.Goal),
		Gender:  matcher.Gender(row.Gender),
		Age:     row.Age,
		Country: row.Country,
		City:    row.City,
		Comment: row.Comment,
	}

	photos, err := deps.Profiles.Photos(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		u.Photos = append(u.Photos, p.FileID)
	}
	return u, nil
}

func (u *User) SetGoal(g matcher.Goal) error {
	if !g.Valid() {
		return apperr.Invalid("goal", "unknown goal %d", g)
	}
	u.Profile.Goal = g
	return nil
}

// SetGender accepts male or female only.
func (u *User) SetGender(g matcher.Gender) error {
	if g != matcher.GenderMale && g != matcher.GenderFemale {
		return apperr.Invalid("gender", "unknown gender %d", g)
	}
	u.Profile.Gender = g
	return nil
}

func (u *User) SetAge(age int) error {
	l := u.deps.Limits
	if err := apperr.Check("age", age, fmt.Sprintf("gte=%d,lte=%d", l.MinAge, l.MaxAge)); err != nil {
		return err
	}
	u.Profile.Age = age
	return nil
}

func (u *User) SetCountry(country string) error {
	country = strings.TrimSpace(country)
	if err := apperr.Check("country", country, "max=64"); err != nil {
		return err
	}
	u.Profile.Country = country
	return nil
}

func (u *User) SetCity(city string) error {
	city = strings.TrimSpace(city)
	if err := apperr.Check("city", city, "max=64"); err != nil {
		return err
	}
	u.Profile.City = city
	return nil
}

func (u *User) SetComment(comment string) error {
	comment = strings.TrimSpace(comment)
	if err := apperr.Check("comment", comment, fmt.Sprintf("max=%d", u.deps.Limits.MaxCommentLen)); err != nil {
		return err
	}
	u.Profile.Comment = comment
	return nil
}

// AddPhoto appends a photo reference while the limit allows it.
func (u *User) AddPhoto(fileID string) error {
	if err := apperr.Check("photo", fileID, "required,max=255"); err != nil {
		return err
	}
	if len(u.Photos) >= u.deps.Limits.MaxPhotos {
		return apperr.Invalid("photos", "at most %d photos are allowed", u.deps.Limits.MaxPhotos)
	}
	u.Photos = append(u.Photos, fileID)
	return nil
}

func (u *User) RemovePhotos() { u.Photos = nil }

// SaveProfile persists the profile and photos.
func (u *User) SaveProfile(ctx context.Context) error {
	row := &db.User{
		ID:      u.ID,
		Goal:    int8(u.Profile.Goal),
		Gender:  int8(u.Profile.Gender),
		Age:     u.Profile.Age,
		Country: u.Profile.Country,
		City:    u.Profile.City,
		Comment: u.Profile.Comment,
	}
	if err := u.deps.Profiles.SaveProfile(ctx, row); err != nil {
		return err
	}
	return u.deps.Profiles.ReplacePhotos(ctx, u.ID, u.Photos)
}

// Matcher returns the search session of the user, creating it on first use.
func (u *User) Matcher() *matcher.Matcher {
	if u.matcher == nil {
		l := u.deps.Limits
		u.matcher = matcher.New(u.ID, u.deps.Store, matcher.NewFilters(l.MinAge, l.MaxAge), u.deps.Log)
	}
	return u.matcher
}

// HasMatcher reports whether a search session exists.
func (u *User) HasMatcher() bool { return u.matcher != nil }

// Search runs the matcher and returns the converted matches. Missing votes
// or covotes are reported as domain-state errors.
func (u *User) Search(ctx context.Context, conn store.Conn, dropVotes, dropMatches bool) ([]*matcher.Match, error) {
	m := u.Matcher()

	// votes cast since the last search invalidate both working sets
	dirty := u.votesDirty
	if _, err := m.MakeSearch(ctx, conn, dropVotes || dirty, dropMatches || dirty); err != nil {
		return nil, err
	}
	u.votesDirty = false

	if !m.IsUserHasVotes {
		return nil, apperr.ErrNoVotes
	}
	if !m.IsUserHasCovotes {
		return nil, apperr.ErrNoCovotes
	}
	m.SetMatches()
	return m.Matches.All, nil
}

// Stats compares the votes of the user with another user.
func (u *User) Stats(ctx context.Context, conn store.Conn, withUserID uint64, opts ...stats.Option) (*stats.MatchStats, error) {
	if u.deps.StatsStrategy != nil {
		opts = append([]stats.Option{stats.WithStrategy(u.deps.StatsStrategy)}, opts...)
	}
	return stats.New(ctx, conn, u.deps.Store, u.ID, withUserID, opts...)
}

// Collections returns the collections of the user, cached after the first
// read.
func (u *User) Collections(ctx context.Context, conn store.Conn) ([]*collection.Collection, error) {
	if u.collections != nil {
		return u.collections, nil
	}
	cs, err := u.deps.Collections.GetUserCollections(ctx, conn, u.ID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []*collection.Collection{}
	}
	u.collections = cs
	return cs, nil
}

// CreateCollection creates or extends a collection of the user.
func (u *User) CreateCollection(ctx context.Context, conn store.Conn, name string, postIDs []uint64) (*collection.Collection, error) {
	c, err := u.deps.Collections.Create(ctx, conn, u.ID, name, postIDs)
	if err != nil {
		return nil, err
	}
	u.collections = nil
	return c, nil
}
