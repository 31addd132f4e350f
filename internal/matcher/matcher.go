// Package matcher finds users whose positive votes overlap with the owner's.
//
// A search runs in stages over two working relations in the store, both
// keyed by the owner id:
//
//	my votes  the owner's positive public votes
//	covotes   users who voted the same posts the same way, with counts
//
// The covotes are built from my votes and then narrowed in place by each
// active filter. Building is idempotent and dropping is explicit.
package matcher

import (
	"context"
	"log/slog"

	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// Matcher is the search session of one user.
type Matcher struct {
	OwnerID          uint64
	Filters          *Filters
	Matches          Matches
	UserVotesCount   int
	IsUserHasVotes   bool
	IsUserHasCovotes bool

	computed bool
	store    store.Store
	log      *slog.Logger
}

// Age bounds used when a matcher is created without filters.
const (
	DefaultMinAge = 18
	DefaultMaxAge = 99
)

// New creates a matcher for ownerID. Nil filters accept ages in
// [DefaultMinAge, DefaultMaxAge].
func New(ownerID uint64, st store.Store, filters *Filters, log *slog.Logger) *Matcher {
	if filters == nil {
		filters = NewFilters(DefaultMinAge, DefaultMaxAge)
	}
	return &Matcher{
		OwnerID: ownerID,
		Filters: filters,
		store:   st,
		log:     logger.OrDiscard(log).With("component", "matcher", "owner_id", ownerID),
	}
}

// Computed reports whether the unfiltered covotes were built by this matcher.
func (m *Matcher) Computed() bool { return m.computed }

// MakeSearch runs the search pipeline and returns the filtered covotes.
//
// The unfiltered working sets are built on the first call. Either drop flag
// rebuilds them again on any later call, so a caller can refresh a computed
// search without creating a new matcher. Filters narrow the covotes in
// place, so loosening a filter needs dropOldMatches to take effect.
func (m *Matcher) MakeSearch(ctx context.Context, conn store.Conn, dropOldVotes, dropOldMatches bool) ([]*Covote, error) {
	if !m.computed || dropOldVotes || dropOldMatches {
		if err := m.CreateUnfilteredMatches(ctx, conn, dropOldVotes, dropOldMatches); err != nil {
			return nil, err
		}
	}

	if !m.IsUserHasCovotes {
		m.Matches = Matches{}
		return nil, nil
	}

	if err := m.FilterMatches(ctx, conn); err != nil {
		return nil, err
	}
	if err := m.SetMatchesRaw(ctx, conn); err != nil {
		return nil, err
	}

	m.log.DebugContext(ctx, "search done",
		"votes", m.UserVotesCount,
		"all", m.Matches.Raw.CountAll,
		"new", m.Matches.Raw.CountNew,
	)
	return m.Matches.Raw.All, nil
}

// CreateUnfilteredMatches builds my votes and, when there are any, the
// covotes derived from them.
func (m *Matcher) CreateUnfilteredMatches(ctx context.Context, conn store.Conn, dropOldVotes, dropOldMatches bool) error {
	if dropOldVotes {
		if err := m.store.Execute(ctx, conn, store.MatcherVotesDrop, m.OwnerID); err != nil {
			return err
		}
	}
	if dropOldMatches {
		if err := m.store.Execute(ctx, conn, store.MatcherCovotesDrop, m.OwnerID); err != nil {
			return err
		}
	}

	if err := m.store.Execute(ctx, conn, store.MatcherVotesCreate, m.OwnerID, m.OwnerID); err != nil {
		return err
	}

	var votes int
	if _, err := m.store.Read(ctx, conn, store.MatcherVotesCount, &votes, m.OwnerID); err != nil {
		return err
	}
	m.UserVotesCount = votes
	m.IsUserHasVotes = votes > 0
	m.IsUserHasCovotes = false

	// covotes are derived from my votes
	if m.IsUserHasVotes {
		if err := m.store.Execute(ctx, conn, store.MatcherCovotesCreate, m.OwnerID, m.OwnerID); err != nil {
			return err
		}
		var covotes int
		if _, err := m.store.Read(ctx, conn, store.MatcherCovotesCount, &covotes, m.OwnerID); err != nil {
			return err
		}
		m.IsUserHasCovotes = covotes > 0
	}

	m.computed = true
	return nil
}

// FilterMatches applies every filter in a fixed order. Each one narrows the
// same covotes relation independently.
func (m *Matcher) FilterMatches(ctx context.Context, conn store.Conn) error {
	for _, apply := range []func(context.Context, store.Conn) error{
		m.FilterGoal,
		m.FilterGender,
		m.FilterAge,
		m.FilterCountry,
		m.FilterCity,
		m.FilterPhoto,
	} {
		if err := apply(ctx, conn); err != nil {
			return err
		}
	}
	return nil
}

// FilterGoal keeps covotes whose goal is the selected one or GoalBoth.
func (m *Matcher) FilterGoal(ctx context.Context, conn store.Conn) error {
	if m.Filters.Goal == nil {
		return nil
	}
	return m.store.Execute(ctx, conn, store.FilterGoal, m.OwnerID, int8(*m.Filters.Goal), int8(GoalBoth))
}

func (m *Matcher) FilterGender(ctx context.Context, conn store.Conn) error {
	if m.Filters.Gender == nil {
		return nil
	}
	return m.store.Execute(ctx, conn, store.FilterGender, m.OwnerID, int8(*m.Filters.Gender))
}

func (m *Matcher) FilterAge(ctx context.Context, conn store.Conn) error {
	if !m.Filters.Checkboxes.Age || m.Filters.AgeRange == nil {
		return nil
	}
	r := m.Filters.AgeRange
	return m.store.Execute(ctx, conn, store.FilterAge, m.OwnerID, r.Min, r.Max)
}

// FilterCountry keeps covotes from the owner's country.
func (m *Matcher) FilterCountry(ctx context.Context, conn store.Conn) error {
	if !m.Filters.Checkboxes.Country {
		return nil
	}
	return m.store.Execute(ctx, conn, store.FilterCountry, m.OwnerID, m.OwnerID)
}

// FilterCity keeps covotes from the owner's city.
func (m *Matcher) FilterCity(ctx context.Context, conn store.Conn) error {
	if !m.Filters.Checkboxes.City {
		return nil
	}
	return m.store.Execute(ctx, conn, store.FilterCity, m.OwnerID, m.OwnerID)
}

// FilterPhoto keeps covotes with at least one photo.
func (m *Matcher) FilterPhoto(ctx context.Context, conn store.Conn) error {
	if !m.Filters.Checkboxes.Photo {
		return nil
	}
	return m.store.Execute(ctx, conn, store.FilterPhoto, m.OwnerID)
}

// SetMatchesRaw reads the new and all views of the filtered covotes.
func (m *Matcher) SetMatchesRaw(ctx context.Context, conn store.Conn) error {
	var fresh, all []*Covote
	if _, err := m.store.Read(ctx, conn, store.MatcherCovotesNew, &fresh, m.OwnerID); err != nil {
		return err
	}
	if _, err := m.store.Read(ctx, conn, store.MatcherCovotesAll, &all, m.OwnerID); err != nil {
		return err
	}
	m.Matches.Raw.Set(all, fresh)
	return nil
}

// GetCommonInterestsPerc is count as a percentage of the owner's votes.
func (m *Matcher) GetCommonInterestsPerc(count int) int {
	return CommonInterestsPerc(count, m.UserVotesCount)
}

// ConvertMatches resolves raw covotes into matches.
func (m *Matcher) ConvertMatches(raw []*Covote) []*Match {
	out := make([]*Match, 0, len(raw))
	for _, c := range raw {
		out = append(out, &Match{
			ID:      c.ID,
			OwnerID: m.OwnerID,
			UserID:  c.UserID,
			Stats: Stats{
				CommonPostsCount: c.CountCommonInterests,
				CommonPostsPerc:  m.GetCommonInterestsPerc(c.CountCommonInterests),
			},
		})
	}
	return out
}

// SetMatches converts the raw partitions and selects the current list.
func (m *Matcher) SetMatches() {
	raw := &m.Matches.Raw
	all := m.ConvertMatches(raw.All)

	fresh := make(map[uint64]struct{}, len(raw.New))
	for _, c := range raw.New {
		fresh[c.ID] = struct{}{}
	}

	var news []*Match
	for _, match := range all {
		if _, ok := fresh[match.ID]; ok {
			news = append(news, match)
		}
	}

	m.Matches.All = all
	m.Matches.New = news
	m.ResetCurrent()
}

// ResetCurrent refills the current lists from the partition selected by
// the match type.
func (m *Matcher) ResetCurrent() {
	raw := &m.Matches.Raw
	if m.Filters.MatchType == MatchNew {
		m.Matches.Current = append([]*Match(nil), m.Matches.New...)
		raw.Current = append([]*Covote(nil), raw.New...)
		return
	}
	m.Matches.Current = append([]*Match(nil), m.Matches.All...)
	raw.Current = append([]*Covote(nil), raw.All...)
}

// GetMatch returns the last current match, removing it when pop is set.
// It returns nil once the list is exhausted.
func (m *Matcher) GetMatch(pop bool) *Match {
	n := len(m.Matches.Current)
	if n == 0 {
		return nil
	}
	last := m.Matches.Current[n-1]
	if pop {
		m.Matches.Current = m.Matches.Current[:n-1]
	}
	return last
}

// MarkShown records that match was shown so it leaves the new partition on
// the next search.
func (m *Matcher) MarkShown(ctx context.Context, conn store.Conn, match *Match) error {
	_, err := m.store.Create(ctx, conn, store.ShownMatchCreate, m.OwnerID, match.UserID)
	return err
}

// Drop removes both working sets and forgets the computed state.
func (m *Matcher) Drop(ctx context.Context, conn store.Conn) error {
	if err := DropWorkingSets(ctx, conn, m.store, m.OwnerID); err != nil {
		return err
	}
	m.computed = false
	m.IsUserHasVotes, m.IsUserHasCovotes = false, false
	m.UserVotesCount = 0
	m.Matches = Matches{}
	return nil
}

// DropWorkingSets removes the working sets of ownerID without a Matcher.
func DropWorkingSets(ctx context.Context, conn store.Conn, st store.Store, ownerID uint64) error {
	if err := st.Execute(ctx, conn, store.MatcherCovotesDrop, ownerID); err != nil {
		return err
	}
	return st.Execute(ctx, conn, store.MatcherVotesDrop, ownerID)
}
