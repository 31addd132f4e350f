// Package stats compares the votes of two users.
package stats

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/david-shiko/rubik-sub000/internal/store"
)

// VotesCount is a vote snapshot split by value.
type VotesCount struct {
	Positive int `db:"positive"`
	Negative int `db:"negative"`
	Zero     int `db:"zero"`
}

func (c VotesCount) Total() int { return c.Positive + c.Negative + c.Zero }

// MatchStats is the overlap between the votes of UserID and WithUserID.
// Mine counts the votes of UserID, With counts the votes both users cast
// the same way.
type MatchStats struct {
	UserID     uint64
	WithUserID uint64

	Mine VotesCount
	With VotesCount

	PositivePerc int
	NegativePerc int
	ZeroPerc     int

	computed bool
	store    store.Store
	strategy Strategy
	renderer Renderer
}

type options struct {
	deferred bool
	strategy Strategy
	renderer Renderer
}

type Option func(*options)

// Deferred skips the computation in New; call Compute later.
func Deferred() Option { return func(o *options) { o.deferred = true } }

// WithStrategy selects how the snapshots are collected. V2 is the default.
func WithStrategy(s Strategy) Option { return func(o *options) { o.strategy = s } }

// WithRenderer sets the sink used by Render.
func WithRenderer(r Renderer) Option { return func(o *options) { o.renderer = r } }

// New builds the statistics of userID against withUserID, computing them
// right away unless Deferred is given.
func New(ctx context.Context, conn store.Conn, st store.Store, userID, withUserID uint64, opts ...Option) (*MatchStats, error) {
	o := options{strategy: V2{}, renderer: PieChart{}}
	for _, opt := range opts {
		opt(&o)
	}

	s := &MatchStats{
		UserID:     userID,
		WithUserID: withUserID,
		store:      st,
		strategy:   o.strategy,
		renderer:   o.renderer,
	}
	if o.deferred {
		return s, nil
	}
	if err := s.Compute(ctx, conn); err != nil {
		return nil, err
	}
	return s, nil
}

// Computed reports whether the counts are filled.
func (s *MatchStats) Computed() bool { return s.computed }

// Compute collects both snapshots with the configured strategy.
func (s *MatchStats) Compute(ctx context.Context, conn store.Conn) error {
	mine, with, err := s.strategy.Collect(ctx, conn, s.store, s.UserID, s.WithUserID)
	if err != nil {
		return fmt.Errorf("stats %s: %w", s.strategy.Name(), err)
	}
	s.FillStats(mine, with)
	return nil
}

// FillStats stores both snapshots and derives the percentages.
func (s *MatchStats) FillStats(mine, with VotesCount) {
	s.Mine, s.With = mine, with
	s.PositivePerc = GetCommonVotesPerc(with.Positive, mine.Positive)
	s.NegativePerc = GetCommonVotesPerc(with.Negative, mine.Negative)
	s.ZeroPerc = GetCommonVotesPerc(with.Zero, mine.Zero)
	s.computed = true
}

// Render writes the statistics through the configured renderer.
func (s *MatchStats) Render(w io.Writer) error {
	if !s.computed {
		return fmt.Errorf("stats of %d with %d are not computed", s.UserID, s.WithUserID)
	}
	return s.renderer.Render(w, s)
}

// GetCommonVotesPerc is with as a rounded percentage of mine, capped at 100.
// A zero operand yields 0.
func GetCommonVotesPerc(with, mine int) int {
	if with <= 0 || mine <= 0 {
		return 0
	}
	perc := int(math.RoundToEven(float64(with) / float64(mine) * 100))
	if perc > 100 {
		return 100
	}
	return perc
}
