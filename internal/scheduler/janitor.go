// Package scheduler runs the periodic maintenance jobs of the matcher.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/matcher"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// Evictor forgets idle sessions and reports which users were dropped. drop
// runs while the session is still held; a session whose drop fails is kept.
type Evictor interface {
	EvictIdle(now time.Time, drop func(id uint64) error) []uint64
}

// Janitor evicts idle search sessions and drops their working relations.
type Janitor struct {
	sched    gocron.Scheduler
	sessions Evictor
	store    store.Store
	conn     store.Conn
	log      *slog.Logger
	now      func() time.Time
}

func NewJanitor(sessions Evictor, st store.Store, conn store.Conn, log *slog.Logger) (*Janitor, error) {
	log = logger.OrDiscard(log).With("component", "janitor")
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{log}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Janitor{
		sched:    s,
		sessions: sessions,
		store:    st,
		conn:     conn,
		log:      log,
		now:      time.Now,
	}, nil
}

// Start schedules the sweep on cronExpr and starts the scheduler.
func (j *Janitor) Start(cronExpr string) error {
	_, err := j.sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { j.Sweep(context.Background()) }),
		gocron.WithName("session-janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule janitor %q: %w", cronExpr, err)
	}
	j.sched.Start()
	j.log.Info("janitor scheduled", "cron", cronExpr)
	return nil
}

// Sweep evicts idle sessions and returns how many it dropped along with
// their working sets. A session whose drop fails is logged and kept for the
// next sweep.
func (j *Janitor) Sweep(ctx context.Context) int {
	evicted := j.sessions.EvictIdle(j.now(), func(id uint64) error {
		if err := matcher.DropWorkingSets(ctx, j.conn, j.store, id); err != nil {
			j.log.WarnContext(ctx, "failed to drop working sets", "user_id", id, "err", err)
			return err
		}
		return nil
	})
	if len(evicted) > 0 {
		j.log.DebugContext(ctx, "evicted idle sessions", "count", len(evicted))
	}
	return len(evicted)
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (j *Janitor) Stop() error {
	if err := j.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// gocronLogger adapts slog to gocron.Logger.
type gocronLogger struct{ l *slog.Logger }

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debug(msg, args...) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Info(msg, args...) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warn(msg, args...) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Error(msg, args...) }
