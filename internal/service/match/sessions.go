package match

import (
	"context"
	"sync"
	"time"

	"github.com/david-shiko/rubik-sub000/internal/store"
	"github.com/david-shiko/rubik-sub000/internal/user"
)

type session struct {
	mu       sync.Mutex
	user     *user.User
	lastSeen time.Time
	evicted  bool // guarded by mu
}

// Sessions keeps one user.User per active bot user. Calls for the same
// user are serialized; different users run in parallel.
type Sessions struct {
	mu    sync.Mutex
	items map[uint64]*session
	ttl   time.Duration
	now   func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		items: make(map[uint64]*session),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Acquire returns the session user of id, loading it on first use. The
// caller owns the user until release is called.
func (s *Sessions) Acquire(ctx context.Context, conn store.Conn, id uint64, deps user.Deps) (*user.User, func(), error) {
	for {
		s.mu.Lock()
		sess, ok := s.items[id]
		if !ok {
			sess = &session{}
			s.items[id] = sess
		}
		sess.lastSeen = s.now()
		s.mu.Unlock()

		sess.mu.Lock()
		if sess.evicted {
			// evicted while we waited; take the registry's current entry
			sess.mu.Unlock()
			continue
		}
		if sess.user == nil {
			u, err := user.Load(ctx, conn, id, deps)
			if err != nil {
				sess.mu.Unlock()
				return nil, nil, err
			}
			sess.user = u
		}

		release := func() {
			s.mu.Lock()
			sess.lastSeen = s.now()
			s.mu.Unlock()
			sess.mu.Unlock()
		}
		return sess.user, release, nil
	}
}

// EvictIdle forgets sessions unused for longer than the TTL and returns
// their user ids. Sessions in use are kept.
//
// drop runs for each idle session while the session is still held, so no
// caller can acquire the user until it returns. A session whose drop fails
// stays registered and is retried on the next call. drop may be nil.
func (s *Sessions) EvictIdle(now time.Time, drop func(id uint64) error) []uint64 {
	type idle struct {
		id   uint64
		sess *session
	}
	var held []idle

	s.mu.Lock()
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) <= s.ttl {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		held = append(held, idle{id: id, sess: sess})
	}
	s.mu.Unlock()

	var evicted []uint64
	for _, h := range held {
		if drop != nil {
			if err := drop(h.id); err != nil {
				h.sess.mu.Unlock()
				continue
			}
		}
		h.sess.user = nil
		h.sess.evicted = true
		s.mu.Lock()
		if s.items[h.id] == h.sess {
			delete(s.items, h.id)
		}
		s.mu.Unlock()
		h.sess.mu.Unlock()
		evicted = append(evicted, h.id)
	}
	return evicted
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
