package storage

import (
	"sync"

	"github.com/nholden/lifeweeks/internal/logger"
	"github.com/nholden/lifeweeks/internal/models"
)

// subscribers is the in-process change-notification registry shared by both
// backends. Callbacks run synchronously after a mutation has committed.
type subscribers struct {
	mu   sync.Mutex
	next int
	subs map[int]subscription
}

type subscription struct {
	userID string
	fn     ChangeFunc
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[int]subscription)}
}

func (s *subscribers) add(userID string, fn ChangeFunc) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.subs[s.next] = subscription{userID: userID, fn: fn}
	return s.next
}

func (s *subscribers) remove(token int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, token)
}

// broadcast pushes a fresh snapshot to every subscriber, loading entries per
// subscribed user through the given loader.
func (s *subscribers) broadcast(load func(userID string) ([]models.Entry, error)) {
	s.mu.Lock()
	subs := make([]subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		entries, err := load(sub.userID)
		if err != nil {
			logger.Warn("Change notification snapshot failed", "user", sub.userID, "error", err)
			continue
		}
		sub.fn(entries)
	}
}
