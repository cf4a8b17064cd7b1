package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/calloutkit/calloutbot/internal/models"
)

// InMemoryStore keeps all records in process memory. It backs tests and
// local development runs without a database.
type InMemoryStore struct {
	mu          sync.RWMutex
	subscribers map[int64]models.Subscriber
	snapshots   map[int64]models.SessionSnapshot
	responses   []models.CalloutResponseRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		subscribers: make(map[int64]models.Subscriber),
		snapshots:   make(map[int64]models.SessionSnapshot),
	}
}

func (s *InMemoryStore) SaveSubscriber(ctx context.Context, sub models.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.ChatID] = sub
	return nil
}

func (s *InMemoryStore) GetSubscriber(ctx context.Context, chatID int64) (*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscribers[chatID]
	if !ok {
		return nil, fmt.Errorf("%w: subscriber %d", ErrNotFound, chatID)
	}
	return &sub, nil
}

func (s *InMemoryStore) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		out = append(out, sub)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteSubscriber(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, chatID)
	return nil
}

func (s *InMemoryStore) SaveSessionSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.ChatID] = snapshot
	return nil
}

func (s *InMemoryStore) ListSessionSnapshots(ctx context.Context) ([]models.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SessionSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out, nil
}

func (s *InMemoryStore) AddCalloutResponse(ctx context.Context, record models.CalloutResponseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, record)
	return nil
}

func (s *InMemoryStore) ListCalloutResponses(ctx context.Context, slug string) ([]models.CalloutResponseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CalloutResponseRecord
	for _, r := range s.responses {
		if slug == "" || r.CalloutSlug == slug {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
