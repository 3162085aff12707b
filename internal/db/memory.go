package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/swiftfreight/quote-engine/internal/models"
)

// MemoryStore keeps everything in process memory. It backs local runs
// without a DATABASE_URL and the service-level tests.
type MemoryStore struct {
	mu        sync.RWMutex
	quotes    map[string]models.Quote
	decisions map[string][]models.ReviewDecision
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		quotes:    map[string]models.Quote{},
		decisions: map[string][]models.ReviewDecision{},
	}
}

func (s *MemoryStore) SaveQuote(_ context.Context, q models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.quotes[q.ID]; exists {
		return fmt.Errorf("quote %s already exists", q.ID)
	}
	s.quotes[q.ID] = q
	return nil
}

func (s *MemoryStore) GetQuote(_ context.Context, id string) (models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok {
		return models.Quote{}, ErrNotFound
	}
	return q, nil
}

func (s *MemoryStore) UpdateQuoteStatus(_ context.Context, id string, from, to models.QuoteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return ErrNotFound
	}
	if q.Status != from {
		return fmt.Errorf("%w: quote %s is %s, expected %s", ErrStaleStatus, id, q.Status, from)
	}
	q.Status = to
	s.quotes[id] = q
	return nil
}

func (s *MemoryStore) ListQuotes(_ context.Context, status models.QuoteStatus, limit, offset int) ([]models.Quote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		if status != "" && q.Status != status {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveDecision(_ context.Context, quoteID string, d models.ReviewDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[quoteID]; !ok {
		return ErrNotFound
	}
	s.decisions[quoteID] = append(s.decisions[quoteID], d)
	return nil
}

// Decisions returns the recorded decisions for a quote, oldest first.
func (s *MemoryStore) Decisions(quoteID string) []models.ReviewDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ReviewDecision, len(s.decisions[quoteID]))
	copy(out, s.decisions[quoteID])
	return out
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}
