package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/models"
)

// Intents is an in-memory transfer-intent store.
type Intents struct {
	mu      sync.Mutex
	intents map[uuid.UUID]*models.TransferIntent

	// Now is swappable so tests can age intents.
	Now func() time.Time
}

func NewIntents() *Intents {
	return &Intents{
		intents: make(map[uuid.UUID]*models.TransferIntent),
		Now:     time.Now,
	}
}

func (s *Intents) Create(_ context.Context, intent *models.TransferIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *intent
	cp.UpdatedAt = s.Now()
	s.intents[cp.ID] = &cp
	return nil
}

func (s *Intents) MarkLedgerSucceeded(_ context.Context, id uuid.UUID, blockIndex uint64) error {
	return s.setStatus(id, models.IntentLedgerSucceeded, &blockIndex)
}

func (s *Intents) MarkCommitted(_ context.Context, id uuid.UUID) error {
	return s.setStatus(id, models.IntentCommitted, nil)
}

func (s *Intents) MarkFailed(_ context.Context, id uuid.UUID) error {
	return s.setStatus(id, models.IntentFailed, nil)
}

func (s *Intents) MarkFlagged(_ context.Context, id uuid.UUID) error {
	return s.setStatus(id, models.IntentFlagged, nil)
}

func (s *Intents) setStatus(id uuid.UUID, status string, blockIndex *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return bookkeeping.ErrNotFound
	}
	intent.Status = status
	intent.UpdatedAt = s.Now()
	if blockIndex != nil {
		intent.BlockIndex = blockIndex
	}
	return nil
}

func (s *Intents) ListStuck(_ context.Context, olderThan time.Duration) ([]models.TransferIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.Now().Add(-olderThan)
	var out []models.TransferIntent
	for _, intent := range s.intents {
		if intent.Status == models.IntentLedgerSucceeded && !intent.UpdatedAt.After(cutoff) {
			out = append(out, *intent)
		}
	}
	return out, nil
}

// Get returns a copy of one intent, for tests.
func (s *Intents) Get(id uuid.UUID) (models.TransferIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return models.TransferIntent{}, false
	}
	return *intent, true
}

// AllIntents returns copies of every intent, for tests.
func (s *Intents) AllIntents() []models.TransferIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TransferIntent, 0, len(s.intents))
	for _, intent := range s.intents {
		out = append(out, *intent)
	}
	return out
}

var _ bookkeeping.IntentStore = (*Intents)(nil)
