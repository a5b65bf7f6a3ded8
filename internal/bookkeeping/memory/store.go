package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/models"
)

// Store is an in-memory cash-flow log plus token metadata, thread-safe for
// concurrent use. It backs tests and local development.
type Store struct {
	mu      sync.Mutex
	records []models.CashFlowRecord
	token   models.TokenInfo
}

func NewStore() *Store {
	return &Store{
		token: models.TokenInfo{Name: "Worklance Token", Symbol: "WLT"},
	}
}

// SetTokenInfo seeds the token metadata.
func (s *Store) SetTokenInfo(info models.TokenInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = info
}

func (s *Store) Append(_ context.Context, rec models.CashFlowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) ListByAccount(_ context.Context, userID uuid.UUID) ([]models.CashFlowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CashFlowRecord
	for _, rec := range s.records {
		if bookkeeping.Direction(rec, userID) != bookkeeping.DirectionNone {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) All(_ context.Context) ([]models.CashFlowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CashFlowRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) TokenInfo(_ context.Context) (models.TokenInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

var (
	_ bookkeeping.CashFlowStore = (*Store)(nil)
	_ bookkeeping.MetadataStore = (*Store)(nil)
)
