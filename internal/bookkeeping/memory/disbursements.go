package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/models"
)

// Disbursements is an in-memory per-recipient payout record store.
type Disbursements struct {
	mu            sync.Mutex
	disbursements map[uuid.UUID]*models.Disbursement
}

func NewDisbursements() *Disbursements {
	return &Disbursements{disbursements: make(map[uuid.UUID]*models.Disbursement)}
}

func (s *Disbursements) Ensure(_ context.Context, jobID, freelancerID uuid.UUID, amount int64) (*models.Disbursement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.disbursements {
		if d.JobID == jobID && d.FreelancerID == freelancerID {
			cp := *d
			return &cp, nil
		}
	}
	d := &models.Disbursement{
		ID:           uuid.New(),
		JobID:        jobID,
		FreelancerID: freelancerID,
		Amount:       amount,
		Status:       models.DisbursementPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.disbursements[d.ID] = d
	cp := *d
	return &cp, nil
}

func (s *Disbursements) MarkPaid(_ context.Context, id uuid.UUID, blockIndex uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disbursements[id]
	if !ok {
		return bookkeeping.ErrNotFound
	}
	d.Status = models.DisbursementPaid
	d.BlockIndex = &blockIndex
	d.UpdatedAt = time.Now()
	return nil
}

func (s *Disbursements) MarkFailed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disbursements[id]
	if !ok {
		return bookkeeping.ErrNotFound
	}
	d.Status = models.DisbursementFailed
	d.UpdatedAt = time.Now()
	return nil
}

func (s *Disbursements) ListByJob(_ context.Context, jobID uuid.UUID) ([]models.Disbursement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Disbursement
	for _, d := range s.disbursements {
		if d.JobID == jobID {
			out = append(out, *d)
		}
	}
	return out, nil
}

var _ bookkeeping.DisbursementStore = (*Disbursements)(nil)
