package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/models"
)

// Disbursements persists per-recipient payout records. The (job_id,
// freelancer_id) unique constraint is the idempotency key a retried payout
// run relies on.
type Disbursements struct {
	pool *pgxpool.Pool
}

func NewDisbursements(pool *pgxpool.Pool) *Disbursements {
	return &Disbursements{pool: pool}
}

func (s *Disbursements) Ensure(ctx context.Context, jobID, freelancerID uuid.UUID, amount int64) (*models.Disbursement, error) {
	var d models.Disbursement
	var blockIndex *int64
	row := s.pool.QueryRow(ctx, `
		INSERT INTO disbursements (id, job_id, freelancer_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id, freelancer_id) DO UPDATE SET updated_at = now()
		RETURNING id, job_id, freelancer_id, amount, status, block_index, created_at, updated_at
	`, uuid.New(), jobID, freelancerID, amount, models.DisbursementPending)
	if err := row.Scan(&d.ID, &d.JobID, &d.FreelancerID, &d.Amount, &d.Status, &blockIndex, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if blockIndex != nil {
		b := uint64(*blockIndex)
		d.BlockIndex = &b
	}
	return &d, nil
}

func (s *Disbursements) MarkPaid(ctx context.Context, id uuid.UUID, blockIndex uint64) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE disbursements SET status = $1, block_index = $2, updated_at = now() WHERE id = $3
	`, models.DisbursementPaid, int64(blockIndex), id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return bookkeeping.ErrNotFound
	}
	return nil
}

func (s *Disbursements) MarkFailed(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE disbursements SET status = $1, updated_at = now() WHERE id = $2
	`, models.DisbursementFailed, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return bookkeeping.ErrNotFound
	}
	return nil
}

func (s *Disbursements) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Disbursement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, freelancer_id, amount, status, block_index, created_at, updated_at
		FROM disbursements WHERE job_id = $1 ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Disbursement
	for rows.Next() {
		var d models.Disbursement
		var blockIndex *int64
		if err := rows.Scan(&d.ID, &d.JobID, &d.FreelancerID, &d.Amount, &d.Status, &blockIndex, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if blockIndex != nil {
			b := uint64(*blockIndex)
			d.BlockIndex = &b
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

var _ bookkeeping.DisbursementStore = (*Disbursements)(nil)
