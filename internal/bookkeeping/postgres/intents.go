package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/models"
)

// Intents persists transfer intents in PostgreSQL.
type Intents struct {
	pool *pgxpool.Pool
}

func NewIntents(pool *pgxpool.Pool) *Intents {
	return &Intents{pool: pool}
}

func (s *Intents) Create(ctx context.Context, intent *models.TransferIntent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transfer_intents
			(id, kind, from_owner, from_subaccount, to_owner, to_subaccount, amount, fee, memo, job_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
	`, intent.ID, intent.Kind, intent.FromOwner, intent.FromSubaccount, intent.ToOwner, intent.ToSubaccount,
		intent.Amount, intent.Fee, intent.Memo, intent.JobID, intent.Status)
	return err
}

func (s *Intents) MarkLedgerSucceeded(ctx context.Context, id uuid.UUID, blockIndex uint64) error {
	return s.setStatus(ctx, id, models.IntentLedgerSucceeded, &blockIndex)
}

func (s *Intents) MarkCommitted(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, models.IntentCommitted, nil)
}

func (s *Intents) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, models.IntentFailed, nil)
}

func (s *Intents) MarkFlagged(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, models.IntentFlagged, nil)
}

func (s *Intents) setStatus(ctx context.Context, id uuid.UUID, status string, blockIndex *uint64) error {
	var block *int64
	if blockIndex != nil {
		b := int64(*blockIndex)
		block = &b
	}
	result, err := s.pool.Exec(ctx, `
		UPDATE transfer_intents
		SET status = $1, block_index = COALESCE($2, block_index), updated_at = now()
		WHERE id = $3
	`, status, block, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return bookkeeping.ErrNotFound
	}
	return nil
}

func (s *Intents) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.TransferIntent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, from_owner, from_subaccount, to_owner, to_subaccount, amount, fee, memo, job_id, status, block_index, created_at, updated_at
		FROM transfer_intents
		WHERE status = $1 AND updated_at <= $2
		ORDER BY updated_at ASC
	`, models.IntentLedgerSucceeded, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.TransferIntent
	for rows.Next() {
		var intent models.TransferIntent
		var blockIndex *int64
		if err := rows.Scan(&intent.ID, &intent.Kind, &intent.FromOwner, &intent.FromSubaccount,
			&intent.ToOwner, &intent.ToSubaccount, &intent.Amount, &intent.Fee, &intent.Memo,
			&intent.JobID, &intent.Status, &blockIndex, &intent.CreatedAt, &intent.UpdatedAt); err != nil {
			return nil, err
		}
		if blockIndex != nil {
			b := uint64(*blockIndex)
			intent.BlockIndex = &b
		}
		list = append(list, intent)
	}
	return list, rows.Err()
}

var _ bookkeeping.IntentStore = (*Intents)(nil)
