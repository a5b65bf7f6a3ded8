package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/models"
)

// Store persists cash-flow records and token metadata in PostgreSQL.
// cash_flows is append-only: there are no UPDATE or DELETE paths.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, rec models.CashFlowRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cash_flows (id, from_id, to_ids, job_id, amount, transaction_type, transaction_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.FromID, rec.ToIDs, rec.JobID, rec.Amount, rec.TransactionType, rec.TransactionAt)
	return err
}

func (s *Store) ListByAccount(ctx context.Context, userID uuid.UUID) ([]models.CashFlowRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, from_id, to_ids, job_id, amount, transaction_type, transaction_at
		FROM cash_flows
		WHERE from_id = $1 OR $1 = ANY(to_ids)
		ORDER BY transaction_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) All(ctx context.Context) ([]models.CashFlowRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, from_id, to_ids, job_id, amount, transaction_type, transaction_at
		FROM cash_flows ORDER BY transaction_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]models.CashFlowRecord, error) {
	var list []models.CashFlowRecord
	for rows.Next() {
		var rec models.CashFlowRecord
		if err := rows.Scan(&rec.ID, &rec.FromID, &rec.ToIDs, &rec.JobID, &rec.Amount, &rec.TransactionType, &rec.TransactionAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// SeedTokenInfo upserts the configured token metadata so TokenInfo always
// has a row to serve.
func (s *Store) SeedTokenInfo(ctx context.Context, info models.TokenInfo) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (ledger_id, name, symbol)
		VALUES ($1, $2, $3)
		ON CONFLICT (ledger_id) DO UPDATE SET name = $2, symbol = $3
	`, info.LedgerID, info.Name, info.Symbol)
	return err
}

func (s *Store) TokenInfo(ctx context.Context) (models.TokenInfo, error) {
	var info models.TokenInfo
	row := s.pool.QueryRow(ctx, `SELECT ledger_id, name, symbol FROM tokens LIMIT 1`)
	if err := row.Scan(&info.LedgerID, &info.Name, &info.Symbol); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TokenInfo{}, bookkeeping.ErrNotFound
		}
		return models.TokenInfo{}, err
	}
	return info, nil
}

var (
	_ bookkeeping.CashFlowStore = (*Store)(nil)
	_ bookkeeping.MetadataStore = (*Store)(nil)
)
