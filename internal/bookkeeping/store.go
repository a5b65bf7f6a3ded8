package bookkeeping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
)

// ErrNotFound is returned when a record, intent, or disbursement does not exist.
var ErrNotFound = errors.New("bookkeeping record not found")

// CashFlowStore is the append-only internal bookkeeping log. Entries are
// written strictly as a side effect of a successful ledger transfer and are
// never mutated or deleted.
type CashFlowStore interface {
	Append(ctx context.Context, rec models.CashFlowRecord) error
	ListByAccount(ctx context.Context, userID uuid.UUID) ([]models.CashFlowRecord, error)
	All(ctx context.Context) ([]models.CashFlowRecord, error)
}

// IntentStore tracks transfer intents through pending -> ledger_succeeded
// -> committed (or failed / flagged).
type IntentStore interface {
	Create(ctx context.Context, intent *models.TransferIntent) error
	MarkLedgerSucceeded(ctx context.Context, id uuid.UUID, blockIndex uint64) error
	MarkCommitted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	MarkFlagged(ctx context.Context, id uuid.UUID) error
	// ListStuck returns intents sitting in ledger_succeeded for longer
	// than olderThan: ledger-level transfers with no bookkeeping record.
	ListStuck(ctx context.Context, olderThan time.Duration) ([]models.TransferIntent, error)
}

// DisbursementStore tracks per-recipient payout records.
type DisbursementStore interface {
	Ensure(ctx context.Context, jobID, freelancerID uuid.UUID, amount int64) (*models.Disbursement, error)
	MarkPaid(ctx context.Context, id uuid.UUID, blockIndex uint64) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Disbursement, error)
}

// MetadataStore resolves token display metadata.
type MetadataStore interface {
	TokenInfo(ctx context.Context) (models.TokenInfo, error)
}
