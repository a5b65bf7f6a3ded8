package models

import (
	"time"

	"github.com/google/uuid"
)

// Transfer-intent status enums. An intent is written before the external
// ledger call and committed only once the bookkeeping record lands, so a
// phantom transfer (ledger moved funds, no record) is visible as an intent
// stuck in ledger_succeeded.
const (
	IntentPending         = "pending"
	IntentLedgerSucceeded = "ledger_succeeded"
	IntentCommitted       = "committed"
	IntentFailed          = "failed"
	IntentFlagged         = "flagged"
)

// Intent kind enums.
const (
	IntentKindTopUp         = "top_up"
	IntentKindTransferToJob = "transfer_to_job"
	IntentKindPayout        = "payout"
)

// TransferIntent is the saga record for one external ledger transfer.
type TransferIntent struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	FromOwner      uuid.UUID  `json:"from_owner"`
	FromSubaccount []byte     `json:"from_subaccount,omitempty"`
	ToOwner        uuid.UUID  `json:"to_owner"`
	ToSubaccount   []byte     `json:"to_subaccount,omitempty"`
	Amount         int64      `json:"amount"`
	Fee            int64      `json:"fee"`
	Memo           string     `json:"memo,omitempty"`
	JobID          *uuid.UUID `json:"job_id,omitempty"`
	Status         string     `json:"status"`
	BlockIndex     *uint64    `json:"block_index,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Disbursement status enums.
const (
	DisbursementPending = "pending"
	DisbursementPaid    = "paid"
	DisbursementFailed  = "failed"
)

// Disbursement is the per-recipient payout record, keyed by (job,
// freelancer) so a retried payout run resumes from the first unpaid
// recipient instead of re-paying completed ones.
type Disbursement struct {
	ID           uuid.UUID `json:"id"`
	JobID        uuid.UUID `json:"job_id"`
	FreelancerID uuid.UUID `json:"freelancer_id"`
	Amount       int64     `json:"amount"`
	Status       string    `json:"status"`
	BlockIndex   *uint64   `json:"block_index,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
