package models

import (
	"time"

	"github.com/google/uuid"
)

// Cash-flow transaction_type enums.
const (
	TxTypeTopUp         = "top_up"
	TxTypeTransfer      = "transfer"
	TxTypeTransferToJob = "transfer_to_job"
)

// CashFlowRecord is one immutable row of the internal bookkeeping log.
// It is appended exactly once per successful external ledger call and is
// derived from that call, not authoritative for balances.
type CashFlowRecord struct {
	ID              uuid.UUID   `json:"id"`
	FromID          uuid.UUID   `json:"from_id"`
	ToIDs           []uuid.UUID `json:"to_ids"`
	JobID           *uuid.UUID  `json:"job_id,omitempty"`
	Amount          int64       `json:"amount"`
	TransactionType string      `json:"transaction_type"`
	TransactionAt   time.Time   `json:"transaction_at"`
}
