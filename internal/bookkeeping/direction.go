package bookkeeping

import (
	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
)

// Direction of a cash flow relative to a viewing identity.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
	DirectionNone     = "none"
)

// Direction classifies a record as incoming or outgoing for the viewer.
// A top_up counts as incoming to the payer: the record carries the payer
// in FromID and no counter-party, but the funds landed in the payer's own
// sub-account.
func Direction(rec models.CashFlowRecord, viewer uuid.UUID) string {
	if rec.TransactionType == models.TxTypeTopUp {
		if rec.FromID == viewer {
			return DirectionIncoming
		}
		return DirectionNone
	}
	if rec.FromID == viewer {
		return DirectionOutgoing
	}
	for _, to := range rec.ToIDs {
		if to == viewer {
			return DirectionIncoming
		}
	}
	return DirectionNone
}
