package models

import "github.com/google/uuid"

// TokenInfo is the display metadata of the ledger token, kept in internal
// bookkeeping so read paths never need the external ledger for it.
type TokenInfo struct {
	LedgerID uuid.UUID `json:"ledger_id"`
	Name     string    `json:"name"`
	Symbol   string    `json:"symbol"`
}
