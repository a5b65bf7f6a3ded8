package models

import "github.com/google/uuid"

// Account is a ledger-side identity: an owner plus an optional subaccount
// key that scopes a slice of balance under that owner. The external ledger,
// not this service, is the source of truth for the balance itself.
type Account struct {
	Owner uuid.UUID `json:"owner"`
	// Subaccount is empty for the owner's default balance.
	Subaccount []byte `json:"subaccount,omitempty"`
}

// DefaultAccount returns the owner's default-balance account.
func DefaultAccount(owner uuid.UUID) Account {
	return Account{Owner: owner}
}
