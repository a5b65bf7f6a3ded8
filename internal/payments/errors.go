package payments

import "fmt"

// The four failure classes of a monetary operation. ValidationError and
// NotFoundError guarantee zero side effects. LedgerError means the external
// transfer never took effect. BookkeepingError means it did: funds moved on
// the ledger but no internal record exists ("phantom transfer"), which
// callers must be able to tell apart from "nothing happened".

type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger transfer failed during %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

type BookkeepingError struct {
	Op string
	// BlockIndex of the ledger transfer that already took effect.
	BlockIndex uint64
	Err        error
}

func (e *BookkeepingError) Error() string {
	return fmt.Sprintf("funds moved (block %d) but bookkeeping failed during %s: %v", e.BlockIndex, e.Op, e.Err)
}

func (e *BookkeepingError) Unwrap() error { return e.Err }
