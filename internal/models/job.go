package models

import (
	"time"

	"github.com/google/uuid"
)

// Job status enums. Status only ever advances: OPEN -> ONGOING -> FINISHED.
// CANCELLED is reachable only from OPEN via deletion.
const (
	JobStatusOpen      = "OPEN"
	JobStatusOngoing   = "ONGOING"
	JobStatusFinished  = "FINISHED"
	JobStatusCancelled = "CANCELLED"
)

type Job struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	// SalaryUnits is the fixed job salary in the smallest token unit.
	SalaryUnits int64 `json:"salary_units"`
	Slots       int   `json:"slots"`
	// EscrowSubaccount scopes custody of the job's funds on the external
	// ledger. Nil means no custody scoping: transfers fall back to the
	// custodian's default balance.
	EscrowSubaccount []byte    `json:"escrow_subaccount,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// JobApplier is one freelancer's application to a job.
type JobApplier struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    uuid.UUID `json:"user_id"`
	AppliedAt time.Time `json:"applied_at"`
	Accepted  bool      `json:"accepted"`
}
