package escrow

import (
	"crypto/sha256"
	"log/slog"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
)

// Resolver derives the stable sub-account that scopes custody of funds for
// a job or user on the external ledger. Derivation is deterministic: the
// same ID always maps to the same sub-account.
type Resolver struct {
	// Custodian is the ledger owner that holds all job escrow sub-accounts.
	Custodian uuid.UUID
	Log       *slog.Logger
}

func NewResolver(custodian uuid.UUID, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{Custodian: custodian, Log: log}
}

// JobSubaccount returns the 32-byte sub-account for a job's escrow.
func (r *Resolver) JobSubaccount(jobID uuid.UUID) []byte {
	return derive("job", jobID)
}

// UserSubaccount returns the 32-byte sub-account scoping a user's balance
// under the custodian owner.
func (r *Resolver) UserSubaccount(userID uuid.UUID) []byte {
	return derive("user", userID)
}

// UserAccount returns the ledger account holding a user's funds.
func (r *Resolver) UserAccount(userID uuid.UUID) models.Account {
	return models.Account{Owner: r.Custodian, Subaccount: r.UserSubaccount(userID)}
}

// JobEscrowAccount returns the ledger account holding a job's escrowed
// funds. A job without an escrow sub-account falls back to the custodian's
// default balance, which drops per-job custody scoping; that is a warning
// condition, not a failure.
func (r *Resolver) JobEscrowAccount(job *models.Job) models.Account {
	if len(job.EscrowSubaccount) == 0 {
		r.Log.Warn("job has no escrow subaccount, using custodian default balance",
			"job_id", job.ID)
		return models.Account{Owner: r.Custodian}
	}
	return models.Account{Owner: r.Custodian, Subaccount: job.EscrowSubaccount}
}

func derive(scope string, id uuid.UUID) []byte {
	sum := sha256.Sum256(append([]byte(scope+":"), id[:]...))
	return sum[:]
}
