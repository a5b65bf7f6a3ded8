package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
)

// ErrStatusConflict is returned by a JobStore when a status transition's
// guard matched no row: another caller won the same transition first.
// Preconditions here are advisory only; the store's guarded update is what
// actually decides the race, and the loser surfaces this error.
var ErrStatusConflict = errors.New("job status changed concurrently")

// JobStore is the minimal job persistence interface for the state machine.
// The MarkX methods must guard on the current status and return
// ErrStatusConflict when the guard matches nothing.
type JobStore interface {
	GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	MarkOngoing(ctx context.Context, jobID uuid.UUID) error
	MarkFinished(ctx context.Context, jobID uuid.UUID) error
	MarkCancelled(ctx context.Context, jobID uuid.UUID) error
	ListAcceptedFreelancers(ctx context.Context, jobID uuid.UUID) ([]uuid.UUID, error)
}

// BalanceQuerier reads a live balance from the external ledger.
type BalanceQuerier interface {
	LiveBalance(ctx context.Context, account models.Account) (int64, error)
}

// Payments is the slice of the payment orchestrator the state machine drives.
type Payments interface {
	TransferToJob(ctx context.Context, clientID uuid.UUID, job *models.Job, amount int64) (uint64, error)
	PayoutToFreelancers(ctx context.Context, job *models.Job, freelancers []uuid.UUID) error
}

// AccountResolver maps a user to the ledger account their balance lives in.
type AccountResolver interface {
	UserAccount(userID uuid.UUID) models.Account
}

type Service interface {
	StartJob(ctx context.Context, jobID, requester uuid.UUID) error
	FinishJob(ctx context.Context, jobID uuid.UUID) error
	DeleteJob(ctx context.Context, jobID uuid.UUID) error
}

type service struct {
	jobs     JobStore
	balances BalanceQuerier
	payments Payments
	resolver AccountResolver
	log      *slog.Logger
}

func NewService(jobs JobStore, balances BalanceQuerier, pay Payments, resolver AccountResolver, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{jobs: jobs, balances: balances, payments: pay, resolver: resolver, log: log}
}

var _ Service = (*service)(nil)

// StartJob moves an OPEN job to ONGOING and funds its escrow. The status
// flips before the funding transfer is attempted: a failed transfer leaves
// the job ONGOING without escrowed funds, and the caller sees the transfer
// error. Preconditions (status, balance) fail with zero side effects.
func (s *service) StartJob(ctx context.Context, jobID, requester uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusOpen {
		return &payments.ValidationError{Reason: fmt.Sprintf("job is %s, not OPEN", job.Status)}
	}

	bal, err := s.balances.LiveBalance(ctx, s.resolver.UserAccount(requester))
	if err != nil {
		return fmt.Errorf("balance check for %s: %w", requester, err)
	}
	if bal < job.SalaryUnits {
		return &payments.ValidationError{
			Reason: fmt.Sprintf("balance %d is below job salary %d", bal, job.SalaryUnits),
		}
	}

	if err := s.jobs.MarkOngoing(ctx, jobID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return &payments.ValidationError{Reason: "job was started by a concurrent request"}
		}
		return fmt.Errorf("mark job ongoing: %w", err)
	}

	if _, err := s.payments.TransferToJob(ctx, requester, job, job.SalaryUnits); err != nil {
		// The job stays ONGOING and unfunded. There is no transition back
		// to OPEN, so this gap is reported, not repaired.
		s.log.Error("job started but escrow funding failed",
			"job_id", jobID, "requester", requester, "error", err)
		return err
	}
	return nil
}

// FinishJob moves an ONGOING job to FINISHED, then disburses the escrowed
// salary to the accepted freelancers. A payout failure partway through
// leaves the job FINISHED with the completed transfers in place; nothing
// is compensated.
func (s *service) FinishJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusOngoing {
		return &payments.ValidationError{Reason: fmt.Sprintf("job is %s, not ONGOING", job.Status)}
	}

	if err := s.jobs.MarkFinished(ctx, jobID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return &payments.ValidationError{Reason: "job was finished by a concurrent request"}
		}
		return fmt.Errorf("mark job finished: %w", err)
	}

	freelancers, err := s.jobs.ListAcceptedFreelancers(ctx, jobID)
	if err != nil {
		return fmt.Errorf("list accepted freelancers: %w", err)
	}

	if err := s.payments.PayoutToFreelancers(ctx, job, freelancers); err != nil {
		s.log.Error("job finished but payout incomplete", "job_id", jobID, "error", err)
		return err
	}
	return nil
}

// DeleteJob cancels an OPEN job. Cancellation is not reachable from any
// other status.
func (s *service) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusOpen {
		return &payments.ValidationError{Reason: fmt.Sprintf("only OPEN jobs can be deleted, job is %s", job.Status)}
	}
	if err := s.jobs.MarkCancelled(ctx, jobID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return &payments.ValidationError{Reason: "job status changed before deletion"}
		}
		return fmt.Errorf("mark job cancelled: %w", err)
	}
	return nil
}
