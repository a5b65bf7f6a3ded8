package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeJobs struct {
	jobs        map[uuid.UUID]*models.Job
	accepted    map[uuid.UUID][]uuid.UUID
	conflictOn  string
	transitions []string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		jobs:     make(map[uuid.UUID]*models.Job),
		accepted: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, &payments.NotFoundError{Kind: "job", ID: id.String()}
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobs) mark(id uuid.UUID, from, to string) error {
	if f.conflictOn == to {
		return ErrStatusConflict
	}
	job, ok := f.jobs[id]
	if !ok || job.Status != from {
		return ErrStatusConflict
	}
	job.Status = to
	f.transitions = append(f.transitions, to)
	return nil
}

func (f *fakeJobs) MarkOngoing(_ context.Context, id uuid.UUID) error {
	return f.mark(id, models.JobStatusOpen, models.JobStatusOngoing)
}

func (f *fakeJobs) MarkFinished(_ context.Context, id uuid.UUID) error {
	return f.mark(id, models.JobStatusOngoing, models.JobStatusFinished)
}

func (f *fakeJobs) MarkCancelled(_ context.Context, id uuid.UUID) error {
	return f.mark(id, models.JobStatusOpen, models.JobStatusCancelled)
}

func (f *fakeJobs) ListAcceptedFreelancers(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return f.accepted[id], nil
}

type fakeBalances struct {
	amount int64
	err    error
	calls  int
}

func (f *fakeBalances) LiveBalance(context.Context, models.Account) (int64, error) {
	f.calls++
	return f.amount, f.err
}

type fakePayments struct {
	jobs *fakeJobs

	transferErr      error
	transferCalls    int
	statusAtTransfer string

	payoutErr   error
	payoutCalls int
	payoutTo    []uuid.UUID
}

func (f *fakePayments) TransferToJob(_ context.Context, _ uuid.UUID, job *models.Job, _ int64) (uint64, error) {
	f.transferCalls++
	// Observe the persisted status at the moment the funding transfer runs.
	if stored, ok := f.jobs.jobs[job.ID]; ok {
		f.statusAtTransfer = stored.Status
	}
	if f.transferErr != nil {
		return 0, f.transferErr
	}
	return 1, nil
}

func (f *fakePayments) PayoutToFreelancers(_ context.Context, _ *models.Job, freelancers []uuid.UUID) error {
	f.payoutCalls++
	f.payoutTo = freelancers
	return f.payoutErr
}

type fakeResolver struct{}

func (fakeResolver) UserAccount(userID uuid.UUID) models.Account {
	return models.DefaultAccount(userID)
}

func setup(balance int64) (Service, *fakeJobs, *fakeBalances, *fakePayments, *models.Job) {
	jobs := newFakeJobs()
	job := &models.Job{ID: uuid.New(), OwnerID: uuid.New(), Status: models.JobStatusOpen, SalaryUnits: 900}
	jobs.jobs[job.ID] = job
	balances := &fakeBalances{amount: balance}
	pay := &fakePayments{jobs: jobs}
	svc := NewService(jobs, balances, pay, fakeResolver{}, slog.Default())
	return svc, jobs, balances, pay, job
}

// ---------------------------------------------------------------------------
// StartJob
// ---------------------------------------------------------------------------

func TestStartJobFlipsStatusBeforeFunding(t *testing.T) {
	svc, jobs, _, pay, job := setup(1000)

	if err := svc.StartJob(context.Background(), job.ID, job.OwnerID); err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if jobs.jobs[job.ID].Status != models.JobStatusOngoing {
		t.Errorf("status: got %s, want ONGOING", jobs.jobs[job.ID].Status)
	}
	if pay.transferCalls != 1 {
		t.Fatalf("transfer calls: got %d, want 1", pay.transferCalls)
	}
	// The job is already ONGOING when the escrow transfer runs.
	if pay.statusAtTransfer != models.JobStatusOngoing {
		t.Errorf("status at transfer time: got %s, want ONGOING", pay.statusAtTransfer)
	}
}

func TestStartJobInsufficientBalanceHasNoSideEffects(t *testing.T) {
	svc, jobs, _, pay, job := setup(899)

	err := svc.StartJob(context.Background(), job.ID, job.OwnerID)
	var verr *payments.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if jobs.jobs[job.ID].Status != models.JobStatusOpen {
		t.Errorf("status must stay OPEN, got %s", jobs.jobs[job.ID].Status)
	}
	if pay.transferCalls != 0 {
		t.Errorf("no transfer may be attempted, got %d calls", pay.transferCalls)
	}
}

func TestStartJobRejectsNonOpenJob(t *testing.T) {
	svc, jobs, _, pay, job := setup(1000)
	jobs.jobs[job.ID].Status = models.JobStatusOngoing

	err := svc.StartJob(context.Background(), job.ID, job.OwnerID)
	var verr *payments.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if pay.transferCalls != 0 {
		t.Error("non-OPEN job must not trigger a transfer")
	}
}

func TestStartJobFundingFailureLeavesJobOngoing(t *testing.T) {
	svc, jobs, _, pay, job := setup(1000)
	pay.transferErr = &payments.LedgerError{Op: "transfer_to_job", Err: errors.New("ledger down")}

	err := svc.StartJob(context.Background(), job.ID, job.OwnerID)
	var lerr *payments.LedgerError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected the funding error, got %v", err)
	}
	// The transition is not rolled back; the job stays ONGOING without
	// escrowed funds.
	if jobs.jobs[job.ID].Status != models.JobStatusOngoing {
		t.Errorf("status: got %s, want ONGOING", jobs.jobs[job.ID].Status)
	}
}

func TestStartJobConcurrentTransitionLosesCleanly(t *testing.T) {
	svc, jobs, _, pay, job := setup(1000)
	jobs.conflictOn = models.JobStatusOngoing

	err := svc.StartJob(context.Background(), job.ID, job.OwnerID)
	var verr *payments.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on a lost race, got %v", err)
	}
	if pay.transferCalls != 0 {
		t.Error("the race loser must not fund escrow")
	}
}

// ---------------------------------------------------------------------------
// FinishJob
// ---------------------------------------------------------------------------

func TestFinishJobPaysAcceptedFreelancers(t *testing.T) {
	svc, jobs, _, pay, job := setup(0)
	jobs.jobs[job.ID].Status = models.JobStatusOngoing
	accepted := []uuid.UUID{uuid.New(), uuid.New()}
	jobs.accepted[job.ID] = accepted

	if err := svc.FinishJob(context.Background(), job.ID); err != nil {
		t.Fatalf("FinishJob: %v", err)
	}
	if jobs.jobs[job.ID].Status != models.JobStatusFinished {
		t.Errorf("status: got %s, want FINISHED", jobs.jobs[job.ID].Status)
	}
	if pay.payoutCalls != 1 || len(pay.payoutTo) != 2 {
		t.Errorf("payout: got %d calls to %d freelancers", pay.payoutCalls, len(pay.payoutTo))
	}
}

func TestFinishJobPayoutFailureLeavesJobFinished(t *testing.T) {
	svc, jobs, _, pay, job := setup(0)
	jobs.jobs[job.ID].Status = models.JobStatusOngoing
	jobs.accepted[job.ID] = []uuid.UUID{uuid.New()}
	pay.payoutErr = &payments.LedgerError{Op: "payout", Err: errors.New("rejected")}

	err := svc.FinishJob(context.Background(), job.ID)
	if err == nil {
		t.Fatal("expected the payout error to propagate")
	}
	if jobs.jobs[job.ID].Status != models.JobStatusFinished {
		t.Errorf("status: got %s, want FINISHED", jobs.jobs[job.ID].Status)
	}
}

func TestFinishJobRejectsNonOngoingJob(t *testing.T) {
	svc, _, _, pay, job := setup(0)

	err := svc.FinishJob(context.Background(), job.ID)
	var verr *payments.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if pay.payoutCalls != 0 {
		t.Error("no payout may run for a non-ONGOING job")
	}
}

// ---------------------------------------------------------------------------
// DeleteJob
// ---------------------------------------------------------------------------

func TestDeleteJobCancelsOpenJob(t *testing.T) {
	svc, jobs, _, _, job := setup(0)

	if err := svc.DeleteJob(context.Background(), job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if jobs.jobs[job.ID].Status != models.JobStatusCancelled {
		t.Errorf("status: got %s, want CANCELLED", jobs.jobs[job.ID].Status)
	}
}

func TestDeleteJobRejectsNonOpenJob(t *testing.T) {
	svc, jobs, _, _, job := setup(0)
	jobs.jobs[job.ID].Status = models.JobStatusFinished

	err := svc.DeleteJob(context.Background(), job.ID)
	var verr *payments.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if jobs.jobs[job.ID].Status != models.JobStatusFinished {
		t.Error("status must be unchanged")
	}
}

func TestStartJobUnknownJob(t *testing.T) {
	svc, _, _, _, _ := setup(1000)

	err := svc.StartJob(context.Background(), uuid.New(), uuid.New())
	var nerr *payments.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
