package payments

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/bookkeeping/memory"
	"github.com/worklance/backend/internal/escrow"
	"github.com/worklance/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory fakes. The ledger fake records every transfer it accepts so
// tests can assert on what actually moved; stores come from the real
// in-memory bookkeeping implementation.
// ---------------------------------------------------------------------------

type fakeLedger struct {
	mu        sync.Mutex
	transfers []models.TransferIntent
	// failAt makes the Nth call (1-based) fail; 0 never fails.
	failAt  int
	failErr error
	calls   int
}

func (f *fakeLedger) Transfer(_ context.Context, intent models.TransferIntent) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt != 0 && f.calls == f.failAt {
		if f.failErr == nil {
			f.failErr = errors.New("transfer rejected")
		}
		return 0, f.failErr
	}
	f.transfers = append(f.transfers, intent)
	return uint64(100 + f.calls), nil
}

func (f *fakeLedger) completed() []models.TransferIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TransferIntent, len(f.transfers))
	copy(out, f.transfers)
	return out
}

type failingRecorder struct{}

func (failingRecorder) Append(context.Context, models.CashFlowRecord) error {
	return errors.New("bookkeeping store unavailable")
}

func newTestOrchestrator(ledger TokenLedger) (*Orchestrator, *memory.Store, *memory.Intents, *memory.Disbursements) {
	store := memory.NewStore()
	intents := memory.NewIntents()
	disbursements := memory.NewDisbursements()
	resolver := escrow.NewResolver(uuid.New(), slog.Default())
	o := NewOrchestrator(ledger, store, intents, disbursements, resolver, nil, slog.Default())
	return o, store, intents, disbursements
}

// ---------------------------------------------------------------------------
// TopUp
// ---------------------------------------------------------------------------

func TestTopUpSuccess(t *testing.T) {
	ledger := &fakeLedger{}
	o, store, intents, _ := newTestOrchestrator(ledger)
	user := uuid.New()

	ctx := context.Background()
	block, err := o.TopUp(ctx, user, 500)
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if block == 0 {
		t.Error("expected a ledger block index")
	}

	recs, _ := store.All(ctx)
	if len(recs) != 1 {
		t.Fatalf("cash-flow records: got %d, want 1", len(recs))
	}
	if recs[0].TransactionType != models.TxTypeTopUp {
		t.Errorf("transaction type: got %q, want top_up", recs[0].TransactionType)
	}
	if recs[0].FromID != user || recs[0].Amount != 500 {
		t.Errorf("record: got from=%s amount=%d", recs[0].FromID, recs[0].Amount)
	}

	all := intents.AllIntents()
	if len(all) != 1 || all[0].Status != models.IntentCommitted {
		t.Errorf("intent should be committed, got %+v", all)
	}
}

func TestTopUpRejectsNonPositiveAmount(t *testing.T) {
	ledger := &fakeLedger{}
	o, store, _, _ := newTestOrchestrator(ledger)

	_, err := o.TopUp(context.Background(), uuid.New(), 0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ledger.completed()) != 0 {
		t.Error("validation failure must not issue a ledger transfer")
	}
	if recs, _ := store.All(context.Background()); len(recs) != 0 {
		t.Error("validation failure must not record a cash flow")
	}
}

// ---------------------------------------------------------------------------
// TransferToJob: two-step failure modes
// ---------------------------------------------------------------------------

func TestTransferToJobLedgerFailureLeavesNoRecord(t *testing.T) {
	ledger := &fakeLedger{failAt: 1}
	o, store, intents, _ := newTestOrchestrator(ledger)

	job := &models.Job{ID: uuid.New(), SalaryUnits: 900}
	job.EscrowSubaccount = o.Resolver.JobSubaccount(job.ID)

	_, err := o.TransferToJob(context.Background(), uuid.New(), job, 900)
	var lerr *LedgerError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LedgerError, got %v", err)
	}

	if recs, _ := store.All(context.Background()); len(recs) != 0 {
		t.Errorf("ledger failure must leave zero cash-flow records, got %d", len(recs))
	}
	all := intents.AllIntents()
	if len(all) != 1 || all[0].Status != models.IntentFailed {
		t.Errorf("intent should be failed, got %+v", all)
	}
}

func TestBookkeepingFailureIsPhantomTransfer(t *testing.T) {
	ledger := &fakeLedger{}
	intents := memory.NewIntents()
	resolver := escrow.NewResolver(uuid.New(), slog.Default())
	o := NewOrchestrator(ledger, failingRecorder{}, intents, memory.NewDisbursements(), resolver, nil, slog.Default())

	job := &models.Job{ID: uuid.New(), SalaryUnits: 900}
	job.EscrowSubaccount = resolver.JobSubaccount(job.ID)

	_, err := o.TransferToJob(context.Background(), uuid.New(), job, 900)

	// (b) a distinct BookkeepingError reaches the caller.
	var berr *BookkeepingError
	if !errors.As(err, &berr) {
		t.Fatalf("expected BookkeepingError, got %v", err)
	}
	// (a) the ledger-level transfer already took effect.
	if len(ledger.completed()) != 1 {
		t.Fatalf("ledger transfers: got %d, want 1", len(ledger.completed()))
	}
	if berr.BlockIndex == 0 {
		t.Error("BookkeepingError should carry the block index of the completed transfer")
	}
	// (c) the intent is stranded in ledger_succeeded for reconciliation.
	all := intents.AllIntents()
	if len(all) != 1 || all[0].Status != models.IntentLedgerSucceeded {
		t.Errorf("intent should remain ledger_succeeded, got %+v", all)
	}
}

// ---------------------------------------------------------------------------
// PayoutToFreelancers
// ---------------------------------------------------------------------------

func TestPayoutZeroFreelancersIsSuccessfulNoOp(t *testing.T) {
	ledger := &fakeLedger{}
	o, _, _, _ := newTestOrchestrator(ledger)

	job := &models.Job{ID: uuid.New(), SalaryUnits: 1000}
	if err := o.PayoutToFreelancers(context.Background(), job, nil); err != nil {
		t.Fatalf("payout with zero freelancers should succeed, got %v", err)
	}
	if len(ledger.completed()) != 0 {
		t.Error("payout with zero freelancers must perform zero transfers")
	}
}

func TestPayoutEvenSplit(t *testing.T) {
	ledger := &fakeLedger{}
	o, _, _, _ := newTestOrchestrator(ledger)

	job := &models.Job{ID: uuid.New(), SalaryUnits: 900}
	job.EscrowSubaccount = o.Resolver.JobSubaccount(job.ID)
	freelancers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	if err := o.PayoutToFreelancers(context.Background(), job, freelancers); err != nil {
		t.Fatalf("PayoutToFreelancers: %v", err)
	}

	transfers := ledger.completed()
	if len(transfers) != 3 {
		t.Fatalf("transfers: got %d, want 3", len(transfers))
	}
	var total int64
	for _, tr := range transfers {
		if tr.Amount != 300 {
			t.Errorf("per-freelancer amount: got %d, want 300", tr.Amount)
		}
		total += tr.Amount
	}
	if total != 900 {
		t.Errorf("total distributed: got %d, want 900", total)
	}
}

func TestPayoutSequentialAbortOnFirstFailure(t *testing.T) {
	ledger := &fakeLedger{failAt: 2}
	o, _, _, disbursements := newTestOrchestrator(ledger)

	job := &models.Job{ID: uuid.New(), SalaryUnits: 900}
	job.EscrowSubaccount = o.Resolver.JobSubaccount(job.ID)
	freelancers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	err := o.PayoutToFreelancers(context.Background(), job, freelancers)
	var lerr *LedgerError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LedgerError, got %v", err)
	}

	// The first transfer completed and stays completed; the third was
	// never attempted.
	if got := len(ledger.completed()); got != 1 {
		t.Errorf("completed transfers: got %d, want 1", got)
	}

	ds, _ := disbursements.ListByJob(context.Background(), job.ID)
	paid, failed := 0, 0
	for _, d := range ds {
		switch d.Status {
		case models.DisbursementPaid:
			paid++
		case models.DisbursementFailed:
			failed++
		}
	}
	if paid != 1 || failed != 1 {
		t.Errorf("disbursements: got %d paid / %d failed, want 1/1", paid, failed)
	}
	if len(ds) != 2 {
		t.Errorf("disbursement records: got %d, want 2 (third recipient never reached)", len(ds))
	}
}

func TestPayoutResumesFromFirstUnpaidRecipient(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	job := &models.Job{ID: uuid.New(), SalaryUnits: 1000}

	ledger := &fakeLedger{}
	o, _, _, disbursements := newTestOrchestrator(ledger)
	job.EscrowSubaccount = o.Resolver.JobSubaccount(job.ID)

	ctx := context.Background()

	// Simulate an earlier run that paid the first freelancer.
	d, err := disbursements.Ensure(ctx, job.ID, first, 500)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := disbursements.MarkPaid(ctx, d.ID, 7); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	if err := o.PayoutToFreelancers(ctx, job, []uuid.UUID{first, second}); err != nil {
		t.Fatalf("PayoutToFreelancers: %v", err)
	}

	// Only the second freelancer is paid in this run.
	transfers := ledger.completed()
	if len(transfers) != 1 {
		t.Fatalf("transfers: got %d, want 1", len(transfers))
	}
}

// Payout transfers leave no cash-flow record today; the audit trail for
// payouts lives in disbursements only.
func TestPayoutWritesNoCashFlowRecords(t *testing.T) {
	ledger := &fakeLedger{}
	o, store, _, _ := newTestOrchestrator(ledger)

	job := &models.Job{ID: uuid.New(), SalaryUnits: 600}
	job.EscrowSubaccount = o.Resolver.JobSubaccount(job.ID)

	if err := o.PayoutToFreelancers(context.Background(), job, []uuid.UUID{uuid.New(), uuid.New()}); err != nil {
		t.Fatalf("PayoutToFreelancers: %v", err)
	}
	if recs, _ := store.All(context.Background()); len(recs) != 0 {
		t.Errorf("payout must not append cash-flow records, got %d", len(recs))
	}
}
