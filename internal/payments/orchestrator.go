package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/escrow"
	"github.com/worklance/backend/internal/models"
)

// TokenLedger is the minimal external ledger interface for the orchestrator.
type TokenLedger interface {
	Transfer(ctx context.Context, intent models.TransferIntent) (blockIndex uint64, err error)
}

// CashFlowRecorder appends settled-fund-movement records to the internal
// bookkeeping log.
type CashFlowRecorder interface {
	Append(ctx context.Context, rec models.CashFlowRecord) error
}

// IntentStore persists transfer intents through their saga lifecycle.
type IntentStore interface {
	Create(ctx context.Context, intent *models.TransferIntent) error
	MarkLedgerSucceeded(ctx context.Context, id uuid.UUID, blockIndex uint64) error
	MarkCommitted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// DisbursementStore persists per-recipient payout records.
type DisbursementStore interface {
	Ensure(ctx context.Context, jobID, freelancerID uuid.UUID, amount int64) (*models.Disbursement, error)
	MarkPaid(ctx context.Context, id uuid.UUID, blockIndex uint64) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// EventPublisher publishes settlement events for downstream consumers.
type EventPublisher interface {
	Publish(topic string, event any) error
}

// TopicCashFlows carries one event per committed cash-flow record.
const TopicCashFlows = "cash_flow_records"

// CashFlowRecorded is the event published after a fully committed
// two-step operation.
type CashFlowRecorded struct {
	RecordID        uuid.UUID `json:"record_id"`
	FromID          uuid.UUID `json:"from_id"`
	Amount          int64     `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	BlockIndex      uint64    `json:"block_index"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Orchestrator performs the two-step monetary operations: an external
// ledger transfer followed by an internal bookkeeping record. The two
// systems share no transaction boundary; a transfer intent is persisted
// before the ledger call and committed only after the record lands, so a
// step-2 failure is detectable later even though it cannot be rolled back.
type Orchestrator struct {
	Ledger        TokenLedger
	CashFlows     CashFlowRecorder
	Intents       IntentStore
	Disbursements DisbursementStore
	Resolver      *escrow.Resolver
	Events        EventPublisher
	Log           *slog.Logger
	now           func() time.Time
}

func NewOrchestrator(
	ledger TokenLedger,
	cashFlows CashFlowRecorder,
	intents IntentStore,
	disbursements DisbursementStore,
	resolver *escrow.Resolver,
	events EventPublisher,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		Ledger:        ledger,
		CashFlows:     cashFlows,
		Intents:       intents,
		Disbursements: disbursements,
		Resolver:      resolver,
		Events:        events,
		Log:           log,
		now:           time.Now,
	}
}

// TopUp moves amount from the user's external identity into their scoped
// sub-account, then records a top_up cash flow. Returns the ledger block
// index of the transfer.
func (o *Orchestrator) TopUp(ctx context.Context, userID uuid.UUID, amount int64) (uint64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Reason: "top-up amount must be positive"}
	}

	target := o.Resolver.UserAccount(userID)
	intent := &models.TransferIntent{
		ID:           uuid.New(),
		Kind:         models.IntentKindTopUp,
		FromOwner:    userID,
		ToOwner:      target.Owner,
		ToSubaccount: target.Subaccount,
		Amount:       amount,
		Memo:         "top_up",
		Status:       models.IntentPending,
		CreatedAt:    o.now(),
	}

	block, err := o.runTransfer(ctx, intent)
	if err != nil {
		return 0, err
	}

	rec := models.CashFlowRecord{
		ID:              uuid.New(),
		FromID:          userID,
		Amount:          amount,
		TransactionType: models.TxTypeTopUp,
		TransactionAt:   o.now(),
	}
	if err := o.record(ctx, intent, rec, block, "top-up"); err != nil {
		return 0, err
	}
	return block, nil
}

// TransferToJob moves amount from the client's sub-account into the job's
// escrow sub-account, then records a transfer_to_job cash flow keyed by
// (client, job, amount).
func (o *Orchestrator) TransferToJob(ctx context.Context, clientID uuid.UUID, job *models.Job, amount int64) (uint64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Reason: "transfer amount must be positive"}
	}

	from := o.Resolver.UserAccount(clientID)
	to := o.Resolver.JobEscrowAccount(job)
	intent := &models.TransferIntent{
		ID:             uuid.New(),
		Kind:           models.IntentKindTransferToJob,
		FromOwner:      from.Owner,
		FromSubaccount: from.Subaccount,
		ToOwner:        to.Owner,
		ToSubaccount:   to.Subaccount,
		Amount:         amount,
		Memo:           "escrow:" + job.ID.String(),
		JobID:          &job.ID,
		Status:         models.IntentPending,
		CreatedAt:      o.now(),
	}

	block, err := o.runTransfer(ctx, intent)
	if err != nil {
		return 0, err
	}

	rec := models.CashFlowRecord{
		ID:              uuid.New(),
		FromID:          clientID,
		JobID:           &job.ID,
		Amount:          amount,
		TransactionType: models.TxTypeTransferToJob,
		TransactionAt:   o.now(),
	}
	if err := o.record(ctx, intent, rec, block, "transfer-to-job"); err != nil {
		return 0, err
	}
	return block, nil
}

// PayoutToFreelancers disburses the job's escrowed salary evenly across the
// accepted freelancers, strictly in order. Zero freelancers is a successful
// no-op. The loop aborts on the first ledger failure; transfers already
// completed stay completed. A freelancer already marked paid from an
// earlier run is skipped, so a retried payout resumes at the first unpaid
// recipient.
func (o *Orchestrator) PayoutToFreelancers(ctx context.Context, job *models.Job, freelancers []uuid.UUID) error {
	if len(freelancers) == 0 {
		return nil
	}

	per := Split(job.SalaryUnits, len(freelancers))
	from := o.Resolver.JobEscrowAccount(job)

	for _, freelancerID := range freelancers {
		d, err := o.Disbursements.Ensure(ctx, job.ID, freelancerID, per)
		if err != nil {
			return fmt.Errorf("ensure disbursement for %s: %w", freelancerID, err)
		}
		if d.Status == models.DisbursementPaid {
			o.Log.Info("skipping already-paid freelancer", "job_id", job.ID, "freelancer_id", freelancerID)
			continue
		}

		to := o.Resolver.UserAccount(freelancerID)
		block, err := o.Ledger.Transfer(ctx, models.TransferIntent{
			ID:             d.ID,
			Kind:           models.IntentKindPayout,
			FromOwner:      from.Owner,
			FromSubaccount: from.Subaccount,
			ToOwner:        to.Owner,
			ToSubaccount:   to.Subaccount,
			Amount:         per,
			Memo:           "payout:" + job.ID.String(),
			JobID:          &job.ID,
			CreatedAt:      o.now(),
		})
		if err != nil {
			if markErr := o.Disbursements.MarkFailed(ctx, d.ID); markErr != nil {
				o.Log.Error("mark disbursement failed", "disbursement_id", d.ID, "error", markErr)
			}
			return &LedgerError{Op: "payout", Err: err}
		}
		if err := o.Disbursements.MarkPaid(ctx, d.ID, block); err != nil {
			o.Log.Error("mark disbursement paid", "disbursement_id", d.ID, "error", err)
		}
		// TODO: append a per-freelancer cash-flow record once the audit
		// log supports payout entries; payouts are currently traceable
		// only through disbursements.
	}
	return nil
}

// runTransfer is step 1 of the two-step shape: persist the intent, submit
// the ledger transfer, and advance the intent state.
func (o *Orchestrator) runTransfer(ctx context.Context, intent *models.TransferIntent) (uint64, error) {
	if err := o.Intents.Create(ctx, intent); err != nil {
		return 0, fmt.Errorf("persist transfer intent: %w", err)
	}

	block, err := o.Ledger.Transfer(ctx, *intent)
	if err != nil {
		if markErr := o.Intents.MarkFailed(ctx, intent.ID); markErr != nil {
			o.Log.Error("mark intent failed", "intent_id", intent.ID, "error", markErr)
		}
		return 0, &LedgerError{Op: intent.Kind, Err: err}
	}

	if err := o.Intents.MarkLedgerSucceeded(ctx, intent.ID, block); err != nil {
		o.Log.Error("mark intent ledger_succeeded", "intent_id", intent.ID, "error", err)
	}
	return block, nil
}

// record is step 2: append the cash-flow record and commit the intent. A
// failure here is a BookkeepingError: the ledger transfer already took
// effect and the intent stays in ledger_succeeded for reconciliation.
func (o *Orchestrator) record(ctx context.Context, intent *models.TransferIntent, rec models.CashFlowRecord, block uint64, op string) error {
	if err := o.CashFlows.Append(ctx, rec); err != nil {
		o.Log.Error("phantom transfer: ledger moved funds but bookkeeping failed",
			"intent_id", intent.ID, "block_index", block, "error", err)
		return &BookkeepingError{Op: op, BlockIndex: block, Err: err}
	}
	if err := o.Intents.MarkCommitted(ctx, intent.ID); err != nil {
		o.Log.Error("mark intent committed", "intent_id", intent.ID, "error", err)
	}
	o.publish(rec, block)
	return nil
}

func (o *Orchestrator) publish(rec models.CashFlowRecord, block uint64) {
	if o.Events == nil {
		return
	}
	event := CashFlowRecorded{
		RecordID:        rec.ID,
		FromID:          rec.FromID,
		Amount:          rec.Amount,
		TransactionType: rec.TransactionType,
		BlockIndex:      block,
		OccurredAt:      rec.TransactionAt,
	}
	if err := o.Events.Publish(TopicCashFlows, event); err != nil {
		o.Log.Warn("publish cash-flow event", "record_id", rec.ID, "error", err)
	}
}
