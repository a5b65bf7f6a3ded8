package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/worklance/backend/internal/models"
)

type ReconcileIntentsArgs struct{}

func (ReconcileIntentsArgs) Kind() string { return "reconcile_transfer_intents" }

// IntentSource lists and flags transfer intents.
type IntentSource interface {
	ListStuck(ctx context.Context, olderThan time.Duration) ([]models.TransferIntent, error)
	MarkFlagged(ctx context.Context, id uuid.UUID) error
}

// EventPublisher mirrors the payments publisher contract.
type EventPublisher interface {
	Publish(topic string, event any) error
}

const TopicReconciliation = "transfer_reconciliation"

// IntentFlagged is published for every transfer whose funds moved on the
// ledger but whose bookkeeping record was never written.
type IntentFlagged struct {
	IntentID   string  `json:"intent_id"`
	Kind       string  `json:"kind"`
	Amount     int64   `json:"amount"`
	BlockIndex *uint64 `json:"block_index,omitempty"`
	StuckSince string  `json:"stuck_since"`
}

// Worker periodically scans for intents that passed the ledger but never
// got a bookkeeping record. It flags them for operator review; it does not
// attempt to repair or reverse anything.
type Worker struct {
	river.WorkerDefaults[ReconcileIntentsArgs]
	intents   IntentSource
	events    EventPublisher
	threshold time.Duration
	log       *slog.Logger
}

func NewWorker(intents IntentSource, events EventPublisher, threshold time.Duration, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if threshold <= 0 {
		threshold = 10 * time.Minute
	}
	return &Worker{intents: intents, events: events, threshold: threshold, log: log}
}

func (w *Worker) Work(ctx context.Context, _ *river.Job[ReconcileIntentsArgs]) error {
	return w.ScanOnce(ctx)
}

// ScanOnce runs a single reconciliation pass.
func (w *Worker) ScanOnce(ctx context.Context) error {
	stuck, err := w.intents.ListStuck(ctx, w.threshold)
	if err != nil {
		return fmt.Errorf("list stuck intents: %w", err)
	}
	for _, intent := range stuck {
		w.log.Warn("phantom transfer detected",
			"intent_id", intent.ID, "kind", intent.Kind,
			"amount", intent.Amount, "block_index", intent.BlockIndex,
			"stuck_since", intent.UpdatedAt)
		if w.events != nil {
			event := IntentFlagged{
				IntentID:   intent.ID.String(),
				Kind:       intent.Kind,
				Amount:     intent.Amount,
				BlockIndex: intent.BlockIndex,
				StuckSince: intent.UpdatedAt.UTC().Format(time.RFC3339),
			}
			if err := w.events.Publish(TopicReconciliation, event); err != nil {
				w.log.Error("publish reconciliation event", "intent_id", intent.ID, "error", err)
			}
		}
		if err := w.intents.MarkFlagged(ctx, intent.ID); err != nil {
			return fmt.Errorf("flag intent %s: %w", intent.ID, err)
		}
	}
	if len(stuck) > 0 {
		w.log.Info("reconciliation pass complete", "flagged", len(stuck))
	}
	return nil
}
