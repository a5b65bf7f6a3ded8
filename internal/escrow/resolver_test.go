package escrow

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
)

func TestSubaccountDerivationIsDeterministic(t *testing.T) {
	r := NewResolver(uuid.New(), slog.Default())
	jobID := uuid.New()

	a := r.JobSubaccount(jobID)
	b := r.JobSubaccount(jobID)
	if !bytes.Equal(a, b) {
		t.Error("same job should always derive the same subaccount")
	}
	if len(a) != 32 {
		t.Errorf("subaccount length: got %d, want 32", len(a))
	}
}

func TestSubaccountsAreScopedPerEntity(t *testing.T) {
	r := NewResolver(uuid.New(), slog.Default())
	id := uuid.New()

	if bytes.Equal(r.JobSubaccount(id), r.UserSubaccount(id)) {
		t.Error("job and user subaccounts must not collide even for the same raw ID")
	}
	if bytes.Equal(r.JobSubaccount(uuid.New()), r.JobSubaccount(uuid.New())) {
		t.Error("distinct jobs must derive distinct subaccounts")
	}
}

func TestJobEscrowAccountDegradedPath(t *testing.T) {
	custodian := uuid.New()
	r := NewResolver(custodian, slog.Default())

	// Job without an escrow subaccount falls back to the custodian default.
	job := &models.Job{ID: uuid.New()}
	acc := r.JobEscrowAccount(job)
	if acc.Owner != custodian {
		t.Error("degraded escrow account should be owned by the custodian")
	}
	if len(acc.Subaccount) != 0 {
		t.Error("degraded escrow account should use the default balance")
	}

	// Job with a subaccount keeps custody scoping.
	job.EscrowSubaccount = r.JobSubaccount(job.ID)
	acc = r.JobEscrowAccount(job)
	if !bytes.Equal(acc.Subaccount, job.EscrowSubaccount) {
		t.Error("escrow account should carry the job's subaccount")
	}
}
