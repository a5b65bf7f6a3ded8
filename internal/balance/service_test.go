package balance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
)

type fakeLedger struct {
	balances map[uuid.UUID]int64
	err      error
}

func (f *fakeLedger) BalanceOf(_ context.Context, account models.Account) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[account.Owner], nil
}

type fakeMeta struct{ info models.TokenInfo }

func (f *fakeMeta) TokenInfo(_ context.Context) (models.TokenInfo, error) {
	return f.info, nil
}

func TestGetCombinesMetadataAndLiveBalance(t *testing.T) {
	owner := uuid.New()
	svc := NewService(
		&fakeLedger{balances: map[uuid.UUID]int64{owner: 1200}},
		&fakeMeta{info: models.TokenInfo{Name: "Worklance Token", Symbol: "WLT"}},
	)

	got, err := svc.Get(context.Background(), models.DefaultAccount(owner))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TokenSymbol != "WLT" || got.TokenName != "Worklance Token" {
		t.Errorf("token metadata: got %q/%q", got.TokenName, got.TokenSymbol)
	}
	if got.Amount != 1200 {
		t.Errorf("amount: got %d, want 1200", got.Amount)
	}
}

func TestGetPropagatesLedgerFailure(t *testing.T) {
	svc := NewService(&fakeLedger{err: errors.New("ledger unreachable")}, &fakeMeta{})
	if _, err := svc.Get(context.Background(), models.DefaultAccount(uuid.New())); err == nil {
		t.Fatal("expected error when the ledger is unreachable")
	}
}
