package balance

import (
	"context"
	"fmt"

	"github.com/worklance/backend/internal/models"
)

// LiveLedger reads balances from the external token ledger.
type LiveLedger interface {
	BalanceOf(ctx context.Context, account models.Account) (int64, error)
}

// MetadataSource resolves token display metadata from internal bookkeeping.
type MetadataSource interface {
	TokenInfo(ctx context.Context) (models.TokenInfo, error)
}

// Balance is a live balance with its token metadata.
type Balance struct {
	TokenName   string `json:"token_name"`
	TokenSymbol string `json:"token_symbol"`
	Amount      int64  `json:"amount"`
}

// Service answers balance queries. Pure read: no identity elevation, safe
// to call on every render or navigation.
type Service struct {
	ledger LiveLedger
	meta   MetadataSource
}

func NewService(ledger LiveLedger, meta MetadataSource) *Service {
	return &Service{ledger: ledger, meta: meta}
}

// Get returns the live balance of the account together with token metadata.
func (s *Service) Get(ctx context.Context, account models.Account) (*Balance, error) {
	info, err := s.meta.TokenInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token metadata: %w", err)
	}
	amount, err := s.ledger.BalanceOf(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("live balance lookup: %w", err)
	}
	return &Balance{TokenName: info.Name, TokenSymbol: info.Symbol, Amount: amount}, nil
}

// LiveBalance returns only the ledger-side balance of the account.
func (s *Service) LiveBalance(ctx context.Context, account models.Account) (int64, error) {
	return s.ledger.BalanceOf(ctx, account)
}
