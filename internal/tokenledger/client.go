package tokenledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/worklance/backend/internal/models"
)

// Client talks to the external token ledger over HTTP. The ledger is the
// system of record for balances; this client only submits transfers and
// reads balances. The HTTP client timeout is the only timeout layer on
// ledger calls.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TransferError is a transfer rejected by the ledger itself, as opposed to
// a transport failure reaching it.
type TransferError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("ledger rejected transfer: %s - %s", e.Code, e.Message)
}

type transferPayload struct {
	ToOwner        string `json:"to_owner"`
	ToSubaccount   string `json:"to_subaccount,omitempty"`
	FromSubaccount string `json:"from_subaccount,omitempty"`
	Amount         int64  `json:"amount"`
	Fee            int64  `json:"fee,omitempty"`
	Memo           string `json:"memo,omitempty"`
	CreatedAtTime  int64  `json:"created_at_time,omitempty"`
}

type transferResult struct {
	BlockIndex uint64 `json:"block_index"`
}

type balanceResult struct {
	Balance int64 `json:"balance"`
}

// Transfer submits one transfer and returns the ledger block index on
// success. Ledger rejections come back as *TransferError; transport
// failures are returned as-is.
func (c *Client) Transfer(ctx context.Context, intent models.TransferIntent) (uint64, error) {
	payload := transferPayload{
		ToOwner:        intent.ToOwner.String(),
		ToSubaccount:   hex.EncodeToString(intent.ToSubaccount),
		FromSubaccount: hex.EncodeToString(intent.FromSubaccount),
		Amount:         intent.Amount,
		Fee:            intent.Fee,
		Memo:           intent.Memo,
		CreatedAtTime:  intent.CreatedAt.UnixNano(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal transfer payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ledger transfer call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var terr TransferError
		if err := json.NewDecoder(resp.Body).Decode(&terr); err != nil || terr.Code == "" {
			return 0, fmt.Errorf("ledger returned status %d", resp.StatusCode)
		}
		return 0, &terr
	}

	var result transferResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode transfer response: %w", err)
	}
	return result.BlockIndex, nil
}

// BalanceOf reads the live balance of (owner, subaccount). Pure read, no
// identity elevation.
func (c *Client) BalanceOf(ctx context.Context, account models.Account) (int64, error) {
	q := url.Values{}
	q.Set("owner", account.Owner.String())
	if len(account.Subaccount) > 0 {
		q.Set("subaccount", hex.EncodeToString(account.Subaccount))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/balances?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create balance request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ledger balance call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ledger returned status %d for balance of %s", resp.StatusCode, account.Owner)
	}

	var result balanceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode balance response: %w", err)
	}
	return result.Balance, nil
}
