package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/balance"
	"github.com/worklance/backend/internal/bookkeeping"
	"github.com/worklance/backend/internal/middleware"
	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
)

// TopUpper mints tokens into a user's account.
type TopUpper interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount int64) (uint64, error)
}

// AccountResolver maps a user to their ledger account.
type AccountResolver interface {
	UserAccount(userID uuid.UUID) models.Account
}

type Handler struct {
	topUps    TopUpper
	balances  *balance.Service
	cashFlows bookkeeping.CashFlowStore
	resolver  AccountResolver
	log       *slog.Logger
}

func NewHandler(topUps TopUpper, balances *balance.Service, cashFlows bookkeeping.CashFlowStore, resolver AccountResolver, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{topUps: topUps, balances: balances, cashFlows: cashFlows, resolver: resolver, log: log}
}

type TopUpRequest struct {
	Amount int64 `json:"amount"`
}

type TopUpResponse struct {
	BlockIndex uint64 `json:"block_index"`
}

// POST /api/v1/wallet/topup
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	block, err := h.topUps.TopUp(r.Context(), sess.UserID, req.Amount)
	if err != nil {
		h.writeError(w, "top up", err)
		return
	}
	writeJSON(w, http.StatusOK, TopUpResponse{BlockIndex: block})
}

// GET /api/v1/wallet/balance
//
// Read-only and safe to call anonymously with ?user_id=; an authenticated
// request without the parameter reads its own balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SessionFromCtx(r.Context()).UserID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}
		userID = parsed
	}
	if userID == uuid.Nil {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	bal, err := h.balances.Get(r.Context(), h.resolver.UserAccount(userID))
	if err != nil {
		h.writeError(w, "balance lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

type CashFlowResponse struct {
	ID              string     `json:"id"`
	Amount          int64      `json:"amount"`
	TransactionType string     `json:"transaction_type"`
	Direction       string     `json:"direction"`
	JobID           *uuid.UUID `json:"job_id,omitempty"`
	TransactionAt   time.Time  `json:"transaction_at"`
}

// GET /api/v1/wallet/cash-flows
func (h *Handler) ListCashFlows(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	records, err := h.cashFlows.ListByAccount(r.Context(), sess.UserID)
	if err != nil {
		h.writeError(w, "list cash flows", err)
		return
	}
	resp := make([]CashFlowResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, CashFlowResponse{
			ID:              rec.ID.String(),
			Amount:          rec.Amount,
			TransactionType: rec.TransactionType,
			Direction:       bookkeeping.Direction(rec, sess.UserID),
			JobID:           rec.JobID,
			TransactionAt:   rec.TransactionAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var verr *payments.ValidationError
	var berr *payments.BookkeepingError
	var lerr *payments.LedgerError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Reason, http.StatusUnprocessableEntity)
	case errors.As(err, &berr):
		h.log.Error(op+" bookkeeping failed after transfer", "error", err, "block_index", berr.BlockIndex)
		http.Error(w, berr.Error(), http.StatusBadGateway)
	case errors.As(err, &lerr):
		h.log.Error(op+" ledger call failed", "error", err)
		http.Error(w, "ledger unavailable", http.StatusBadGateway)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
