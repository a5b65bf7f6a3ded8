package jobs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/lifecycle"
	"github.com/worklance/backend/internal/middleware"
	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
)

// Request/response structs use snake_case JSON.

type CreateJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SalaryUnits int64  `json:"salary_units"`
	Slots       int    `json:"slots"`
}

type JobResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	SalaryUnits int64  `json:"salary_units"`
	Slots       int    `json:"slots"`
}

type ApplierResponse struct {
	UserID   string `json:"user_id"`
	Accepted bool   `json:"accepted"`
}

type Handler struct {
	svc       Service
	lifecycle lifecycle.Service
	log       *slog.Logger
}

func NewHandler(svc Service, lc lifecycle.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, lifecycle: lc, log: log}
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	job, err := h.svc.CreateJob(r.Context(), sess.UserID, req.Title, req.Description, req.SalaryUnits, req.Slots)
	if err != nil {
		h.writeError(w, "create job", err)
		return
	}
	writeJSON(w, http.StatusCreated, jobToResponse(job))
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	job, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeError(w, "get job", err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var (
		list []*models.Job
		err  error
	)
	if r.URL.Query().Get("mine") == "true" {
		sess := middleware.SessionFromCtx(r.Context())
		list, err = h.svc.ListByOwner(r.Context(), sess.UserID)
	} else {
		list, err = h.svc.ListOpen(r.Context())
	}
	if err != nil {
		h.writeError(w, "list jobs", err)
		return
	}
	resp := make([]JobResponse, 0, len(list))
	for _, j := range list {
		resp = append(resp, jobToResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartJob moves the job to ONGOING and escrows its salary from the caller.
func (h *Handler) StartJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := h.lifecycle.StartJob(r.Context(), jobID, sess.UserID); err != nil {
		h.writeError(w, "start job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FinishJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.FinishJob(r.Context(), jobID); err != nil {
		h.writeError(w, "finish job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.DeleteJob(r.Context(), jobID); err != nil {
		h.writeError(w, "delete job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := h.svc.Apply(r.Context(), jobID, sess.UserID); err != nil {
		h.writeError(w, "apply", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AcceptApplier(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := h.svc.AcceptApplier(r.Context(), jobID, sess.UserID, userID); err != nil {
		h.writeError(w, "accept applier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAppliers(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	appliers, err := h.svc.ListAppliers(r.Context(), jobID)
	if err != nil {
		h.writeError(w, "list appliers", err)
		return
	}
	resp := make([]ApplierResponse, 0, len(appliers))
	for _, a := range appliers {
		resp = append(resp, ApplierResponse{UserID: a.UserID.String(), Accepted: a.Accepted})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the payment error taxonomy onto HTTP statuses. A
// BookkeepingError is NOT an internal error to hide: funds moved, so the
// caller gets 502 with the block index.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var verr *payments.ValidationError
	var nerr *payments.NotFoundError
	var lerr *payments.LedgerError
	var berr *payments.BookkeepingError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Reason, http.StatusUnprocessableEntity)
	case errors.As(err, &nerr):
		http.Error(w, nerr.Error(), http.StatusNotFound)
	case errors.As(err, &berr):
		h.log.Error(op+" bookkeeping failed after transfer", "error", err, "block_index", berr.BlockIndex)
		http.Error(w, berr.Error(), http.StatusBadGateway)
	case errors.As(err, &lerr):
		h.log.Error(op+" ledger transfer failed", "error", err)
		http.Error(w, "ledger transfer failed", http.StatusBadGateway)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func pathJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jobToResponse(j *models.Job) JobResponse {
	return JobResponse{
		ID:          j.ID.String(),
		OwnerID:     j.OwnerID.String(),
		Title:       j.Title,
		Description: j.Description,
		Status:      j.Status,
		SalaryUnits: j.SalaryUnits,
		Slots:       j.Slots,
	}
}
