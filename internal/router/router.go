package router

import (
	"net/http"

	"github.com/worklance/backend/internal/auth"
	"github.com/worklance/backend/internal/jobs"
	"github.com/worklance/backend/internal/middleware"
	"github.com/worklance/backend/internal/wallet"
)

// New returns an http.Handler that serves the API under /api/v1. Method
// matching uses Go 1.22 route patterns; handlers never re-check the verb.
func New(
	authHandler *auth.Handler,
	jobsHandler *jobs.Handler,
	walletHandler *wallet.Handler,
	sessions *auth.Manager,
	validator middleware.TokenValidator,
) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	required := middleware.RequireIdentity(sessions, validator)
	optional := middleware.OptionalIdentity(sessions, validator)

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.Handle("POST "+base+"/jobs", required(http.HandlerFunc(jobsHandler.CreateJob)))
	mux.Handle("GET "+base+"/jobs", optional(http.HandlerFunc(jobsHandler.ListJobs)))
	mux.Handle("GET "+base+"/jobs/{id}", optional(http.HandlerFunc(jobsHandler.GetJob)))
	mux.Handle("POST "+base+"/jobs/{id}/start", required(http.HandlerFunc(jobsHandler.StartJob)))
	mux.Handle("POST "+base+"/jobs/{id}/finish", required(http.HandlerFunc(jobsHandler.FinishJob)))
	mux.Handle("DELETE "+base+"/jobs/{id}", required(http.HandlerFunc(jobsHandler.DeleteJob)))
	mux.Handle("POST "+base+"/jobs/{id}/apply", required(http.HandlerFunc(jobsHandler.Apply)))
	mux.Handle("GET "+base+"/jobs/{id}/appliers", required(http.HandlerFunc(jobsHandler.ListAppliers)))
	mux.Handle("POST "+base+"/jobs/{id}/appliers/{user_id}/accept", required(http.HandlerFunc(jobsHandler.AcceptApplier)))

	mux.Handle("POST "+base+"/wallet/topup", required(http.HandlerFunc(walletHandler.TopUp)))
	mux.Handle("GET "+base+"/wallet/balance", optional(http.HandlerFunc(walletHandler.GetBalance)))
	mux.Handle("GET "+base+"/wallet/cash-flows", required(http.HandlerFunc(walletHandler.ListCashFlows)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
