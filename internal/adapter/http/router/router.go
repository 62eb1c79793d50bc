package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clientpulse/clientpulse/internal/adapter/http/handler"
	"github.com/clientpulse/clientpulse/internal/adapter/http/middleware"
	"github.com/clientpulse/clientpulse/internal/logger"
)

// Deps carries everything the router needs to assemble the endpoint tree
type Deps struct {
	Webhook   *handler.WebhookHandler
	Auth      *handler.AuthHandler
	Admin     *handler.AdminHandler
	AuthMW    *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	Log       logger.Logger
}

// New builds the HTTP routing tree. The health endpoint bypasses signature
// verification, rate limiting and auth so probes always succeed.
func New(deps Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	r.Handle("/webhook/meeting",
		deps.RateLimit.RateLimit(http.HandlerFunc(deps.Webhook.Receive)),
	).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Handle("/auth/login",
		deps.RateLimit.RateLimit(http.HandlerFunc(deps.Auth.Login)),
	).Methods(http.MethodPost)

	api.HandleFunc("/clients", deps.AuthMW.RequireAuth(deps.Admin.ListClients)).Methods(http.MethodGet)
	api.HandleFunc("/clients", deps.AuthMW.RequireAuth(deps.Admin.CreateClient)).Methods(http.MethodPost)
	api.HandleFunc("/clients/{id}", deps.AuthMW.RequireAuth(deps.Admin.UpdateClient)).Methods(http.MethodPatch)
	api.HandleFunc("/unmatched", deps.AuthMW.RequireAuth(deps.Admin.ListUnmatched)).Methods(http.MethodGet)
	api.HandleFunc("/unmatched/{id}/resolve", deps.AuthMW.RequireAuth(deps.Admin.ResolveUnmatched)).Methods(http.MethodPost)
	api.HandleFunc("/audit", deps.AuthMW.RequireAuth(deps.Admin.ListAudit)).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.Logging(deps.Log)(h)
	h = middleware.Recovery(deps.Log)(h)
	h = middleware.CorrelationID(h)
	return h
}
