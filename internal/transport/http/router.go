package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustd/internal/platform/middleware"
	jsonResponse "trustd/internal/transport/http/json"
)

const requestTimeout = 30 * time.Second

// NewRouter wires all endpoints with the middleware stack. Routes behind
// /transactions and /me require a valid bearer token.
func NewRouter(h *Handler, verifier middleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/mfa/verify", h.handleMFAVerify)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(verifier))
		r.With(middleware.ContentTypeJSON).Post("/transactions/analyze", h.handleAnalyzeTransaction)
		r.Get("/me/trust-score", h.handleTrustSummary)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
