package httpx

import (
	"encoding/json"
	"net/http"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/http/handlers"
	middlewarex "paymentswitch/internal/http/middleware"
	"paymentswitch/internal/metrics"
	"paymentswitch/internal/services/webhook"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	AdminToken string
	Pipeline   handlers.WebhookProcessor
	Registry   *connector.Registry
	Gate       *webhook.Gate
	Secrets    *webhook.Secrets
	Metrics    *metrics.Webhooks
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	// Connector webhooks are public; authenticity is checked per connector.
	r.Route("/webhooks", func(r chi.Router) {
		r.With(middlewarex.MerchantScope).
			Post("/relay/{merchant_id}/{mca_id}", handlers.RelayWebhook(deps.Pipeline))
		r.With(middlewarex.MerchantScope).
			Post("/{merchant_id}/{connector}", handlers.IncomingWebhook(deps.Pipeline))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.AdminToken))

		r.Get("/metrics/webhooks", handlers.Metrics(deps.Metrics))
		r.Get("/connectors", handlers.Connectors(deps.Registry))
		r.Route("/merchants/{merchant_id}/connectors/{connector}", func(r chi.Router) {
			r.Put("/disabled-events/{event_type}", handlers.SetEventDisabled(deps.Gate, deps.Registry, true))
			r.Delete("/disabled-events/{event_type}", handlers.SetEventDisabled(deps.Gate, deps.Registry, false))
			r.Put("/webhook-secret", handlers.SetWebhookSecret(deps.Secrets, deps.Registry))
		})
	})

	return r
}
