package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/metrics"
	"paymentswitch/internal/services/webhook"
)

// SetEventDisabled disables (PUT) or re-enables (DELETE) one event type for a merchant
// and connector.
func SetEventDisabled(gate *webhook.Gate, registry *connector.Registry, disabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchant_id")
		name := chi.URLParam(r, "connector")
		t := event.Type(chi.URLParam(r, "event_type"))

		if _, err := registry.Get(name); err != nil {
			writeError(w, http.StatusNotFound, "unknown connector")
			return
		}
		if !t.IsSupported() {
			writeError(w, http.StatusBadRequest, "unknown event type")
			return
		}

		var err error
		if disabled {
			err = gate.Disable(r.Context(), merchantID, name, t)
		} else {
			err = gate.Enable(r.Context(), merchantID, name, t)
		}
		if err != nil {
			log.Error().Err(err).Str("merchant_id", merchantID).Str("connector", name).Msg("failed to update event gate")
			writeError(w, http.StatusInternalServerError, "gate update failed")
			return
		}
		log.Info().
			Str("merchant_id", merchantID).
			Str("connector", name).
			Str("event_type", string(t)).
			Bool("disabled", disabled).
			Msg("webhook event gate updated")
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetWebhookSecret stores a merchant-level fallback signing secret for a connector.
func SetWebhookSecret(secrets *webhook.Secrets, registry *connector.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchant_id")
		name := chi.URLParam(r, "connector")
		if _, err := registry.Get(name); err != nil {
			writeError(w, http.StatusNotFound, "unknown connector")
			return
		}

		var req struct {
			Secret string `json:"secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Secret) == "" {
			writeError(w, http.StatusBadRequest, "secret is required")
			return
		}
		if err := secrets.SetFallback(r.Context(), merchantID, name, req.Secret); err != nil {
			log.Error().Err(err).Str("merchant_id", merchantID).Str("connector", name).Msg("failed to store webhook secret")
			writeError(w, http.StatusInternalServerError, "secret update failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Metrics(m *metrics.Webhooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m.Snapshot())
	}
}

func Connectors(registry *connector.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"connectors": registry.AllInfo()})
	}
}
