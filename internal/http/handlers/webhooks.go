package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"paymentswitch/internal/connector"
	middlewarex "paymentswitch/internal/http/middleware"
	"paymentswitch/internal/services/webhook"
)

const maxWebhookBody = 1 << 20

// WebhookProcessor is the part of the pipeline the handlers need.
type WebhookProcessor interface {
	Process(ctx context.Context, in webhook.Incoming) (*webhook.Outcome, error)
}

// IncomingWebhook handles POST /webhooks/{merchant_id}/{connector}, where the segment is a
// connector name or a merchant-connector-account id.
func IncomingWebhook(p WebhookProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveWebhook(w, r, p, chi.URLParam(r, "connector"), false)
	}
}

// RelayWebhook handles POST /webhooks/relay/{merchant_id}/{mca_id}.
func RelayWebhook(p WebhookProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveWebhook(w, r, p, chi.URLParam(r, "mca_id"), true)
	}
}

func serveWebhook(w http.ResponseWriter, r *http.Request, p WebhookProcessor, segment string, relay bool) {
	merchantID, _ := middlewarex.MerchantID(r.Context())
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	out, err := p.Process(r.Context(), webhook.Incoming{
		MerchantID: merchantID,
		Segment:    segment,
		Relay:      relay,
		Request: &connector.IncomingWebhookRequest{
			Method:   r.Method,
			URI:      r.URL.Path,
			Headers:  r.Header.Clone(),
			RawQuery: r.URL.RawQuery,
			Body:     body,
		},
	})
	if err != nil {
		status := webhookStatus(err)
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("segment", segment).
			Int("status", status).
			Msg("webhook rejected")
		writeError(w, status, http.StatusText(status))
		return
	}

	ack := out.Ack
	if ack.ContentType != "" {
		w.Header().Set("Content-Type", ack.ContentType)
	}
	w.WriteHeader(ack.StatusCode)
	_, _ = w.Write(ack.Body)
}

// webhookStatus maps a pipeline error to the status the connector sees. Anything but 2xx
// makes the connector retry.
func webhookStatus(err error) int {
	switch {
	case errors.Is(err, webhook.ErrWebhookAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, webhook.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, connector.ErrWebhookBodyDecodingFailed):
		return http.StatusBadRequest
	case errors.Is(err, webhook.ErrReferenceUnresolved):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
