package middlewarex

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const (
	ctxMerchantID ctxKey = "merchant_id"
)

func WithMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, ctxMerchantID, merchantID)
}

func MerchantID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxMerchantID).(string)
	return v, ok && v != ""
}

// MerchantScope takes the merchant from the {merchant_id} route parameter and attaches it,
// together with a request-scoped logger, to the context.
func MerchantScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchant_id")
		if merchantID == "" {
			http.Error(w, "merchant_id is required", http.StatusBadRequest)
			return
		}
		logger := log.With().Str("merchant_id", merchantID).Logger()
		ctx := logger.WithContext(WithMerchantID(r.Context(), merchantID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
