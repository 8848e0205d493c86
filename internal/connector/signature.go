package connector

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// SignatureAlgorithm used by a connector to sign its webhooks.
type SignatureAlgorithm string

const (
	SignatureNone       SignatureAlgorithm = "none"
	SignatureHmacSha256 SignatureAlgorithm = "hmac_sha256"
	SignatureHmacSha512 SignatureAlgorithm = "hmac_sha512"
	SignatureSha256     SignatureAlgorithm = "sha256"
)

// Sign computes the algorithm's signature of msg under key.
func (a SignatureAlgorithm) Sign(key, msg []byte) ([]byte, bool) {
	var h func() hash.Hash
	switch a {
	case SignatureHmacSha256:
		h = sha256.New
	case SignatureHmacSha512:
		h = sha512.New
	case SignatureSha256:
		sum := sha256.Sum256(append(append([]byte{}, msg...), key...))
		return sum[:], true
	default:
		return nil, false
	}
	mac := hmac.New(h, key)
	mac.Write(msg)
	return mac.Sum(nil), true
}

// VerifyBySignature is the common verify_webhook_source implementation: compute the
// expected signature of the adapter's message and compare it with the one received.
// A missing signature or secret is an unverified webhook, not an error.
func VerifyBySignature(_ context.Context, h WebhookHandler, req *IncomingWebhookRequest, merchantID string, secret WebhookSecret) (bool, error) {
	alg := h.WebhookSignatureAlgorithm()
	if alg == SignatureNone || len(secret.Secret) == 0 {
		return false, nil
	}
	sig, err := h.WebhookSourceVerificationSignature(req, secret)
	if err != nil {
		return false, err
	}
	if len(sig) == 0 {
		return false, nil
	}
	msg, err := h.WebhookSourceVerificationMessage(req, merchantID, secret)
	if err != nil {
		return false, err
	}
	expected, ok := alg.Sign(secret.Secret, msg)
	if !ok {
		return false, nil
	}
	return hmac.Equal(expected, sig), nil
}
