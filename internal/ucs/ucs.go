// Package ucs is the client for the unified connector service, which transforms
// webhooks centrally instead of in a per-connector adapter.
package ucs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/mandate"
)

// TransformStatus says whether the transformed resource can be consumed as is.
type TransformStatus string

const (
	TransformComplete   TransformStatus = "complete"
	TransformIncomplete TransformStatus = "incomplete"
)

// Payload is the service's transformation of the webhook body.
type Payload struct {
	Status           TransformStatus             `json:"status"`
	Reference        *event.ReferenceDTO         `json:"reference,omitempty"`
	PaymentsResponse *connector.PaymentsResponse `json:"payments_response,omitempty"`
	RefundsResponse  *connector.RefundsResponse  `json:"refunds_response,omitempty"`
	DisputeDetails   *dispute.Details            `json:"dispute_details,omitempty"`
	MandateDetails   *mandate.Details            `json:"mandate_details,omitempty"`
	// AuthenticationDetails carries the 3DS outcome of an external authentication event.
	AuthenticationDetails *authentication.Details `json:"authentication_details,omitempty"`
	ResourceObject        json.RawMessage         `json:"resource_object,omitempty"`
}

// Result is the (event type, source verified, payload) triple the service returns.
type Result struct {
	EventType      event.Type `json:"event_type"`
	SourceVerified bool       `json:"source_verified"`
	Payload        *Payload   `json:"transform_data,omitempty"`
}

// TransformRequest carries an opaque webhook to the service.
type TransformRequest struct {
	MerchantID string
	Connector  string
	Account    string
	Request    *connector.IncomingWebhookRequest
	Secret     connector.WebhookSecret
}

// SyncRequest asks the service to finish an incomplete transformation.
type SyncRequest struct {
	MerchantID             string
	Connector              string
	Account                string
	PaymentID              string
	ConnectorTransactionID string
	EncodedData            string
}

// Client is the unified connector service.
type Client interface {
	TransformWebhook(ctx context.Context, req TransformRequest) (*Result, error)
	SyncPayment(ctx context.Context, req SyncRequest) (*connector.PaymentsResponse, error)
}

// ErrCallFailed wraps every failed round-trip to the service.
var ErrCallFailed = errors.New("unified connector service call failed")

// HTTPClient talks JSON to the service over HTTP.
type HTTPClient struct {
	sender  connector.Sender
	baseURL string
	apiKey  string
}

func NewHTTPClient(sender connector.Sender, baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{sender: sender, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type transformBody struct {
	MerchantID string              `json:"merchant_id"`
	Connector  string              `json:"connector"`
	Account    string              `json:"merchant_connector_id,omitempty"`
	Method     string              `json:"method"`
	URI        string              `json:"uri"`
	Headers    map[string][]string `json:"headers"`
	Query      string              `json:"query_params,omitempty"`
	Body       string              `json:"body"`
	Secret     string              `json:"webhook_secret,omitempty"`
	Additional string              `json:"additional_secret,omitempty"`
}

func (c *HTTPClient) TransformWebhook(ctx context.Context, req TransformRequest) (*Result, error) {
	in := transformBody{
		MerchantID: req.MerchantID,
		Connector:  req.Connector,
		Account:    req.Account,
		Method:     req.Request.Method,
		URI:        req.Request.URI,
		Headers:    req.Request.Headers,
		Query:      req.Request.RawQuery,
		Body:       base64.StdEncoding.EncodeToString(req.Request.Body),
		Additional: req.Secret.AdditionalSecret,
	}
	if len(req.Secret.Secret) > 0 {
		in.Secret = base64.StdEncoding.EncodeToString(req.Secret.Secret)
	}
	var out Result
	if err := c.post(ctx, "/v1/webhooks/transform", req.MerchantID, req.Connector, in, &out); err != nil {
		return nil, err
	}
	if out.EventType == "" {
		out.EventType = event.TypeEventNotSupported
	}
	return &out, nil
}

func (c *HTTPClient) SyncPayment(ctx context.Context, req SyncRequest) (*connector.PaymentsResponse, error) {
	in := map[string]string{
		"merchant_id":              req.MerchantID,
		"connector":                req.Connector,
		"merchant_connector_id":    req.Account,
		"payment_id":               req.PaymentID,
		"connector_transaction_id": req.ConnectorTransactionID,
		"encoded_data":             req.EncodedData,
	}
	var out connector.PaymentsResponse
	if err := c.post(ctx, "/v1/payments/sync", req.MerchantID, req.Connector, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) post(ctx context.Context, path, merchantID, conn string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrCallFailed, err)
	}
	res, err := c.sender.Send(ctx, &connector.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + path,
		Headers: []connector.Header{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "x-merchant-id", Value: merchantID},
			{Name: "x-connector", Value: conn},
			{Name: "x-api-key", Value: c.apiKey, Masked: true},
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
	if !res.IsSuccess() {
		log.Warn().
			Str("path", path).
			Str("merchant_id", merchantID).
			Str("connector", conn).
			Int("status_code", res.StatusCode).
			Msg("unified connector service returned an error")
		return fmt.Errorf("%w: status %d", ErrCallFailed, res.StatusCode)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrCallFailed, err)
	}
	return nil
}
