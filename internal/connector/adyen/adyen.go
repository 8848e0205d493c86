// Package adyen is the reference connector adapter. It implements every flow of the
// connector contract against Adyen's Checkout, Payout and Dispute APIs and decodes
// Adyen standard notifications.
package adyen

import (
	"encoding/json"
	"net/http"
	"strings"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/domain/payment"
)

const (
	Name = "adyen"

	apiVersion     = "v71"
	payoutVersion  = "v68"
	disputeVersion = "v30"

	prefixPlaceholder = "{{merchant_endpoint_prefix}}"
)

// Config holds Adyen base URLs. Live URLs are templates containing {{merchant_endpoint_prefix}}.
type Config struct {
	CheckoutURL     string
	CheckoutLiveURL string
	PayoutURL       string
	PayoutLiveURL   string
	DisputeURL      string
	DisputeLiveURL  string
}

// DefaultConfig returns Adyen's public endpoints.
func DefaultConfig() Config {
	return Config{
		CheckoutURL:     "https://checkout-test.adyen.com/",
		CheckoutLiveURL: "https://" + prefixPlaceholder + "-checkout-live.adyenpayments.com/checkout/",
		PayoutURL:       "https://pal-test.adyen.com/",
		PayoutLiveURL:   "https://" + prefixPlaceholder + "-pal-live.adyenpayments.com/",
		DisputeURL:      "https://ca-test.adyen.com/",
		DisputeLiveURL:  "https://ca-live.adyen.com/",
	}
}

type api int

const (
	apiCheckout api = iota
	apiPayout
	apiDispute
)

// Adyen implements connector.Adapter.
type Adyen struct {
	*connector.CapabilityTable
	cfg    Config
	amount base.MinorUnitConverter
	// disputeAmount renders dispute amounts in major units.
	disputeAmount base.StringMajorUnitConverter
}

var _ connector.Adapter = (*Adyen)(nil)

// New creates the adapter. Empty config fields fall back to DefaultConfig.
func New(cfg Config) *Adyen {
	def := DefaultConfig()
	if cfg.CheckoutURL == "" {
		cfg.CheckoutURL = def.CheckoutURL
	}
	if cfg.CheckoutLiveURL == "" {
		cfg.CheckoutLiveURL = def.CheckoutLiveURL
	}
	if cfg.PayoutURL == "" {
		cfg.PayoutURL = def.PayoutURL
	}
	if cfg.PayoutLiveURL == "" {
		cfg.PayoutLiveURL = def.PayoutLiveURL
	}
	if cfg.DisputeURL == "" {
		cfg.DisputeURL = def.DisputeURL
	}
	if cfg.DisputeLiveURL == "" {
		cfg.DisputeLiveURL = def.DisputeLiveURL
	}
	return &Adyen{CapabilityTable: capabilities(), cfg: cfg}
}

func (a *Adyen) ID() string { return Name }

func capabilities() *connector.CapabilityTable {
	cardCaptures := []payment.CaptureMethod{
		payment.CaptureAutomatic, payment.CaptureManual, payment.CaptureManualMultiple, payment.CaptureSequentialAuto,
	}
	walletCaptures := []payment.CaptureMethod{payment.CaptureAutomatic, payment.CaptureManual}
	automatic := []payment.CaptureMethod{payment.CaptureAutomatic}

	return &connector.CapabilityTable{
		Connector: Name,
		CaptureMethods: map[payment.Method]map[payment.MethodType][]payment.CaptureMethod{
			payment.MethodCard: {
				payment.TypeCredit: cardCaptures,
				payment.TypeDebit:  cardCaptures,
			},
			payment.MethodWallet: {
				payment.TypeApplePay:  walletCaptures,
				payment.TypeGooglePay: walletCaptures,
				payment.TypePaypal:    walletCaptures,
			},
			payment.MethodBankRedirect: {payment.TypeIdeal: automatic},
			payment.MethodBankDebit:    {payment.TypeSepa: automatic, payment.TypeAch: automatic},
			payment.MethodGiftCard:     {payment.TypeGivex: automatic},
		},
		MandateMethods: map[payment.MethodType]bool{
			payment.TypeCredit:    true,
			payment.TypeDebit:     true,
			payment.TypeApplePay:  true,
			payment.TypeGooglePay: true,
			payment.TypePaypal:    true,
			payment.TypeSepa:      true,
		},
		SyncMethod: connector.CaptureSyncIndividual,
	}
}

// baseURL picks the test or live base of an API. Live checkout and payout URLs need the
// merchant's endpoint prefix; without it the call fails before anything is sent.
func baseURL[Req, Resp any](a *Adyen, kind api, rd *connector.RouterData[Req, Resp]) (string, error) {
	var test, live string
	switch kind {
	case apiPayout:
		test, live = a.cfg.PayoutURL, a.cfg.PayoutLiveURL
	case apiDispute:
		test, live = a.cfg.DisputeURL, a.cfg.DisputeLiveURL
	default:
		test, live = a.cfg.CheckoutURL, a.cfg.CheckoutLiveURL
	}
	if rd.TestMode() {
		return test, nil
	}
	if !strings.Contains(live, prefixPlaceholder) {
		return live, nil
	}
	prefix := strings.TrimSpace(rd.Account.Metadata.EndpointPrefix)
	if prefix == "" {
		return "", connector.InvalidConfig("metadata.endpoint_prefix")
	}
	return strings.ReplaceAll(live, prefixPlaceholder, prefix), nil
}

func headers[Req, Resp any](rd *connector.RouterData[Req, Resp]) ([]connector.Header, error) {
	auth, err := rd.Auth()
	if err != nil {
		return nil, err
	}
	if auth.APIKey == "" {
		return nil, connector.ErrFailedToObtainAuthType
	}
	return []connector.Header{
		{Name: "Content-Type", Value: "application/json"},
		{Name: "X-API-Key", Value: auth.APIKey, Masked: true},
	}, nil
}

func merchantAccount[Req, Resp any](rd *connector.RouterData[Req, Resp]) (string, error) {
	auth, err := rd.Auth()
	if err != nil {
		return "", err
	}
	if auth.Key1 != "" {
		return auth.Key1, nil
	}
	if rd.Account.Metadata.MerchantAccount != "" {
		return rd.Account.Metadata.MerchantAccount, nil
	}
	return "", connector.InvalidConfig("merchant_account")
}

// flow is the one Integration shape every Adyen operation shares; operations differ only
// in their path, body and response mapping.
type flow[Req, Resp any] struct {
	a      *Adyen
	api    api
	method string
	path   func(rd *connector.RouterData[Req, Resp]) (string, error)
	body   func(rd *connector.RouterData[Req, Resp]) (any, error)
	skip   func(rd *connector.RouterData[Req, Resp]) bool
	handle func(rd *connector.RouterData[Req, Resp], res *connector.Response) (*Resp, error)
}

func (f *flow[Req, Resp]) Headers(rd *connector.RouterData[Req, Resp]) ([]connector.Header, error) {
	return headers(rd)
}

func (f *flow[Req, Resp]) URL(rd *connector.RouterData[Req, Resp]) (string, error) {
	root, err := baseURL(f.a, f.api, rd)
	if err != nil {
		return "", err
	}
	p, err := f.path(rd)
	if err != nil {
		return "", err
	}
	return root + p, nil
}

func (f *flow[Req, Resp]) RequestBody(rd *connector.RouterData[Req, Resp]) ([]byte, error) {
	if f.body == nil {
		return nil, nil
	}
	v, err := f.body(rd)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, connector.Encoding(err)
	}
	return b, nil
}

func (f *flow[Req, Resp]) BuildRequest(rd *connector.RouterData[Req, Resp]) (*connector.Request, error) {
	if f.skip != nil && f.skip(rd) {
		return nil, nil
	}
	method := f.method
	if method == "" {
		method = http.MethodPost
	}
	return connector.BuildDefault[Req, Resp](f, rd, method)
}

func (f *flow[Req, Resp]) HandleResponse(rd *connector.RouterData[Req, Resp], res *connector.Response) (*Resp, error) {
	return f.handle(rd, res)
}

func (f *flow[Req, Resp]) ErrorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	return errorResponse(res)
}

func (f *flow[Req, Resp]) ServerErrorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	return serverErrorResponse(res), nil
}

func decode[T any](body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, connector.Deserialization(err)
	}
	return &v, nil
}
