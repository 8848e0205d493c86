package adyen

import (
	"net/http"
	"strings"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
	"paymentswitch/internal/domain/refund"
)

type amount struct {
	Currency string            `json:"currency"`
	Value    payment.MinorUnit `json:"value"`
}

type cardDetails struct {
	Type        string `json:"type"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVC         string `json:"cvc,omitempty"`
	HolderName  string `json:"holderName,omitempty"`
	Brand       string `json:"brand,omitempty"`
}

type paymentMethod struct {
	Type                  string `json:"type"`
	Number                string `json:"number,omitempty"`
	ExpiryMonth           string `json:"expiryMonth,omitempty"`
	ExpiryYear            string `json:"expiryYear,omitempty"`
	CVC                   string `json:"cvc,omitempty"`
	HolderName            string `json:"holderName,omitempty"`
	Brand                 string `json:"brand,omitempty"`
	Issuer                string `json:"issuer,omitempty"`
	IBAN                  string `json:"iban,omitempty"`
	OwnerName             string `json:"ownerName,omitempty"`
	ApplePayToken         string `json:"applePayToken,omitempty"`
	GooglePayToken        string `json:"googlePayToken,omitempty"`
	StoredPaymentMethodID string `json:"storedPaymentMethodId,omitempty"`
}

type paymentRequest struct {
	Amount                   amount            `json:"amount"`
	MerchantAccount          string            `json:"merchantAccount"`
	PaymentMethod            paymentMethod     `json:"paymentMethod"`
	Reference                string            `json:"reference"`
	ReturnURL                string            `json:"returnUrl,omitempty"`
	ShopperReference         string            `json:"shopperReference,omitempty"`
	ShopperEmail             string            `json:"shopperEmail,omitempty"`
	ShopperInteraction       string            `json:"shopperInteraction,omitempty"`
	RecurringProcessingModel string            `json:"recurringProcessingModel,omitempty"`
	StorePaymentMethod       bool              `json:"storePaymentMethod,omitempty"`
	AdditionalData           map[string]string `json:"additionalData,omitempty"`
	BrowserInfo              map[string]string `json:"browserInfo,omitempty"`
	Channel                  string            `json:"channel,omitempty"`
	StatementDescriptor      string            `json:"shopperStatement,omitempty"`
	MpiData                  *mpiData          `json:"mpiData,omitempty"`
}

// mpiData passes an externally performed 3DS authentication.
type mpiData struct {
	AuthenticationResponse string `json:"authenticationResponse"`
	DirectoryResponse      string `json:"directoryResponse"`
	Cavv                   string `json:"cavv"`
	Eci                    string `json:"eci,omitempty"`
	DsTransID              string `json:"dsTransID,omitempty"`
	ThreeDSVersion         string `json:"threeDSVersion,omitempty"`
}

type action struct {
	Type        string `json:"type"`
	URL         string `json:"url,omitempty"`
	Method      string `json:"method,omitempty"`
	PaymentData string `json:"paymentData,omitempty"`
}

// paymentResponse covers /payments, /payments/details and the payment resource object
// rebuilt from a notification. EventCode and Success are only set for the latter.
type paymentResponse struct {
	PSPReference      string            `json:"pspReference"`
	ResultCode        string            `json:"resultCode"`
	MerchantReference string            `json:"merchantReference,omitempty"`
	Amount            *amount           `json:"amount,omitempty"`
	RefusalReason     string            `json:"refusalReason,omitempty"`
	RefusalReasonCode string            `json:"refusalReasonCode,omitempty"`
	Action            *action           `json:"action,omitempty"`
	AdditionalData    map[string]string `json:"additionalData,omitempty"`
	EventCode         string            `json:"eventCode,omitempty"`
	Success           string            `json:"success,omitempty"`
}

type modificationRequest struct {
	MerchantAccount string  `json:"merchantAccount"`
	Amount          *amount `json:"amount,omitempty"`
	Reference       string  `json:"reference"`
	IndustryUsage   string  `json:"industryUsage,omitempty"`
}

type modificationResponse struct {
	PSPReference        string  `json:"pspReference"`
	PaymentPSPReference string  `json:"paymentPspReference"`
	Status              string  `json:"status"`
	Reference           string  `json:"reference,omitempty"`
	Amount              *amount `json:"amount,omitempty"`
}

type detailsRequest struct {
	Details     map[string]string `json:"details"`
	PaymentData string            `json:"paymentData,omitempty"`
}

type balanceRequest struct {
	MerchantAccount string        `json:"merchantAccount"`
	PaymentMethod   paymentMethod `json:"paymentMethod"`
	Amount          *amount       `json:"amount,omitempty"`
}

type balanceResponse struct {
	PSPReference string `json:"pspReference"`
	ResultCode   string `json:"resultCode"`
	Balance      amount `json:"balance"`
}

type payoutRequest struct {
	MerchantAccount string            `json:"merchantAccount"`
	Amount          amount            `json:"amount"`
	Reference       string            `json:"reference"`
	Card            *cardDetails      `json:"card,omitempty"`
	Bank            map[string]string `json:"bank,omitempty"`
	Recurring       map[string]string `json:"recurring,omitempty"`
	ShopperName     map[string]string `json:"shopperName,omitempty"`
}

type payoutModifyRequest struct {
	MerchantAccount   string `json:"merchantAccount"`
	OriginalReference string `json:"originalReference"`
}

type payoutResponse struct {
	PSPReference  string `json:"pspReference"`
	ResultCode    string `json:"resultCode"`
	RefusalReason string `json:"refusalReason,omitempty"`
	Response      string `json:"response,omitempty"`
}

type disputeRequest struct {
	DisputePSPReference string `json:"disputePspReference"`
	MerchantAccountCode string `json:"merchantAccountCode"`
	DefenseReasonCode   string `json:"defenseReasonCode,omitempty"`
}

type defenseDocument struct {
	Content                 string `json:"content"`
	ContentType             string `json:"contentType"`
	DefenseDocumentTypeCode string `json:"defenseDocumentTypeCode"`
}

type evidenceRequest struct {
	DefenseDocuments    []defenseDocument `json:"defenseDocuments"`
	DisputePSPReference string            `json:"disputePspReference"`
	MerchantAccountCode string            `json:"merchantAccountCode"`
}

type disputeResponse struct {
	DisputeServiceResult struct {
		Success      bool   `json:"success"`
		ErrorMessage string `json:"errorMessage,omitempty"`
	} `json:"disputeServiceResult"`
}

type errorBody struct {
	Status       int    `json:"status"`
	ErrorCode    string `json:"errorCode"`
	Message      string `json:"message"`
	ErrorType    string `json:"errorType"`
	PSPReference string `json:"pspReference,omitempty"`
}

func errorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	body, err := decode[errorBody](res.Body)
	if err != nil {
		return nil, err
	}
	return &connector.ErrorResponse{
		StatusCode:             res.StatusCode,
		Code:                   body.ErrorCode,
		Message:                body.Message,
		Reason:                 body.Message,
		ConnectorTransactionID: body.PSPReference,
	}, nil
}

// serverErrorResponse tolerates non-JSON bodies; Adyen's edge returns HTML on outages.
func serverErrorResponse(res *connector.Response) *connector.ErrorResponse {
	if body, err := decode[errorBody](res.Body); err == nil && body.ErrorCode != "" {
		return &connector.ErrorResponse{
			StatusCode:             res.StatusCode,
			Code:                   body.ErrorCode,
			Message:                body.Message,
			ConnectorTransactionID: body.PSPReference,
		}
	}
	return &connector.ErrorResponse{
		StatusCode: res.StatusCode,
		Code:       "server_error",
		Message:    http.StatusText(res.StatusCode),
	}
}

func toPaymentMethod(pmd connector.PaymentMethodData) (paymentMethod, error) {
	switch pmd.Method {
	case payment.MethodCard:
		if pmd.Card == nil {
			return paymentMethod{}, connector.MissingField("payment_method_data.card")
		}
		return paymentMethod{
			Type:        "scheme",
			Number:      pmd.Card.Number,
			ExpiryMonth: pmd.Card.ExpiryMonth,
			ExpiryYear:  pmd.Card.ExpiryYear,
			CVC:         pmd.Card.CVC,
			HolderName:  pmd.Card.HolderName,
			Brand:       strings.ToLower(pmd.Card.Network),
		}, nil
	case payment.MethodGiftCard:
		if pmd.GiftCard == nil {
			return paymentMethod{}, connector.MissingField("payment_method_data.gift_card")
		}
		return paymentMethod{Type: "giftcard", Brand: string(pmd.Type), Number: pmd.GiftCard.Number, CVC: pmd.GiftCard.CVC}, nil
	case payment.MethodWallet:
		switch pmd.Type {
		case payment.TypeApplePay:
			return paymentMethod{Type: "applepay", ApplePayToken: pmd.WalletToken}, nil
		case payment.TypeGooglePay:
			return paymentMethod{Type: "paywithgoogle", GooglePayToken: pmd.WalletToken}, nil
		case payment.TypePaypal:
			return paymentMethod{Type: "paypal"}, nil
		}
	case payment.MethodBankRedirect:
		if pmd.Type == payment.TypeIdeal {
			return paymentMethod{Type: "ideal", Issuer: pmd.BankName}, nil
		}
	case payment.MethodBankDebit:
		if pmd.Type == payment.TypeSepa {
			if pmd.IBAN == "" {
				return paymentMethod{}, connector.MissingField("payment_method_data.iban")
			}
			return paymentMethod{Type: "sepadirectdebit", IBAN: pmd.IBAN}, nil
		}
	}
	return paymentMethod{}, connector.NotImplemented("payment method " + string(pmd.Method) + "/" + string(pmd.Type))
}

// attemptStatus maps a /payments resultCode.
func attemptStatus(resultCode string, cm payment.CaptureMethod) payment.AttemptStatus {
	switch resultCode {
	case "Authorised":
		if cm == payment.CaptureManual || cm == payment.CaptureManualMultiple {
			return payment.AttemptAuthorized
		}
		return payment.AttemptCharged
	case "Refused", "Error":
		return payment.AttemptFailure
	case "Cancelled":
		return payment.AttemptVoided
	case "RedirectShopper", "IdentifyShopper", "ChallengeShopper", "PresentToShopper":
		return payment.AttemptAuthenticationPending
	case "Received", "Pending":
		return payment.AttemptPending
	}
	return payment.AttemptPending
}

// webhookAttemptStatus maps the event code of a notification-derived resource object.
func webhookAttemptStatus(eventCode string, success bool, cm payment.CaptureMethod) payment.AttemptStatus {
	switch eventCode {
	case "AUTHORISATION":
		if !success {
			return payment.AttemptFailure
		}
		if cm == payment.CaptureManual || cm == payment.CaptureManualMultiple {
			return payment.AttemptAuthorized
		}
		return payment.AttemptCharged
	case "CAPTURE":
		if success {
			return payment.AttemptCharged
		}
		return payment.AttemptCaptureFailed
	case "CAPTURE_FAILED":
		return payment.AttemptCaptureFailed
	case "CANCELLATION":
		if success {
			return payment.AttemptVoided
		}
		return payment.AttemptVoidFailed
	case "OFFER_CLOSED":
		return payment.AttemptFailure
	case "AUTHORISATION_ADJUSTMENT":
		return payment.AttemptAuthorized
	}
	return payment.AttemptPending
}

// toPaymentsResponse handles both API replies and notification resource objects.
// A refusal is reported through rd.Error with a failure status hint.
func toPaymentsResponse[Req any](rd *connector.RouterData[Req, connector.PaymentsResponse], body []byte, cm payment.CaptureMethod) (*connector.PaymentsResponse, error) {
	res, err := decode[paymentResponse](body)
	if err != nil {
		return nil, err
	}
	var status payment.AttemptStatus
	if res.EventCode != "" {
		status = webhookAttemptStatus(res.EventCode, res.Success == "true", cm)
	} else {
		status = attemptStatus(res.ResultCode, cm)
	}
	out := &connector.PaymentsResponse{
		ConnectorTransactionID: res.PSPReference,
		Status:                 status,
		ConnectorReferenceID:   res.MerchantReference,
		ConnectorMandateID:     res.AdditionalData["recurring.recurringDetailReference"],
		NetworkTransactionID:   res.AdditionalData["networkTxReference"],
	}
	if res.Action != nil {
		out.RedirectURL = res.Action.URL
		out.EncodedData = res.Action.PaymentData
	}
	if status == payment.AttemptFailure {
		failure := payment.AttemptFailure
		code, msg := res.RefusalReasonCode, res.RefusalReason
		if code == "" {
			code, msg = res.EventCode, res.AdditionalData["reason"]
		}
		rd.Error = &connector.ErrorResponse{
			StatusCode:             http.StatusOK,
			Code:                   code,
			Message:                msg,
			Reason:                 msg,
			AttemptStatus:          &failure,
			ConnectorTransactionID: res.PSPReference,
		}
	}
	return out, nil
}

// refundStatus maps a /refunds reply. Adyen only acknowledges receipt; the outcome
// arrives as a REFUND notification.
func refundStatus(string) refund.Status {
	return refund.StatusPending
}

func payoutStatus(resultCode string, instant bool) payout.Status {
	switch resultCode {
	case "[payout-submit-received]":
		if instant {
			return payout.StatusInitiated
		}
		return payout.StatusRequiresFulfillment
	case "[payout-confirm-received]", "Received":
		return payout.StatusInitiated
	case "[payout-decline-received]":
		return payout.StatusCancelled
	case "Authorised":
		return payout.StatusSuccess
	case "Refused":
		return payout.StatusFailed
	}
	return payout.StatusPending
}

func disputeResult[Req any](rd *connector.RouterData[Req, connector.DisputeResponse], body []byte, ok dispute.Status) (*connector.DisputeResponse, error) {
	res, err := decode[disputeResponse](body)
	if err != nil {
		return nil, err
	}
	if !res.DisputeServiceResult.Success {
		rd.Error = &connector.ErrorResponse{
			StatusCode: http.StatusOK,
			Code:       "dispute_service_error",
			Message:    res.DisputeServiceResult.ErrorMessage,
			Reason:     res.DisputeServiceResult.ErrorMessage,
		}
		return &connector.DisputeResponse{}, nil
	}
	return &connector.DisputeResponse{Status: ok}, nil
}
