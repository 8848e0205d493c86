package adyen

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
)

type (
	authorizeRD = connector.RouterData[connector.AuthorizeData, connector.PaymentsResponse]
	captureRD   = connector.RouterData[connector.CaptureData, connector.PaymentsResponse]
	voidRD      = connector.RouterData[connector.VoidData, connector.PaymentsResponse]
	syncRD      = connector.RouterData[connector.SyncData, connector.PaymentsResponse]
	mandateRD   = connector.RouterData[connector.SetupMandateData, connector.PaymentsResponse]
	preProcRD   = connector.RouterData[connector.PreProcessingData, connector.PaymentsResponse]
	extendRD    = connector.RouterData[connector.ExtendAuthorizationData, connector.PaymentsResponse]
	balanceRD   = connector.RouterData[connector.GiftCardBalanceData, connector.GiftCardBalanceResponse]
	refundRD    = connector.RouterData[connector.RefundData, connector.RefundsResponse]
	payoutRD    = connector.RouterData[connector.PayoutData, connector.PayoutsResponse]
	disputeRD   = connector.RouterData[connector.DisputeData, connector.DisputeResponse]
	evidenceRD  = connector.RouterData[connector.SubmitEvidenceData, connector.SubmitEvidenceResponse]
)

func (a *Adyen) Authorize() connector.Integration[connector.AuthorizeData, connector.PaymentsResponse] {
	return &flow[connector.AuthorizeData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(*authorizeRD) (string, error) {
			return apiVersion + "/payments", nil
		},
		body: func(rd *authorizeRD) (any, error) {
			return a.paymentRequest(rd)
		},
		handle: func(rd *authorizeRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			return toPaymentsResponse(rd, res.Body, rd.Request.CaptureMethod)
		},
	}
}

func (a *Adyen) paymentRequest(rd *authorizeRD) (*paymentRequest, error) {
	ma, err := merchantAccount(rd)
	if err != nil {
		return nil, err
	}
	if err := base.ValidateAmount(rd.Request.Amount); err != nil {
		return nil, err
	}
	pmd := rd.Request.PaymentMethod
	if err := a.ValidateCaptureMethod(rd.Request.CaptureMethod, pmd.Method, pmd.Type); err != nil {
		return nil, err
	}
	value, err := a.amount.Convert(rd.Request.Amount, rd.Request.Currency)
	if err != nil {
		return nil, err
	}
	var pm paymentMethod
	if rd.Request.ConnectorMandate == "" {
		if pm, err = toPaymentMethod(rd.Request.PaymentMethod); err != nil {
			return nil, err
		}
	}
	req := &paymentRequest{
		Amount:              amount{Currency: string(rd.Request.Currency), Value: value},
		MerchantAccount:     ma,
		PaymentMethod:       pm,
		Reference:           rd.ConnectorRequestReferenceID,
		ReturnURL:           rd.Request.ReturnURL,
		ShopperReference:    rd.Request.ShopperReference,
		ShopperEmail:        rd.Request.Email,
		BrowserInfo:         rd.Request.BrowserInfo,
		StatementDescriptor: rd.Request.StatementDescriptor,
		Channel:             "Web",
	}
	if rd.Request.CaptureMethod == payment.CaptureManual || rd.Request.CaptureMethod == payment.CaptureManualMultiple {
		req.AdditionalData = map[string]string{"manualCapture": "true"}
	}
	switch {
	case rd.Request.ConnectorMandate != "":
		req.PaymentMethod = paymentMethod{Type: "scheme", StoredPaymentMethodID: rd.Request.ConnectorMandate}
		req.ShopperInteraction = "ContAuth"
		req.RecurringProcessingModel = "UnscheduledCardOnFile"
	case rd.Request.SetupFutureUsage:
		if err := a.IsMandateSupported(rd.Request.PaymentMethod); err != nil {
			return nil, err
		}
		req.StorePaymentMethod = true
		req.ShopperInteraction = "Ecommerce"
		req.RecurringProcessingModel = "UnscheduledCardOnFile"
	}
	if auth := rd.Request.Authentication; auth != nil {
		req.MpiData = &mpiData{
			AuthenticationResponse: auth.TransStatus,
			DirectoryResponse:      auth.TransStatus,
			Cavv:                   auth.AuthenticationValue,
			Eci:                    auth.ECI,
			DsTransID:              auth.DSTransID,
			ThreeDSVersion:         auth.MessageVersion,
		}
	}
	return req, nil
}

func (a *Adyen) Capture() connector.Integration[connector.CaptureData, connector.PaymentsResponse] {
	return &flow[connector.CaptureData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(rd *captureRD) (string, error) {
			if rd.Request.ConnectorTransactionID == "" {
				return "", connector.MissingField("connector_transaction_id")
			}
			return fmt.Sprintf("%s/payments/%s/captures", apiVersion, rd.Request.ConnectorTransactionID), nil
		},
		body: func(rd *captureRD) (any, error) {
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			if err := base.ValidateAmount(rd.Request.AmountToCapture); err != nil {
				return nil, err
			}
			// The capability check needs the payment method; callers that omit it skip it.
			if rd.Request.PaymentMethod != "" {
				if err := a.ValidateCaptureMethod(rd.Request.CaptureMethod, rd.Request.PaymentMethod, rd.Request.PaymentMethodType); err != nil {
					return nil, err
				}
			}
			ref := rd.ConnectorRequestReferenceID
			if rd.Request.MultipleCaptureID != "" {
				ref = rd.Request.MultipleCaptureID
			}
			return &modificationRequest{
				MerchantAccount: ma,
				Amount:          &amount{Currency: string(rd.Request.Currency), Value: rd.Request.AmountToCapture},
				Reference:       ref,
			}, nil
		},
		handle: func(rd *captureRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			body, err := decode[modificationResponse](res.Body)
			if err != nil {
				return nil, err
			}
			out := &connector.PaymentsResponse{
				ConnectorTransactionID: body.PaymentPSPReference,
				Status:                 payment.AttemptCaptureInitiated,
				ConnectorReferenceID:   body.Reference,
			}
			if rd.Request.MultipleCaptureID != "" {
				out.CaptureSync = map[string]connector.CaptureSyncResponse{
					rd.Request.MultipleCaptureID: {
						ConnectorCaptureID: body.PSPReference,
						Status:             payment.CapturePending,
						Amount:             rd.Request.AmountToCapture,
					},
				}
			}
			return out, nil
		},
	}
}

func (a *Adyen) Void() connector.Integration[connector.VoidData, connector.PaymentsResponse] {
	return &flow[connector.VoidData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(rd *voidRD) (string, error) {
			if rd.Request.ConnectorTransactionID == "" {
				return "", connector.MissingField("connector_transaction_id")
			}
			return fmt.Sprintf("%s/payments/%s/cancels", apiVersion, rd.Request.ConnectorTransactionID), nil
		},
		body: func(rd *voidRD) (any, error) {
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			return &modificationRequest{MerchantAccount: ma, Reference: rd.ConnectorRequestReferenceID}, nil
		},
		handle: func(rd *voidRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			body, err := decode[modificationResponse](res.Body)
			if err != nil {
				return nil, err
			}
			return &connector.PaymentsResponse{
				ConnectorTransactionID: body.PaymentPSPReference,
				Status:                 payment.AttemptVoidInitiated,
				ConnectorReferenceID:   body.Reference,
			}, nil
		},
	}
}

// PaymentSync only calls /payments/details to complete a redirect. Without a stored
// redirect payload the webhook is the source of truth and nothing is sent.
func (a *Adyen) PaymentSync() connector.Integration[connector.SyncData, connector.PaymentsResponse] {
	return &flow[connector.SyncData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		skip: func(rd *syncRD) bool {
			return rd.Request.EncodedData == ""
		},
		path: func(*syncRD) (string, error) {
			return apiVersion + "/payments/details", nil
		},
		body: func(rd *syncRD) (any, error) {
			return &detailsRequest{
				Details:     map[string]string{"redirectResult": rd.Request.EncodedData},
				PaymentData: rd.Request.EncodedData,
			}, nil
		},
		handle: func(rd *syncRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			return toPaymentsResponse(rd, res.Body, rd.Request.CaptureMethod)
		},
	}
}

func (a *Adyen) SetupMandate() connector.Integration[connector.SetupMandateData, connector.PaymentsResponse] {
	return &flow[connector.SetupMandateData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(*mandateRD) (string, error) {
			return apiVersion + "/payments", nil
		},
		body: func(rd *mandateRD) (any, error) {
			if err := a.IsMandateSupported(rd.Request.PaymentMethod); err != nil {
				return nil, err
			}
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			pm, err := toPaymentMethod(rd.Request.PaymentMethod)
			if err != nil {
				return nil, err
			}
			return &paymentRequest{
				Amount:                   amount{Currency: string(rd.Request.Currency), Value: 0},
				MerchantAccount:          ma,
				PaymentMethod:            pm,
				Reference:                rd.ConnectorRequestReferenceID,
				ReturnURL:                rd.Request.ReturnURL,
				ShopperReference:         rd.Request.ShopperReference,
				ShopperInteraction:       "Ecommerce",
				RecurringProcessingModel: "UnscheduledCardOnFile",
				StorePaymentMethod:       true,
			}, nil
		},
		handle: func(rd *mandateRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			return toPaymentsResponse(rd, res.Body, payment.CaptureManual)
		},
	}
}

// PreProcessing checks a gift card's balance before authorizing. Not enough balance, or a
// balance in another currency, is a decline the connector did not have to tell us about.
func (a *Adyen) PreProcessing() connector.Integration[connector.PreProcessingData, connector.PaymentsResponse] {
	return &flow[connector.PreProcessingData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(rd *preProcRD) (string, error) {
			if rd.Request.PaymentMethod.Method != payment.MethodGiftCard {
				return "", connector.NotImplemented("pre-processing for " + string(rd.Request.PaymentMethod.Method))
			}
			return apiVersion + "/paymentMethods/balance", nil
		},
		body: func(rd *preProcRD) (any, error) {
			return balanceBody(rd, rd.Request.PaymentMethod, rd.Request.Currency, rd.Request.Amount)
		},
		handle: func(rd *preProcRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			body, err := decode[balanceResponse](res.Body)
			if err != nil {
				return nil, err
			}
			out := &connector.PaymentsResponse{ConnectorTransactionID: body.PSPReference, Status: payment.AttemptPending}
			if decline := balanceDecline(body, rd.Request.Currency, rd.Request.Amount); decline != nil {
				out.Status = payment.AttemptFailure
				rd.Error = decline
			}
			return out, nil
		},
	}
}

func balanceBody[Req, Resp any](rd *connector.RouterData[Req, Resp], pmd connector.PaymentMethodData, cur payment.Currency, amt payment.MinorUnit) (*balanceRequest, error) {
	ma, err := merchantAccount(rd)
	if err != nil {
		return nil, err
	}
	pm, err := toPaymentMethod(pmd)
	if err != nil {
		return nil, err
	}
	req := &balanceRequest{MerchantAccount: ma, PaymentMethod: pm}
	if amt > 0 {
		req.Amount = &amount{Currency: string(cur), Value: amt}
	}
	return req, nil
}

func balanceDecline(b *balanceResponse, cur payment.Currency, amt payment.MinorUnit) *connector.ErrorResponse {
	failure := payment.AttemptFailure
	decline := func(code, msg string) *connector.ErrorResponse {
		return &connector.ErrorResponse{
			StatusCode:             http.StatusOK,
			Code:                   code,
			Message:                msg,
			Reason:                 msg,
			AttemptStatus:          &failure,
			ConnectorTransactionID: b.PSPReference,
		}
	}
	switch {
	case b.ResultCode == "NotEnoughBalance":
		return decline("NOT_ENOUGH_BALANCE", "insufficient balance in the payment method")
	case b.ResultCode != "" && b.ResultCode != "Success":
		return decline(b.ResultCode, "balance check failed")
	case b.Balance.Currency != string(cur):
		return decline("CURRENCY_MISMATCH", fmt.Sprintf("balance is in %s, payment is in %s", b.Balance.Currency, cur))
	case b.Balance.Value < amt:
		return decline("NOT_ENOUGH_BALANCE", "insufficient balance in the payment method")
	}
	return nil
}

func (a *Adyen) ExtendAuthorization() connector.Integration[connector.ExtendAuthorizationData, connector.PaymentsResponse] {
	return &flow[connector.ExtendAuthorizationData, connector.PaymentsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(rd *extendRD) (string, error) {
			if rd.Request.ConnectorTransactionID == "" {
				return "", connector.MissingField("connector_transaction_id")
			}
			return fmt.Sprintf("%s/payments/%s/amountUpdates", apiVersion, rd.Request.ConnectorTransactionID), nil
		},
		body: func(rd *extendRD) (any, error) {
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			return &modificationRequest{
				MerchantAccount: ma,
				Amount:          &amount{Currency: string(rd.Request.Currency), Value: rd.Request.Amount},
				Reference:       rd.ConnectorRequestReferenceID,
				IndustryUsage:   "delayedCharge",
			}, nil
		},
		handle: func(rd *extendRD, res *connector.Response) (*connector.PaymentsResponse, error) {
			body, err := decode[modificationResponse](res.Body)
			if err != nil {
				return nil, err
			}
			return &connector.PaymentsResponse{
				ConnectorTransactionID: body.PaymentPSPReference,
				Status:                 payment.AttemptAuthorized,
			}, nil
		},
	}
}

func (a *Adyen) GiftCardBalanceCheck() connector.Integration[connector.GiftCardBalanceData, connector.GiftCardBalanceResponse] {
	return &flow[connector.GiftCardBalanceData, connector.GiftCardBalanceResponse]{
		a:   a,
		api: apiCheckout,
		path: func(*balanceRD) (string, error) {
			return apiVersion + "/paymentMethods/balance", nil
		},
		body: func(rd *balanceRD) (any, error) {
			return balanceBody(rd, rd.Request.PaymentMethod, rd.Request.Currency, 0)
		},
		handle: func(rd *balanceRD, res *connector.Response) (*connector.GiftCardBalanceResponse, error) {
			body, err := decode[balanceResponse](res.Body)
			if err != nil {
				return nil, err
			}
			return &connector.GiftCardBalanceResponse{
				Balance:  body.Balance.Value,
				Currency: payment.Currency(body.Balance.Currency),
			}, nil
		},
	}
}

func (a *Adyen) RefundExecute() connector.Integration[connector.RefundData, connector.RefundsResponse] {
	return &flow[connector.RefundData, connector.RefundsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(rd *refundRD) (string, error) {
			if rd.Request.ConnectorTransactionID == "" {
				return "", connector.MissingField("connector_transaction_id")
			}
			return fmt.Sprintf("%s/payments/%s/refunds", apiVersion, rd.Request.ConnectorTransactionID), nil
		},
		body: func(rd *refundRD) (any, error) {
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			return &modificationRequest{
				MerchantAccount: ma,
				Amount:          &amount{Currency: string(rd.Request.Currency), Value: rd.Request.RefundAmount},
				Reference:       rd.Request.RefundID,
			}, nil
		},
		handle: func(rd *refundRD, res *connector.Response) (*connector.RefundsResponse, error) {
			body, err := decode[modificationResponse](res.Body)
			if err != nil {
				return nil, err
			}
			return &connector.RefundsResponse{ConnectorRefundID: body.PSPReference, Status: refundStatus(body.Status)}, nil
		},
	}
}

// RefundSync never calls Adyen, which has no refund lookup; refunds settle via notifications.
func (a *Adyen) RefundSync() connector.Integration[connector.RefundData, connector.RefundsResponse] {
	return &flow[connector.RefundData, connector.RefundsResponse]{
		a:    a,
		api:  apiCheckout,
		skip: func(*refundRD) bool { return true },
		path: func(*refundRD) (string, error) { return "", nil },
		handle: func(rd *refundRD, res *connector.Response) (*connector.RefundsResponse, error) {
			return nil, connector.NotImplemented("adyen refund sync")
		},
	}
}

func (a *Adyen) payoutFlow(path string, body func(rd *payoutRD) (any, error), instant bool) connector.Integration[connector.PayoutData, connector.PayoutsResponse] {
	return &flow[connector.PayoutData, connector.PayoutsResponse]{
		a:    a,
		api:  apiPayout,
		path: func(*payoutRD) (string, error) { return "pal/servlet/Payout/" + payoutVersion + "/" + path, nil },
		body: body,
		handle: func(rd *payoutRD, res *connector.Response) (*connector.PayoutsResponse, error) {
			body, err := decode[payoutResponse](res.Body)
			if err != nil {
				return nil, err
			}
			out := &connector.PayoutsResponse{
				ConnectorPayoutID: body.PSPReference,
				Status:            payoutStatus(body.ResultCode, instant),
			}
			if out.Status == payout.StatusFailed {
				out.ErrorCode, out.ErrorMessage = body.ResultCode, body.RefusalReason
			}
			return out, nil
		},
	}
}

func (a *Adyen) payoutSubmit(rd *payoutRD) (any, error) {
	ma, err := merchantAccount(rd)
	if err != nil {
		return nil, err
	}
	req := &payoutRequest{
		MerchantAccount: ma,
		Amount:          amount{Currency: string(rd.Request.Currency), Value: rd.Request.Amount},
		Reference:       rd.Request.PayoutID,
		Recurring:       map[string]string{"contract": "PAYOUT"},
	}
	switch {
	case rd.Request.Card != nil:
		req.Card = &cardDetails{
			Type:        "scheme",
			Number:      rd.Request.Card.Number,
			ExpiryMonth: rd.Request.Card.ExpiryMonth,
			ExpiryYear:  rd.Request.Card.ExpiryYear,
			HolderName:  rd.Request.Card.HolderName,
		}
	case rd.Request.IBAN != "":
		req.Bank = map[string]string{"iban": rd.Request.IBAN, "ownerName": rd.Request.OwnerName}
	default:
		return nil, connector.MissingField("payout_method_data")
	}
	return req, nil
}

func (a *Adyen) payoutModify(rd *payoutRD) (any, error) {
	ma, err := merchantAccount(rd)
	if err != nil {
		return nil, err
	}
	if rd.Request.ConnectorPayoutID == "" {
		return nil, connector.MissingField("connector_payout_id")
	}
	return &payoutModifyRequest{MerchantAccount: ma, OriginalReference: rd.Request.ConnectorPayoutID}, nil
}

func (a *Adyen) PayoutCreate() connector.Integration[connector.PayoutData, connector.PayoutsResponse] {
	return a.payoutFlow("storeDetailAndSubmitThirdParty", a.payoutSubmit, false)
}

func (a *Adyen) PayoutFulfill() connector.Integration[connector.PayoutData, connector.PayoutsResponse] {
	return a.payoutFlow("confirmThirdParty", a.payoutModify, true)
}

func (a *Adyen) PayoutCancel() connector.Integration[connector.PayoutData, connector.PayoutsResponse] {
	return a.payoutFlow("declineThirdParty", a.payoutModify, false)
}

// PayoutEligibility runs a zero-amount card verification through Checkout.
func (a *Adyen) PayoutEligibility() connector.Integration[connector.PayoutData, connector.PayoutsResponse] {
	return &flow[connector.PayoutData, connector.PayoutsResponse]{
		a:   a,
		api: apiCheckout,
		path: func(*payoutRD) (string, error) {
			return apiVersion + "/payments", nil
		},
		body: func(rd *payoutRD) (any, error) {
			if rd.Request.Card == nil {
				return nil, connector.NotImplemented("payout eligibility without card")
			}
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			return &paymentRequest{
				Amount:          amount{Currency: string(rd.Request.Currency), Value: 0},
				MerchantAccount: ma,
				PaymentMethod: paymentMethod{
					Type:        "scheme",
					Number:      rd.Request.Card.Number,
					ExpiryMonth: rd.Request.Card.ExpiryMonth,
					ExpiryYear:  rd.Request.Card.ExpiryYear,
					HolderName:  rd.Request.Card.HolderName,
				},
				Reference: rd.Request.PayoutID,
			}, nil
		},
		handle: func(rd *payoutRD, res *connector.Response) (*connector.PayoutsResponse, error) {
			body, err := decode[paymentResponse](res.Body)
			if err != nil {
				return nil, err
			}
			status := payout.StatusRequiresCreation
			if body.ResultCode != "Authorised" {
				status = payout.StatusIneligible
			}
			return &connector.PayoutsResponse{
				ConnectorPayoutID: body.PSPReference,
				Status:            status,
				ErrorCode:         body.RefusalReasonCode,
				ErrorMessage:      body.RefusalReason,
			}, nil
		},
	}
}

func (a *Adyen) disputeFlow(path string, ok dispute.Status) connector.Integration[connector.DisputeData, connector.DisputeResponse] {
	return &flow[connector.DisputeData, connector.DisputeResponse]{
		a:   a,
		api: apiDispute,
		path: func(*disputeRD) (string, error) {
			return "ca/services/DisputeService/" + disputeVersion + "/" + path, nil
		},
		body: func(rd *disputeRD) (any, error) {
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			if rd.Request.ConnectorDisputeID == "" {
				return nil, connector.MissingField("connector_dispute_id")
			}
			return &disputeRequest{
				DisputePSPReference: rd.Request.ConnectorDisputeID,
				MerchantAccountCode: ma,
				DefenseReasonCode:   rd.Request.DefenseReasonCode,
			}, nil
		},
		handle: func(rd *disputeRD, res *connector.Response) (*connector.DisputeResponse, error) {
			return disputeResult(rd, res.Body, ok)
		},
	}
}

func (a *Adyen) AcceptDispute() connector.Integration[connector.DisputeData, connector.DisputeResponse] {
	return a.disputeFlow("acceptDispute", dispute.StatusAccepted)
}

func (a *Adyen) DefendDispute() connector.Integration[connector.DisputeData, connector.DisputeResponse] {
	return a.disputeFlow("defendDispute", dispute.StatusChallenged)
}

func (a *Adyen) SubmitEvidence() connector.Integration[connector.SubmitEvidenceData, connector.SubmitEvidenceResponse] {
	return &flow[connector.SubmitEvidenceData, connector.SubmitEvidenceResponse]{
		a:   a,
		api: apiDispute,
		path: func(*evidenceRD) (string, error) {
			return "ca/services/DisputeService/" + disputeVersion + "/supplyDefenseDocument", nil
		},
		body: func(rd *evidenceRD) (any, error) {
			ma, err := merchantAccount(rd)
			if err != nil {
				return nil, err
			}
			docs := make([]defenseDocument, 0, len(rd.Request.Evidence))
			for _, e := range rd.Request.Evidence {
				if len(e.Content) == 0 {
					continue
				}
				docs = append(docs, defenseDocument{
					Content:                 base64.StdEncoding.EncodeToString(e.Content),
					ContentType:             e.Mime,
					DefenseDocumentTypeCode: e.Type,
				})
			}
			if len(docs) == 0 {
				return nil, connector.MissingField("evidence")
			}
			return &evidenceRequest{
				DefenseDocuments:    docs,
				DisputePSPReference: rd.Request.ConnectorDisputeID,
				MerchantAccountCode: ma,
			}, nil
		},
		handle: func(rd *evidenceRD, res *connector.Response) (*connector.SubmitEvidenceResponse, error) {
			body, err := decode[disputeResponse](res.Body)
			if err != nil {
				return nil, err
			}
			if !body.DisputeServiceResult.Success {
				rd.Error = &connector.ErrorResponse{
					StatusCode: http.StatusOK,
					Code:       "dispute_service_error",
					Message:    body.DisputeServiceResult.ErrorMessage,
				}
				return &connector.SubmitEvidenceResponse{}, nil
			}
			return &connector.SubmitEvidenceResponse{Status: dispute.StatusChallenged}, nil
		},
	}
}

// PayoutSync is unsupported: the payout API has no retrieve call and status arrives by notification.
func (a *Adyen) PayoutSync() connector.Integration[connector.PayoutData, connector.PayoutsResponse] {
	return connector.Unsupported[connector.PayoutData, connector.PayoutsResponse]{Flow: connector.FlowPayoutSync}
}

// Adyen evidence is inlined into supplyDefenseDocument; there is no file store.

func (a *Adyen) UploadFile() connector.Integration[connector.UploadFileData, connector.UploadFileResponse] {
	return connector.Unsupported[connector.UploadFileData, connector.UploadFileResponse]{Flow: connector.FlowUploadFile}
}

func (a *Adyen) RetrieveFile() connector.Integration[connector.RetrieveFileData, connector.RetrieveFileResponse] {
	return connector.Unsupported[connector.RetrieveFileData, connector.RetrieveFileResponse]{Flow: connector.FlowRetrieveFile}
}

// VerifyWebhookSourceFlow is unsupported: notifications carry an HMAC verified locally.
func (a *Adyen) VerifyWebhookSourceFlow() connector.Integration[connector.VerifyWebhookSourceData, connector.VerifyWebhookSourceResponse] {
	return connector.Unsupported[connector.VerifyWebhookSourceData, connector.VerifyWebhookSourceResponse]{Flow: connector.FlowVerifyWebhookSource}
}
