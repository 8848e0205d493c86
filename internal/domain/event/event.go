package event

// Type is a connector event normalized into the switch's vocabulary.
type Type string

const (
	TypePaymentIntentSuccess                    Type = "payment_intent_success"
	TypePaymentIntentFailure                    Type = "payment_intent_failure"
	TypePaymentIntentProcessing                 Type = "payment_intent_processing"
	TypePaymentIntentCancelled                  Type = "payment_intent_cancelled"
	TypePaymentIntentCancelFailure              Type = "payment_intent_cancel_failure"
	TypePaymentIntentAuthorizationSuccess       Type = "payment_intent_authorization_success"
	TypePaymentIntentAuthorizationFailure       Type = "payment_intent_authorization_failure"
	TypePaymentIntentExtendAuthorizationSuccess Type = "payment_intent_extend_authorization_success"
	TypePaymentIntentExtendAuthorizationFailure Type = "payment_intent_extend_authorization_failure"
	TypePaymentIntentCaptureSuccess             Type = "payment_intent_capture_success"
	TypePaymentIntentCaptureFailure             Type = "payment_intent_capture_failure"
	TypePaymentIntentExpired                    Type = "payment_intent_expired"
	TypePaymentIntentPartiallyFunded            Type = "payment_intent_partially_funded"
	TypePaymentActionRequired                   Type = "payment_action_required"
	TypeSourceChargeable                        Type = "source_chargeable"
	TypeSourceTransactionCreated                Type = "source_transaction_created"
	TypeRefundSuccess                           Type = "refund_success"
	TypeRefundFailure                           Type = "refund_failure"
	TypeDisputeOpened                           Type = "dispute_opened"
	TypeDisputeExpired                          Type = "dispute_expired"
	TypeDisputeAccepted                         Type = "dispute_accepted"
	TypeDisputeCancelled                        Type = "dispute_cancelled"
	TypeDisputeChallenged                       Type = "dispute_challenged"
	TypeDisputeWon                              Type = "dispute_won"
	TypeDisputeLost                             Type = "dispute_lost"
	TypeMandateActive                           Type = "mandate_active"
	TypeMandateRevoked                          Type = "mandate_revoked"
	TypeEndpointVerification                    Type = "endpoint_verification"
	TypeExternalAuthenticationARes              Type = "external_authentication_ares"
	TypeFrmApproved                             Type = "frm_approved"
	TypeFrmRejected                             Type = "frm_rejected"
	TypePayoutSuccess                           Type = "payout_success"
	TypePayoutFailure                           Type = "payout_failure"
	TypePayoutProcessing                        Type = "payout_processing"
	TypePayoutCancelled                         Type = "payout_cancelled"
	TypePayoutCreated                           Type = "payout_created"
	TypePayoutExpired                           Type = "payout_expired"
	TypePayoutReversed                          Type = "payout_reversed"
	TypeInvoiceGenerated                        Type = "invoice_generated"
	TypeRecoveryPaymentSuccess                  Type = "recovery_payment_success"
	TypeEventNotSupported                       Type = "event_not_supported"
)

// Flow is the business flow an event is handled by.
type Flow string

const (
	FlowPayment                Flow = "payment"
	FlowRefund                 Flow = "refund"
	FlowDispute                Flow = "dispute"
	FlowMandate                Flow = "mandate"
	FlowPayout                 Flow = "payout"
	FlowFraudCheck             Flow = "fraud_check"
	FlowExternalAuthentication Flow = "external_authentication"
	FlowBankTransfer           Flow = "bank_transfer"
	FlowRelay                  Flow = "relay"
	FlowSubscription           Flow = "subscription"
	FlowReturnResponse         Flow = "return_response"
	FlowSetupWebhook           Flow = "setup_webhook"
)

var flows = map[Type]Flow{
	TypePaymentIntentSuccess:                    FlowPayment,
	TypePaymentIntentFailure:                    FlowPayment,
	TypePaymentIntentProcessing:                 FlowPayment,
	TypePaymentIntentCancelled:                  FlowPayment,
	TypePaymentIntentCancelFailure:              FlowPayment,
	TypePaymentIntentAuthorizationSuccess:       FlowPayment,
	TypePaymentIntentAuthorizationFailure:       FlowPayment,
	TypePaymentIntentExtendAuthorizationSuccess: FlowPayment,
	TypePaymentIntentExtendAuthorizationFailure: FlowPayment,
	TypePaymentIntentCaptureSuccess:             FlowPayment,
	TypePaymentIntentCaptureFailure:             FlowPayment,
	TypePaymentIntentExpired:                    FlowPayment,
	TypePaymentIntentPartiallyFunded:            FlowPayment,
	TypePaymentActionRequired:                   FlowPayment,
	TypeSourceChargeable:                        FlowBankTransfer,
	TypeSourceTransactionCreated:                FlowBankTransfer,
	TypeRefundSuccess:                           FlowRefund,
	TypeRefundFailure:                           FlowRefund,
	TypeDisputeOpened:                           FlowDispute,
	TypeDisputeExpired:                          FlowDispute,
	TypeDisputeAccepted:                         FlowDispute,
	TypeDisputeCancelled:                        FlowDispute,
	TypeDisputeChallenged:                       FlowDispute,
	TypeDisputeWon:                              FlowDispute,
	TypeDisputeLost:                             FlowDispute,
	TypeMandateActive:                           FlowMandate,
	TypeMandateRevoked:                          FlowMandate,
	TypeEndpointVerification:                    FlowSetupWebhook,
	TypeExternalAuthenticationARes:              FlowExternalAuthentication,
	TypeFrmApproved:                             FlowFraudCheck,
	TypeFrmRejected:                             FlowFraudCheck,
	TypePayoutSuccess:                           FlowPayout,
	TypePayoutFailure:                           FlowPayout,
	TypePayoutProcessing:                        FlowPayout,
	TypePayoutCancelled:                         FlowPayout,
	TypePayoutCreated:                           FlowPayout,
	TypePayoutExpired:                           FlowPayout,
	TypePayoutReversed:                          FlowPayout,
	TypeInvoiceGenerated:                        FlowSubscription,
	TypeRecoveryPaymentSuccess:                  FlowSubscription,
	TypeEventNotSupported:                       FlowReturnResponse,
}

// FlowOf returns the flow an event type belongs to. Unknown types fall back to ReturnResponse.
func FlowOf(t Type) Flow {
	if f, ok := flows[t]; ok {
		return f
	}
	return FlowReturnResponse
}

// IsSupported reports whether the event is anything other than the unsupported sentinel.
func (t Type) IsSupported() bool {
	return t != "" && t != TypeEventNotSupported
}

// Class groups outgoing notifications by resource kind.
type Class string

const (
	ClassPayments Class = "payments"
	ClassRefunds  Class = "refunds"
	ClassDisputes Class = "disputes"
	ClassMandates Class = "mandates"
	ClassPayouts  Class = "payouts"
	ClassFrauds   Class = "frauds"
)
