package payment

// AttemptStatus is the connector-facing state of an attempt.
type AttemptStatus string

const (
	AttemptStarted                  AttemptStatus = "started"
	AttemptAuthenticationPending    AttemptStatus = "authentication_pending"
	AttemptAuthenticationSuccessful AttemptStatus = "authentication_successful"
	AttemptAuthenticationFailed     AttemptStatus = "authentication_failed"
	AttemptPending                  AttemptStatus = "pending"
	AttemptAuthorized               AttemptStatus = "authorized"
	AttemptCharged                  AttemptStatus = "charged"
	AttemptPartialCharged           AttemptStatus = "partial_charged"
	AttemptCaptureInitiated         AttemptStatus = "capture_initiated"
	AttemptCaptureFailed            AttemptStatus = "capture_failed"
	AttemptVoidInitiated            AttemptStatus = "void_initiated"
	AttemptVoided                   AttemptStatus = "voided"
	AttemptVoidFailed               AttemptStatus = "void_failed"
	AttemptFailure                  AttemptStatus = "failure"
	AttemptAuthorizationFailed      AttemptStatus = "authorization_failed"
	AttemptRouterDeclined           AttemptStatus = "router_declined"
	AttemptUnresolved               AttemptStatus = "unresolved"
)

// IsSuccessful reports whether the attempt moved money or holds an authorization.
func (s AttemptStatus) IsSuccessful() bool {
	switch s {
	case AttemptAuthorized, AttemptCharged, AttemptPartialCharged:
		return true
	}
	return false
}

// IsTerminal reports whether no further connector-driven transition is expected.
func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case AttemptCharged, AttemptVoided, AttemptFailure, AttemptAuthorizationFailed,
		AttemptRouterDeclined, AttemptAuthenticationFailed:
		return true
	}
	return false
}

// IntentStatus is the merchant-facing state of a payment.
type IntentStatus string

const (
	IntentRequiresPaymentMethod  IntentStatus = "requires_payment_method"
	IntentRequiresCustomerAction IntentStatus = "requires_customer_action"
	IntentRequiresMerchantAction IntentStatus = "requires_merchant_action"
	IntentRequiresCapture        IntentStatus = "requires_capture"
	IntentProcessing             IntentStatus = "processing"
	IntentSucceeded              IntentStatus = "succeeded"
	IntentPartiallyCaptured      IntentStatus = "partially_captured"
	IntentFailed                 IntentStatus = "failed"
	IntentCancelled              IntentStatus = "cancelled"
)

// IntentStatusFor derives the intent status an attempt status implies.
func IntentStatusFor(s AttemptStatus) IntentStatus {
	switch s {
	case AttemptCharged:
		return IntentSucceeded
	case AttemptPartialCharged:
		return IntentPartiallyCaptured
	case AttemptAuthorized, AttemptCaptureFailed, AttemptVoidFailed:
		return IntentRequiresCapture
	case AttemptAuthenticationPending:
		return IntentRequiresCustomerAction
	case AttemptUnresolved:
		return IntentRequiresMerchantAction
	case AttemptVoided:
		return IntentCancelled
	case AttemptFailure, AttemptAuthorizationFailed, AttemptAuthenticationFailed, AttemptRouterDeclined:
		return IntentFailed
	case AttemptStarted:
		return IntentRequiresPaymentMethod
	default:
		return IntentProcessing
	}
}

// IsNotifiable reports whether merchants are told about an intent reaching this status.
func (s IntentStatus) IsNotifiable() bool {
	switch s {
	case IntentSucceeded, IntentFailed, IntentProcessing, IntentCancelled,
		IntentRequiresCapture, IntentPartiallyCaptured, IntentRequiresCustomerAction,
		IntentRequiresMerchantAction:
		return true
	}
	return false
}
