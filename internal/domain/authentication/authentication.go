package authentication

import "time"

// Status of a 3DS authentication.
type Status string

const (
	StatusStarted Status = "started"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// TransStatus is the 3DS transStatus value returned by the directory server.
type TransStatus string

const (
	TransSuccess             TransStatus = "Y"
	TransFailure             TransStatus = "N"
	TransVerificationNotDone TransStatus = "U"
	TransNotVerified         TransStatus = "A"
	TransRejected            TransStatus = "R"
	TransChallengeRequired   TransStatus = "C"
	TransChallengeDecoupled  TransStatus = "D"
	TransInformationOnly     TransStatus = "I"
)

// Decision taken when the authentication was created.
type Decision string

const (
	DecisionFrictionless Decision = "frictionless"
	DecisionChallenge    Decision = "challenge"
)

// Authentication is an external 3DS authentication, possibly attached to a payment.
type Authentication struct {
	ID                        string      `json:"authentication_id"`
	MerchantID                string      `json:"merchant_id"`
	ProfileID                 string      `json:"profile_id"`
	Connector                 string      `json:"authentication_connector"`
	MerchantConnectorID       string      `json:"merchant_connector_id"`
	ConnectorAuthenticationID string      `json:"connector_authentication_id,omitempty"`
	PaymentID                 string      `json:"payment_id,omitempty"`
	Status                    Status      `json:"authentication_status"`
	TransStatus               TransStatus `json:"trans_status,omitempty"`
	Decision                  Decision    `json:"authentication_decision,omitempty"`
	ECI                       string      `json:"eci,omitempty"`
	AuthenticationValue       string      `json:"authentication_value,omitempty"`
	ChallengeCancel           string      `json:"challenge_cancel,omitempty"`
	ChallengeCodeReason       string      `json:"challenge_code_reason,omitempty"`
	UpdatedAt                 time.Time   `json:"updated_at"`
}

// Details decoded from an external authentication webhook.
type Details struct {
	TransStatus         TransStatus `json:"trans_status"`
	AuthenticationValue string      `json:"authentication_value,omitempty"`
	ECI                 string      `json:"eci,omitempty"`
	ChallengeCancel     string      `json:"challenge_cancel,omitempty"`
	ChallengeCodeReason string      `json:"challenge_code_reason,omitempty"`
}

// StatusFor maps a transStatus to the authentication status it implies.
func StatusFor(ts TransStatus) Status {
	switch ts {
	case TransSuccess, TransNotVerified:
		return StatusSuccess
	case TransChallengeRequired, TransChallengeDecoupled:
		return StatusPending
	default:
		return StatusFailed
	}
}

// Apply copies the webhook details onto the authentication.
func (a *Authentication) Apply(d Details) {
	a.TransStatus = d.TransStatus
	a.Status = StatusFor(d.TransStatus)
	if d.AuthenticationValue != "" {
		a.AuthenticationValue = d.AuthenticationValue
	}
	if d.ECI != "" {
		a.ECI = d.ECI
	}
	a.ChallengeCancel = d.ChallengeCancel
	a.ChallengeCodeReason = d.ChallengeCodeReason
	a.UpdatedAt = time.Now().UTC()
}
