package dispute

import (
	"fmt"
	"time"
)

// Stage of a dispute in the card-scheme lifecycle.
type Stage string

const (
	StagePreDispute      Stage = "pre_dispute"
	StageDispute         Stage = "dispute"
	StagePreArbitration  Stage = "pre_arbitration"
	StageArbitration     Stage = "arbitration"
	StageDisputeReversal Stage = "dispute_reversal"
)

// Status of a dispute within its stage.
type Status string

const (
	StatusOpened     Status = "dispute_opened"
	StatusExpired    Status = "dispute_expired"
	StatusAccepted   Status = "dispute_accepted"
	StatusCancelled  Status = "dispute_cancelled"
	StatusChallenged Status = "dispute_challenged"
	StatusWon        Status = "dispute_won"
	StatusLost       Status = "dispute_lost"
)

// Dispute raised by a cardholder against a payment.
type Dispute struct {
	ID                  string     `json:"dispute_id"`
	PaymentID           string     `json:"payment_id"`
	AttemptID           string     `json:"attempt_id"`
	MerchantID          string     `json:"merchant_id"`
	ProfileID           string     `json:"profile_id,omitempty"`
	Connector           string     `json:"connector"`
	MerchantConnectorID string     `json:"merchant_connector_id"`
	ConnectorDisputeID  string     `json:"connector_dispute_id"`
	ConnectorStatus     string     `json:"connector_status"`
	Amount              string     `json:"amount"`
	Currency            string     `json:"currency"`
	Stage               Stage      `json:"dispute_stage"`
	Status              Status     `json:"dispute_status"`
	ConnectorReasonCode string     `json:"connector_reason_code,omitempty"`
	ConnectorReason     string     `json:"connector_reason,omitempty"`
	ChallengeRequiredBy *time.Time `json:"challenge_required_by,omitempty"`
	ConnectorCreatedAt  *time.Time `json:"connector_created_at,omitempty"`
	ConnectorUpdatedAt  *time.Time `json:"connector_updated_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Details is the connector's view of a dispute, as decoded from a webhook.
type Details struct {
	Amount              string     `json:"amount"`
	Currency            string     `json:"currency"`
	Stage               Stage      `json:"dispute_stage"`
	ConnectorStatus     string     `json:"connector_status"`
	ConnectorDisputeID  string     `json:"connector_dispute_id"`
	ConnectorReason     string     `json:"connector_reason,omitempty"`
	ConnectorReasonCode string     `json:"connector_reason_code,omitempty"`
	ChallengeRequiredBy *time.Time `json:"challenge_required_by,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// TransitionError is returned when a dispute update is not allowed from the current state.
type TransitionError struct {
	FromStage  Stage
	FromStatus Status
	ToStage    Stage
	ToStatus   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("dispute transition %s/%s -> %s/%s is not allowed",
		e.FromStage, e.FromStatus, e.ToStage, e.ToStatus)
}

// ValidateTransition checks (stage, status) -> (stage, status) against the legality table.
// A stage change is judged on stages alone; within a stage only open disputes may move.
func ValidateTransition(fromStage Stage, fromStatus Status, toStage Stage, toStatus Status) error {
	var ok bool
	if fromStage != toStage {
		ok = stageAllowed(fromStage, toStage)
	} else {
		ok = statusAllowed(fromStatus, toStatus)
	}
	if !ok {
		return &TransitionError{FromStage: fromStage, FromStatus: fromStatus, ToStage: toStage, ToStatus: toStatus}
	}
	return nil
}

func stageAllowed(from, to Stage) bool {
	switch from {
	case StagePreDispute:
		return true
	case StageDispute:
		return to != StagePreDispute
	case StagePreArbitration:
		return to == StageArbitration || to == StageDisputeReversal
	case StageArbitration:
		return to == StageDisputeReversal
	}
	return false
}

func statusAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	// Only opened and challenged disputes can still move; a challenge may be reopened.
	return from == StatusOpened || from == StatusChallenged
}

// Apply moves the dispute to the given state after validating the transition.
// The dispute is left untouched when the transition is illegal.
func (d *Dispute) Apply(det Details, status Status) error {
	if err := ValidateTransition(d.Stage, d.Status, det.Stage, status); err != nil {
		return err
	}
	d.Stage = det.Stage
	d.Status = status
	d.ConnectorStatus = det.ConnectorStatus
	if det.ConnectorReason != "" {
		d.ConnectorReason = det.ConnectorReason
	}
	if det.ConnectorReasonCode != "" {
		d.ConnectorReasonCode = det.ConnectorReasonCode
	}
	if det.ChallengeRequiredBy != nil {
		d.ChallengeRequiredBy = det.ChallengeRequiredBy
	}
	if det.UpdatedAt != nil {
		d.ConnectorUpdatedAt = det.UpdatedAt
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}
