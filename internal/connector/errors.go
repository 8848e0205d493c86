package connector

import (
	"fmt"

	"paymentswitch/internal/domain/payment"
)

// ErrorCode classifies failures raised by the adapter layer.
type ErrorCode string

const (
	CodeResponseDeserializationFailed   ErrorCode = "response_deserialization_failed"
	CodeMissingRequiredField            ErrorCode = "missing_required_field"
	CodeWebhookSourceVerificationFailed ErrorCode = "webhook_source_verification_failed"
	CodeNotImplemented                  ErrorCode = "not_implemented"
	CodeNotSupported                    ErrorCode = "not_supported"
	CodeInvalidConnectorConfig          ErrorCode = "invalid_connector_config"
	CodeWebhookEventTypeNotFound        ErrorCode = "webhook_event_type_not_found"
	CodeWebhookReferenceIDNotFound      ErrorCode = "webhook_reference_id_not_found"
	CodeWebhookBodyDecodingFailed       ErrorCode = "webhook_body_decoding_failed"
	CodeWebhookResourceObjectNotFound   ErrorCode = "webhook_resource_object_not_found"
	CodeRequestEncodingFailed           ErrorCode = "request_encoding_failed"
	CodeProcessingStepFailed            ErrorCode = "processing_step_failed"
	CodeFailedToObtainAuthType          ErrorCode = "failed_to_obtain_auth_type"
	CodeConnectorNotFound               ErrorCode = "connector_not_found"
)

// Error is returned by adapters. Two errors are equal under errors.Is when their codes match.
type Error struct {
	Code         ErrorCode `json:"code"`
	Message      string    `json:"message"`
	ConnectorErr string    `json:"connector_error,omitempty"`
	Err          error     `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.ConnectorErr != "" {
		msg += ": " + e.ConnectorErr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrResponseDeserializationFailed   = &Error{Code: CodeResponseDeserializationFailed, Message: "failed to deserialize connector response"}
	ErrMissingRequiredField            = &Error{Code: CodeMissingRequiredField, Message: "missing required field"}
	ErrWebhookSourceVerificationFailed = &Error{Code: CodeWebhookSourceVerificationFailed, Message: "webhook source verification failed"}
	ErrNotImplemented                  = &Error{Code: CodeNotImplemented, Message: "not implemented"}
	ErrNotSupported                    = &Error{Code: CodeNotSupported, Message: "not supported"}
	ErrInvalidConnectorConfig          = &Error{Code: CodeInvalidConnectorConfig, Message: "invalid connector configuration"}
	ErrWebhookEventTypeNotFound        = &Error{Code: CodeWebhookEventTypeNotFound, Message: "webhook event type not found"}
	ErrWebhookReferenceIDNotFound      = &Error{Code: CodeWebhookReferenceIDNotFound, Message: "webhook reference id not found"}
	ErrWebhookBodyDecodingFailed       = &Error{Code: CodeWebhookBodyDecodingFailed, Message: "webhook body decoding failed"}
	ErrWebhookResourceObjectNotFound   = &Error{Code: CodeWebhookResourceObjectNotFound, Message: "webhook resource object not found"}
	ErrRequestEncodingFailed           = &Error{Code: CodeRequestEncodingFailed, Message: "failed to encode connector request"}
	ErrProcessingStepFailed            = &Error{Code: CodeProcessingStepFailed, Message: "processing step failed"}
	ErrFailedToObtainAuthType          = &Error{Code: CodeFailedToObtainAuthType, Message: "failed to obtain connector auth type"}
	ErrConnectorNotFound               = &Error{Code: CodeConnectorNotFound, Message: "connector not registered"}
)

// MissingField reports a required field the request or response lacked.
func MissingField(name string) error {
	return &Error{Code: CodeMissingRequiredField, Message: "missing required field", ConnectorErr: name}
}

// InvalidConfig reports a merchant-connector-account setting that makes the call impossible.
func InvalidConfig(field string) error {
	return &Error{Code: CodeInvalidConnectorConfig, Message: "invalid connector configuration", ConnectorErr: field}
}

// NotImplemented reports a flow the connector does not offer.
func NotImplemented(what string) error {
	return &Error{Code: CodeNotImplemented, Message: fmt.Sprintf("%s is not implemented", what)}
}

// Deserialization wraps a decode failure of a connector response or webhook.
func Deserialization(err error) error {
	return &Error{Code: CodeResponseDeserializationFailed, Message: "failed to deserialize connector response", Err: err}
}

// Encoding wraps an encode failure of a connector request.
func Encoding(err error) error {
	return &Error{Code: CodeRequestEncodingFailed, Message: "failed to encode connector request", Err: err}
}

// ErrorResponse is the structured error a connector returned, or one synthesized locally
// for a business decline. It is data, not a Go error: a flow that produced one succeeded
// in talking to the connector.
type ErrorResponse struct {
	StatusCode             int                    `json:"status_code"`
	Code                   string                 `json:"code"`
	Message                string                 `json:"message"`
	Reason                 string                 `json:"reason,omitempty"`
	AttemptStatus          *payment.AttemptStatus `json:"attempt_status,omitempty"`
	ConnectorTransactionID string                 `json:"connector_transaction_id,omitempty"`
	NetworkDeclineCode     string                 `json:"network_decline_code,omitempty"`
}
