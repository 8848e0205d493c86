package webhook

import (
	"errors"
	"fmt"

	"paymentswitch/internal/store/repositories"
)

// Business errors raised by the pipeline and the flow handlers.
var (
	ErrResourceNotFound            = errors.New("resource not found")
	ErrWebhookAuthenticationFailed = errors.New("webhook authentication failed")
	ErrWebhookProcessingFailure    = errors.New("webhook processing failed")
	ErrFlowNotSupported            = errors.New("flow not supported")
	// ErrReferenceUnresolved means the webhook does not name a resource the switch can
	// look up. Redelivering the same body cannot succeed.
	ErrReferenceUnresolved = errors.New("webhook object reference unresolved")
)

// lookupErr turns a storage miss into ErrResourceNotFound and leaves other errors alone.
func lookupErr(what string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrResourceNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
