package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/lock"
	"paymentswitch/internal/outgoing"
	"paymentswitch/internal/store/repositories"
	"paymentswitch/internal/ucs"
)

// Action says where a payment sync gets the connector's view of the payment from.
type Action int

const (
	// ActionTrigger polls the connector.
	ActionTrigger Action = iota
	// ActionHandleResponse parses a resource object the webhook already carried.
	ActionHandleResponse
	// ActionUCSConsumeResponse applies a response the unified connector service already built.
	ActionUCSConsumeResponse
	// ActionUCSHandleResponse asks the unified connector service to finish the transformation first.
	ActionUCSHandleResponse
)

func (a Action) String() string {
	switch a {
	case ActionTrigger:
		return "trigger"
	case ActionHandleResponse:
		return "handle_response"
	case ActionUCSConsumeResponse:
		return "ucs_consume_response"
	case ActionUCSHandleResponse:
		return "ucs_handle_response"
	}
	return "unknown"
}

var ErrMissingResource = errors.New("payment sync has no resource to apply")

// Config of the payment service
type Config struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// Service applies connector-reported payment state under the payment lock
type Service struct {
	store    repositories.Store
	sender   connector.Sender
	locker   lock.Locker
	notifier outgoing.Notifier
	ucs      ucs.Client
	cfg      Config
}

// NewService creates a new payment service
func NewService(store repositories.Store, sender connector.Sender, locker lock.Locker, notifier outgoing.Notifier, ucsClient ucs.Client, cfg Config) *Service {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}
	return &Service{
		store:    store,
		sender:   sender,
		locker:   locker,
		notifier: notifier,
		ucs:      ucsClient,
		cfg:      cfg,
	}
}

// SyncRequest asks for one payment attempt to be brought up to date.
type SyncRequest struct {
	MerchantID  string
	AttemptID   string
	Action      Action
	Adapter     connector.Adapter
	Account     *merchant.ConnectorAccount
	Resource    []byte
	UCSResponse *connector.PaymentsResponse
}

// Result is the payment after the operation.
type Result struct {
	Intent  *payment.Intent
	Attempt *payment.Attempt
	Changed bool
}

// Snapshot is the payment as merchants see it in notifications.
type Snapshot struct {
	PaymentID              string                `json:"payment_id"`
	MerchantID             string                `json:"merchant_id"`
	Status                 payment.IntentStatus  `json:"status"`
	Amount                 payment.MinorUnit     `json:"amount"`
	AmountCaptured         payment.MinorUnit     `json:"amount_captured"`
	Currency               payment.Currency      `json:"currency"`
	Connector              string                `json:"connector"`
	AttemptID              string                `json:"attempt_id"`
	AttemptStatus          payment.AttemptStatus `json:"attempt_status"`
	ConnectorTransactionID string                `json:"connector_transaction_id,omitempty"`
	ErrorCode              string                `json:"error_code,omitempty"`
	ErrorMessage           string                `json:"error_message,omitempty"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

func snapshotOf(i *payment.Intent, a *payment.Attempt) Snapshot {
	return Snapshot{
		PaymentID:              i.ID,
		MerchantID:             i.MerchantID,
		Status:                 i.Status,
		Amount:                 i.Amount,
		AmountCaptured:         i.AmountCaptured,
		Currency:               i.Currency,
		Connector:              a.Connector,
		AttemptID:              a.ID,
		AttemptStatus:          a.Status,
		ConnectorTransactionID: a.ConnectorTransactionID,
		ErrorCode:              a.ErrorCode,
		ErrorMessage:           a.ErrorMessage,
		UpdatedAt:              i.UpdatedAt,
	}
}

// ResolveAttempt finds the attempt a payment reference points at.
func (s *Service) ResolveAttempt(ctx context.Context, merchantID, connectorName string, ref event.PaymentRef) (*payment.Attempt, error) {
	switch ref.Type {
	case event.PaymentByConnectorTransactionID:
		return s.store.FindAttemptByConnectorTransactionID(ctx, merchantID, connectorName, ref.ID)
	case event.PaymentByAttemptID:
		return s.store.FindAttempt(ctx, merchantID, ref.ID)
	case event.PaymentByPreprocessingID:
		return s.store.FindAttemptByPreprocessingID(ctx, merchantID, ref.ID)
	case event.PaymentByIntentID:
		intent, err := s.store.FindIntent(ctx, merchantID, ref.ID)
		if err != nil {
			return nil, err
		}
		return s.store.FindAttempt(ctx, merchantID, intent.ActiveAttemptID)
	}
	return nil, fmt.Errorf("unknown payment reference type %q", ref.Type)
}

// withPayment runs fn under the payment lock on freshly loaded state.
// The lock is released on every exit path.
func (s *Service) withPayment(ctx context.Context, merchantID, attemptID string, fn func(*payment.Intent, *payment.Attempt) (*Result, error)) (*Result, error) {
	attempt, err := s.store.FindAttempt(ctx, merchantID, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to find attempt %s: %w", attemptID, err)
	}

	lease, err := s.locker.Acquire(ctx, lock.PaymentKey(merchantID, attempt.PaymentID), s.cfg.LockTTL, s.cfg.LockWait)
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment %s: %w", attempt.PaymentID, err)
	}
	defer lease.Release(ctx)

	// Another holder may have changed the payment while we waited.
	attempt, err = s.store.FindAttempt(ctx, merchantID, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attempt %s: %w", attemptID, err)
	}
	intent, err := s.store.FindIntent(ctx, merchantID, attempt.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", attempt.PaymentID, err)
	}
	return fn(intent, attempt)
}

func routerData[Req any](flow connector.Flow, acct *merchant.ConnectorAccount, i *payment.Intent, a *payment.Attempt, req Req) *connector.RouterData[Req, connector.PaymentsResponse] {
	return &connector.RouterData[Req, connector.PaymentsResponse]{
		Flow:                        flow,
		MerchantID:                  i.MerchantID,
		Connector:                   a.Connector,
		PaymentID:                   i.ID,
		AttemptID:                   a.ID,
		ConnectorRequestReferenceID: a.ID,
		Account:                     acct,
		Status:                      a.Status,
		Request:                     req,
	}
}

// Sync brings one attempt up to date with the connector.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (*Result, error) {
	return s.withPayment(ctx, req.MerchantID, req.AttemptID, func(intent *payment.Intent, attempt *payment.Attempt) (*Result, error) {
		rd := routerData(connector.FlowPaymentSync, req.Account, intent, attempt, connector.SyncData{
			ConnectorTransactionID: attempt.ConnectorTransactionID,
			EncodedData:            attempt.EncodedData,
			CaptureMethod:          attempt.CaptureMethod,
			SyncType:               connector.SyncSinglePayment,
			Currency:               attempt.Currency,
		})

		switch req.Action {
		case ActionHandleResponse:
			if len(req.Resource) == 0 {
				return nil, ErrMissingResource
			}
			resp, err := req.Adapter.PaymentSync().HandleResponse(rd, &connector.Response{StatusCode: http.StatusOK, Body: req.Resource})
			if err != nil {
				return nil, err
			}
			rd.Response = resp
		case ActionTrigger:
			if err := s.trigger(ctx, req.Adapter, rd, attempt); err != nil {
				return nil, err
			}
		case ActionUCSConsumeResponse:
			if req.UCSResponse == nil {
				return nil, ErrMissingResource
			}
			rd.Response = req.UCSResponse
		case ActionUCSHandleResponse:
			resp, err := s.ucs.SyncPayment(ctx, ucs.SyncRequest{
				MerchantID:             req.MerchantID,
				Connector:              attempt.Connector,
				Account:                attempt.MerchantConnectorID,
				PaymentID:              intent.ID,
				ConnectorTransactionID: attempt.ConnectorTransactionID,
				EncodedData:            attempt.EncodedData,
			})
			if err != nil {
				return nil, err
			}
			rd.Response = resp
		}

		log.Debug().
			Str("payment_id", intent.ID).
			Str("attempt_id", attempt.ID).
			Str("action", req.Action.String()).
			Bool("has_response", rd.Response != nil).
			Bool("has_error", rd.Error != nil).
			Msg("payment sync")
		return s.apply(ctx, intent, attempt, rd.Response, rd.Error)
	})
}

// trigger polls the connector, capture by capture when the connector wants that.
func (s *Service) trigger(ctx context.Context, a connector.Adapter, rd *connector.RouterData[connector.SyncData, connector.PaymentsResponse], attempt *payment.Attempt) error {
	if !attempt.HasMultipleCaptures() {
		return connector.Execute(ctx, s.sender, a.PaymentSync(), rd)
	}

	captures, err := s.store.ListCaptures(ctx, attempt.MerchantID, attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to list captures: %w", err)
	}
	var ids []string
	for _, c := range captures {
		if c.ConnectorCaptureID != "" && c.Status != payment.CaptureCharged && c.Status != payment.CaptureFailed {
			ids = append(ids, c.ConnectorCaptureID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	rd.Request.SyncType = connector.SyncMultipleCaptures

	if a.CaptureSyncMethod() == connector.CaptureSyncBulk {
		rd.Request.CaptureIDs = ids
		return connector.Execute(ctx, s.sender, a.PaymentSync(), rd)
	}

	merged := &connector.PaymentsResponse{CaptureSync: make(map[string]connector.CaptureSyncResponse)}
	for _, id := range ids {
		one := *rd
		one.Request.CaptureIDs = []string{id}
		one.Response, one.Error = nil, nil
		if err := connector.Execute(ctx, s.sender, a.PaymentSync(), &one); err != nil {
			return err
		}
		if one.Error != nil {
			log.Warn().Str("capture_id", id).Str("code", one.Error.Code).Msg("capture sync returned an error")
			continue
		}
		if one.Response == nil {
			continue
		}
		for k, v := range one.Response.CaptureSync {
			merged.CaptureSync[k] = v
		}
		merged.ConnectorTransactionID = one.Response.ConnectorTransactionID
	}
	rd.Response = merged
	return nil
}

// apply writes the connector's outcome and notifies merchants when the payment status moved.
func (s *Service) apply(ctx context.Context, intent *payment.Intent, attempt *payment.Attempt, resp *connector.PaymentsResponse, er *connector.ErrorResponse) (*Result, error) {
	before := intent.Status
	changed := false

	switch {
	case er != nil:
		status := attempt.Status
		if er.AttemptStatus != nil {
			status = *er.AttemptStatus
		}
		changed = attempt.ApplyError(status, er.Code, er.Message, er.Reason)
	case resp != nil:
		c, err := s.applyResponse(ctx, attempt, resp)
		if err != nil {
			return nil, err
		}
		changed = c
	default:
		return &Result{Intent: intent, Attempt: attempt}, nil
	}

	if intent.ApplyAttemptStatus(attempt) {
		changed = true
	}
	if resp != nil && resp.AmountCaptured != nil && intent.AmountCaptured != *resp.AmountCaptured {
		intent.AmountCaptured = *resp.AmountCaptured
		changed = true
	}
	if !changed {
		return &Result{Intent: intent, Attempt: attempt}, nil
	}

	if err := s.store.SavePayment(ctx, intent, attempt); err != nil {
		return nil, fmt.Errorf("failed to save payment %s: %w", intent.ID, err)
	}
	log.Info().
		Str("payment_id", intent.ID).
		Str("attempt_id", attempt.ID).
		Str("attempt_status", string(attempt.Status)).
		Str("from", string(before)).
		Str("to", string(intent.Status)).
		Msg("payment updated")

	if intent.Status != before && intent.Status.IsNotifiable() {
		if err := s.notifier.Notify(ctx, event.ClassPayments, intent.ID, snapshotOf(intent, attempt), intent.UpdatedAt); err != nil {
			log.Error().Err(err).Str("payment_id", intent.ID).Msg("failed to send outgoing webhook")
		}
	}
	return &Result{Intent: intent, Attempt: attempt, Changed: true}, nil
}

func (s *Service) applyResponse(ctx context.Context, attempt *payment.Attempt, resp *connector.PaymentsResponse) (bool, error) {
	changed := false
	set := func(dst *string, v string, overwrite bool) {
		if v != "" && *dst != v && (overwrite || *dst == "") {
			*dst = v
			changed = true
		}
	}
	set(&attempt.ConnectorTransactionID, resp.ConnectorTransactionID, true)
	set(&attempt.EncodedData, resp.EncodedData, true)
	set(&attempt.NetworkTransactionID, resp.NetworkTransactionID, false)
	set(&attempt.ConnectorMandateID, resp.ConnectorMandateID, false)

	status := resp.Status
	if attempt.HasMultipleCaptures() && len(resp.CaptureSync) > 0 {
		derived, err := s.applyCaptures(ctx, attempt, resp.CaptureSync)
		if err != nil {
			return false, err
		}
		status = derived
	}
	if attempt.ApplyStatus(status) {
		changed = true
	}
	return changed, nil
}

// applyCaptures updates each capture and derives the attempt status from all of them.
func (s *Service) applyCaptures(ctx context.Context, attempt *payment.Attempt, sync map[string]connector.CaptureSyncResponse) (payment.AttemptStatus, error) {
	captures, err := s.store.ListCaptures(ctx, attempt.MerchantID, attempt.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list captures: %w", err)
	}

	var charged payment.MinorUnit
	pending, failed := 0, 0
	for _, c := range captures {
		if r, ok := sync[c.ConnectorCaptureID]; ok && r.Status != c.Status {
			c.Status = r.Status
			c.UpdatedAt = time.Now().UTC()
			if err := s.store.SaveCapture(ctx, c); err != nil {
				return "", fmt.Errorf("failed to save capture %s: %w", c.ID, err)
			}
		}
		switch c.Status {
		case payment.CaptureCharged:
			charged += c.Amount
		case payment.CaptureFailed:
			failed++
		default:
			pending++
		}
	}

	switch {
	case charged >= attempt.Amount:
		return payment.AttemptCharged, nil
	case charged > 0 && pending == 0:
		return payment.AttemptPartialCharged, nil
	case pending > 0:
		return payment.AttemptCaptureInitiated, nil
	case failed > 0:
		return payment.AttemptCaptureFailed, nil
	}
	return attempt.Status, nil
}

// Capture captures the attempt's capturable amount.
func (s *Service) Capture(ctx context.Context, a connector.Adapter, acct *merchant.ConnectorAccount, merchantID, attemptID string) (*Result, error) {
	return s.withPayment(ctx, merchantID, attemptID, func(intent *payment.Intent, attempt *payment.Attempt) (*Result, error) {
		if attempt.Status != payment.AttemptAuthorized {
			log.Info().Str("payment_id", intent.ID).Str("status", string(attempt.Status)).Msg("capture skipped, attempt is not authorized")
			return &Result{Intent: intent, Attempt: attempt}, nil
		}
		amount := attempt.AmountCapturable
		if amount == 0 {
			amount = attempt.Amount
		}
		rd := routerData(connector.FlowCapture, acct, intent, attempt, connector.CaptureData{
			ConnectorTransactionID: attempt.ConnectorTransactionID,
			AmountToCapture:        amount,
			Currency:               attempt.Currency,
			CaptureMethod:          attempt.CaptureMethod,
			PaymentMethod:          attempt.PaymentMethod,
			PaymentMethodType:      attempt.PaymentMethodType,
		})
		if err := connector.Execute(ctx, s.sender, a.Capture(), rd); err != nil {
			return nil, err
		}
		return s.apply(ctx, intent, attempt, rd.Response, rd.Error)
	})
}

// Void cancels the attempt's authorization.
func (s *Service) Void(ctx context.Context, a connector.Adapter, acct *merchant.ConnectorAccount, merchantID, attemptID, reason string) (*Result, error) {
	return s.withPayment(ctx, merchantID, attemptID, func(intent *payment.Intent, attempt *payment.Attempt) (*Result, error) {
		if attempt.Status.IsTerminal() {
			return &Result{Intent: intent, Attempt: attempt}, nil
		}
		rd := routerData(connector.FlowVoid, acct, intent, attempt, connector.VoidData{
			ConnectorTransactionID: attempt.ConnectorTransactionID,
			CancellationReason:     reason,
		})
		if err := connector.Execute(ctx, s.sender, a.Void(), rd); err != nil {
			return nil, err
		}
		return s.apply(ctx, intent, attempt, rd.Response, rd.Error)
	})
}

// ConfirmAuthenticated authorizes a payment that was waiting on an external 3DS authentication.
// The stored mandate of the payment method is used as the instrument.
func (s *Service) ConfirmAuthenticated(ctx context.Context, a connector.Adapter, acct *merchant.ConnectorAccount, merchantID, attemptID string, auth *authentication.Authentication) (*Result, error) {
	return s.withPayment(ctx, merchantID, attemptID, func(intent *payment.Intent, attempt *payment.Attempt) (*Result, error) {
		switch attempt.Status {
		case payment.AttemptStarted, payment.AttemptAuthenticationPending, payment.AttemptAuthenticationSuccessful:
		default:
			return &Result{Intent: intent, Attempt: attempt}, nil
		}

		data := connector.AuthorizeData{
			Amount:           attempt.Amount,
			Currency:         attempt.Currency,
			CaptureMethod:    attempt.CaptureMethod,
			PaymentMethod:    connector.PaymentMethodData{Method: attempt.PaymentMethod, Type: attempt.PaymentMethodType},
			ShopperReference: intent.CustomerID,
			Authentication: &connector.AuthenticationData{
				ECI:                 auth.ECI,
				AuthenticationValue: auth.AuthenticationValue,
				TransStatus:         string(auth.TransStatus),
			},
		}
		if attempt.PaymentMethodID != "" {
			pm, err := s.store.FindPaymentMethod(ctx, merchantID, attempt.PaymentMethodID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
			if pm != nil {
				data.ConnectorMandate = pm.Mandates[attempt.MerchantConnectorID].ConnectorMandateID
			}
		}

		rd := routerData(connector.FlowAuthorize, acct, intent, attempt, data)
		if err := connector.Execute(ctx, s.sender, a.Authorize(), rd); err != nil {
			return nil, err
		}
		return s.apply(ctx, intent, attempt, rd.Response, rd.Error)
	})
}

// RecordMandate stores a connector mandate id and network transaction id on the attempt
// when it has none yet.
func (s *Service) RecordMandate(ctx context.Context, merchantID, attemptID, connectorMandateID, networkTxnID string) error {
	_, err := s.withPayment(ctx, merchantID, attemptID, func(intent *payment.Intent, attempt *payment.Attempt) (*Result, error) {
		changed := false
		if connectorMandateID != "" && attempt.ConnectorMandateID == "" {
			attempt.ConnectorMandateID = connectorMandateID
			changed = true
		}
		if networkTxnID != "" && attempt.NetworkTransactionID == "" {
			attempt.NetworkTransactionID = networkTxnID
			changed = true
		}
		if !changed {
			return &Result{Intent: intent, Attempt: attempt}, nil
		}
		attempt.UpdatedAt = time.Now().UTC()
		if err := s.store.SaveAttempt(ctx, attempt); err != nil {
			return nil, fmt.Errorf("failed to save attempt %s: %w", attempt.ID, err)
		}
		return &Result{Intent: intent, Attempt: attempt, Changed: true}, nil
	})
	return err
}
