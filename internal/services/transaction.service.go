package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirapay/shirapay/internal/events"
	gateway "github.com/shirapay/shirapay/internal/gateways"
	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/internal/repository"
	"github.com/shirapay/shirapay/pkg/logger"
	"github.com/shirapay/shirapay/pkg/prom"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrVendorNotFound         = errors.New("vendor profile not found")
	ErrAdminWrongOrganization = errors.New("admin does not belong to the transaction's organization")
	ErrRecipientNotConfigured = errors.New("vendor has no payout recipient configured")
	ErrDepartmentUnknown      = errors.New("department is not configured for the organization")
	ErrTransferFailed         = errors.New("transfer initiation failed")
)

// Webhook event names as the payment provider sends them.
const (
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	SubmitForApproval(ctx context.Context, id, agentID, organizationID, department string) error
	BeginPayment(ctx context.Context, id, adminID string) error
	SetReference(ctx context.Context, id, reference string) error
	MarkRejected(ctx context.Context, id, adminID, reason string) error
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
	MarkPaymentFailed(ctx context.Context, id, reason string) error
}

type UserReader interface {
	Get(ctx context.Context, uid string) (*model.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*model.UserProfile, error)
}

type OrganizationReader interface {
	Get(ctx context.Context, id string) (*model.Organization, error)
}

type TransferGateway interface {
	InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error)
}

type TransactionService struct {
	transactionRepo TransactionRepository
	userRepo        UserReader
	orgRepo         OrganizationReader
	transfers       TransferGateway
	publisher       events.Publisher
}

func NewTransactionService(
	transactionRepo TransactionRepository,
	userRepo UserReader,
	orgRepo OrganizationReader,
	transfers TransferGateway,
	publisher events.Publisher,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		orgRepo:         orgRepo,
		transfers:       transfers,
		publisher:       publisher,
	}
}

func (s *TransactionService) Create(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		Amount:      p.Amount,
		Description: p.Description,
		Status:      model.StatusCreated,
		VendorID:    p.VendorID,
		VendorName:  p.VendorName,
		VendorEmail: p.VendorEmail,
	}

	created, err := s.transactionRepo.Create(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

// SubmitForApproval routes an invoice to an organization's approval queue.
// The department must exist on the organization before the status moves.
func (s *TransactionService) SubmitForApproval(ctx context.Context, p model.SubmitRequest) error {
	if err := p.Validate(); err != nil {
		return err
	}

	txn, err := s.transactionRepo.Get(ctx, p.TransactionID)
	if err != nil {
		return mapTransactionErr(err)
	}

	org, err := s.orgRepo.Get(ctx, p.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !org.HasDepartment(p.Department) {
		return fmt.Errorf("%w: %q", ErrDepartmentUnknown, p.Department)
	}

	err = s.transactionRepo.SubmitForApproval(ctx, p.TransactionID, p.AgentID, p.OrganizationID, p.Department)
	if err != nil {
		return mapTransactionErr(err)
	}

	s.emit(ctx, p.TransactionID, p.OrganizationID, txn.Status, model.StatusPendingApproval, "")
	return nil
}

// Approve claims a pending transaction for the approving admin and kicks
// off the provider transfer. The admin must belong to the transaction's
// organization, and the conditional claim happens before any provider
// traffic so two concurrent approvers cannot both pay.
func (s *TransactionService) Approve(ctx context.Context, id, adminID string) (*model.Transaction, error) {
	txn, err := s.transactionRepo.Get(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}

	admin, err := s.userRepo.Get(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: admin %s", ErrNotFound, adminID)
		}
		return nil, err
	}
	if txn.OrganizationID != "" && admin.OrganizationID != txn.OrganizationID {
		return nil, ErrAdminWrongOrganization
	}

	if err := s.transactionRepo.BeginPayment(ctx, id, adminID); err != nil {
		return nil, mapTransactionErr(err)
	}

	s.emit(ctx, id, txn.OrganizationID, model.StatusPendingApproval, model.StatusPaymentInProgress, "")

	// the payout destination lives on the vendor's profile, keyed by the
	// email recorded on the invoice
	vendor, err := s.userRepo.GetByEmail(ctx, txn.VendorEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, s.failPayment(ctx, txn, "vendor profile not found", ErrVendorNotFound)
		}
		return nil, err
	}
	if vendor.RecipientCode == "" {
		return nil, s.failPayment(ctx, txn, "vendor has no payout recipient configured", ErrRecipientNotConfigured)
	}

	// the reference is generated here and stored before the provider sees
	// it, so a webhook can never arrive for a reference we don't know
	reference := uuid.NewString()
	if err := s.transactionRepo.SetReference(ctx, id, reference); err != nil {
		return nil, mapTransactionErr(err)
	}

	result, err := s.transfers.InitiateTransfer(ctx, gateway.TransferRequest{
		Amount:    txn.Amount,
		Recipient: vendor.RecipientCode,
		Reason:    fmt.Sprintf("Payment for transaction %s", txn.ID),
		Reference: reference,
	})
	if err != nil {
		prom.IncCounterVec(prom.SystemPayments, prom.MetricTransferInitiated, "error")
		reason := fmt.Sprintf("Transfer failed: %v", err)
		return nil, s.failPayment(ctx, txn, reason, fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}

	prom.IncCounterVec(prom.SystemPayments, prom.MetricTransferInitiated, "queued")
	logger.Info("transfer initiated",
		"transaction_id", txn.ID,
		"reference", reference,
		"provider_status", result.Status)

	return s.transactionRepo.Get(ctx, id)
}

// failPayment records a payment failure for a transaction already claimed
// as PAYMENT_IN_PROGRESS and returns cause to the caller.
func (s *TransactionService) failPayment(ctx context.Context, txn *model.Transaction, reason string, cause error) error {
	if err := s.transactionRepo.MarkPaymentFailed(ctx, txn.ID, reason); err != nil {
		logger.Error("failed to record payment failure",
			"transaction_id", txn.ID, "reason", reason, "error", err)
	} else {
		s.emit(ctx, txn.ID, txn.OrganizationID, model.StatusPaymentInProgress, model.StatusPaymentFailed, reason)
	}
	return cause
}

// Reject moves a pending transaction to REJECTED. The reason is part of
// the record, so an empty one is refused before any write.
func (s *TransactionService) Reject(ctx context.Context, id, adminID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.New("rejection reason is required")
	}
	if err := s.transactionRepo.MarkRejected(ctx, id, adminID, reason); err != nil {
		return mapTransactionErr(err)
	}

	txn, err := s.transactionRepo.Get(ctx, id)
	if err == nil {
		s.emit(ctx, id, txn.OrganizationID, model.StatusPendingApproval, model.StatusRejected, reason)
	}
	return nil
}

// ApplyTransferEvent reconciles a provider webhook event against stored
// state. Unknown references and already-settled transactions are benign
// no-ops; the webhook must always be acknowledged for them.
func (s *TransactionService) ApplyTransferEvent(ctx context.Context, event, reference, reason string) error {
	txn, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			logger.Warn("webhook event for unknown reference", "event", event, "reference", reference)
			prom.IncCounterVec(prom.SystemWebhooks, prom.MetricWebhookEventsApplied, event, "unknown_reference")
			return nil
		}
		return err
	}

	var (
		to        model.TransactionStatus
		applyErr  error
		eventNote string
	)

	switch event {
	case EventTransferSuccess:
		to = model.StatusPaid
		applyErr = s.transactionRepo.MarkPaid(ctx, txn.ID, time.Now().UTC())
	case EventTransferFailed:
		if reason == "" {
			reason = "Transfer failed"
		}
		to = model.StatusPaymentFailed
		eventNote = reason
		applyErr = s.transactionRepo.MarkPaymentFailed(ctx, txn.ID, reason)
	case EventTransferReversed:
		to = model.StatusPaymentFailed
		eventNote = "Transfer reversed"
		applyErr = s.transactionRepo.MarkPaymentFailed(ctx, txn.ID, "Transfer reversed")
	default:
		logger.Info("ignoring unhandled webhook event", "event", event, "reference", reference)
		prom.IncCounterVec(prom.SystemWebhooks, prom.MetricWebhookEventsApplied, event, "ignored")
		return nil
	}

	if applyErr != nil {
		if errors.Is(applyErr, repository.ErrStatusConflict) {
			// replayed or late delivery; the first one already settled it
			logger.Info("webhook event is a no-op",
				"event", event, "reference", reference, "status", txn.Status)
			prom.IncCounterVec(prom.SystemWebhooks, prom.MetricWebhookEventsApplied, event, "noop")
			return nil
		}
		return applyErr
	}

	prom.IncCounterVec(prom.SystemWebhooks, prom.MetricWebhookEventsApplied, event, "applied")
	s.emit(ctx, txn.ID, txn.OrganizationID, model.StatusPaymentInProgress, to, eventNote)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	txn, err := s.transactionRepo.Get(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	return txn, nil
}

func (s *TransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	return s.transactionRepo.List(ctx, f)
}

// emit publishes a status event and records the transition metric. Both
// are best-effort observers of a state change that already committed.
func (s *TransactionService) emit(ctx context.Context, id, orgID string, from, to model.TransactionStatus, reason string) {
	prom.IncCounterVec(prom.SystemPayments, prom.MetricStatusTransition, string(from), string(to))
	if s.publisher == nil {
		return
	}
	_ = s.publisher.PublishStatusEvent(ctx, model.StatusEvent{
		TransactionID:  id,
		OrganizationID: orgID,
		From:           from,
		To:             to,
		Reason:         reason,
		OccurredAt:     time.Now().UTC(),
	})
}

func mapTransactionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrTransactionNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return ErrInvalidTransition
	}
	return err
}
