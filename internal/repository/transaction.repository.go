package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrTransactionNotFound is returned when a transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrStatusConflict is returned when a conditional status update found
	// the row in a different state than expected. The caller decides
	// whether that is an error or a benign no-op.
	ErrStatusConflict = errors.New("transaction status conflict")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// GetByReference looks a transaction up by its provider correlation key.
// This is the sole join between an inbound webhook event and stored state.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	if reference == "" {
		return nil, ErrTransactionNotFound
	}
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("paystack_reference = ?", reference).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.VendorID != nil {
		q = q.Where("vendor_id = ?", *f.VendorID)
	}
	if f.AgentID != nil {
		q = q.Where("agent_id = ?", *f.AgentID)
	}
	if f.OrganizationID != nil {
		q = q.Where("organization_id = ?", *f.OrganizationID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

// transition performs a compare-and-set status update: the row is only
// written when its current status is one of from. A lost race surfaces as
// ErrStatusConflict, a missing row as ErrTransactionNotFound.
func (r *TransactionRepository) transition(ctx context.Context, id string, from []model.TransactionStatus, to model.TransactionStatus, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = string(to)

	fromStates := make([]string, 0, len(from))
	for _, f := range from {
		fromStates = append(fromStates, string(f))
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND status IN ?", id, fromStates).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// distinguish a missing row from a lost race
		var count int64
		if err := r.Write(ctx).WithContext(ctx).
			Model(&TransactionEntity{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTransactionNotFound
		}
		return ErrStatusConflict
	}

	return nil
}

// SubmitForApproval routes a created (or scanned) invoice into the
// approval queue. Only one submitter wins; a second submit sees
// ErrStatusConflict.
func (r *TransactionRepository) SubmitForApproval(ctx context.Context, id, agentID, organizationID, department string) error {
	return r.transition(ctx, id, []model.TransactionStatus{model.StatusCreated, model.StatusScanned}, model.StatusPendingApproval, map[string]interface{}{
		"agent_id":        agentID,
		"organization_id": organizationID,
		"department":      department,
	})
}

// BeginPayment claims a pending transaction for payment. The conditional
// write is what serializes two concurrent approvers.
func (r *TransactionRepository) BeginPayment(ctx context.Context, id, adminID string) error {
	return r.transition(ctx, id, []model.TransactionStatus{model.StatusPendingApproval}, model.StatusPaymentInProgress, map[string]interface{}{
		"admin_id": adminID,
	})
}

// SetReference records the provider reference once a transfer is queued.
func (r *TransactionRepository) SetReference(ctx context.Context, id, reference string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND status = ?", id, string(model.StatusPaymentInProgress)).
		Update("paystack_reference", reference)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *TransactionRepository) MarkRejected(ctx context.Context, id, adminID, reason string) error {
	return r.transition(ctx, id, []model.TransactionStatus{model.StatusPendingApproval}, model.StatusRejected, map[string]interface{}{
		"admin_id":         adminID,
		"rejection_reason": reason,
	})
}

func (r *TransactionRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	return r.transition(ctx, id, []model.TransactionStatus{model.StatusPaymentInProgress}, model.StatusPaid, map[string]interface{}{
		"paid_at":       paidAt,
		"payment_error": "",
	})
}

func (r *TransactionRepository) MarkPaymentFailed(ctx context.Context, id, reason string) error {
	return r.transition(ctx, id, []model.TransactionStatus{model.StatusPaymentInProgress}, model.StatusPaymentFailed, map[string]interface{}{
		"payment_error": reason,
	})
}
