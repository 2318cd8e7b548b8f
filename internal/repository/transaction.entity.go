package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirapay/shirapay/internal/model"
	"gorm.io/gorm"
)

type TransactionEntity struct {
	ID          string `db:"id"          gorm:"primaryKey;column:id"`
	Amount      int64  `db:"amount"      gorm:"column:amount;not null"`
	Description string `db:"description" gorm:"column:description;not null"`
	Status      string `db:"status"      gorm:"column:status;not null;index"`

	VendorID    string `db:"vendor_id"    gorm:"column:vendor_id;not null;index"`
	VendorName  string `db:"vendor_name"  gorm:"column:vendor_name"`
	VendorEmail string `db:"vendor_email" gorm:"column:vendor_email"`

	AgentID        string `db:"agent_id"        gorm:"column:agent_id;index"`
	AdminID        string `db:"admin_id"        gorm:"column:admin_id"`
	OrganizationID string `db:"organization_id" gorm:"column:organization_id;index"`
	Department     string `db:"department"      gorm:"column:department"`

	// uniqueness is enforced by a partial index in the migration; a plain
	// unique index would collide on the empty string before initiation
	PaystackReference string `db:"paystack_reference" gorm:"column:paystack_reference;index"`

	RejectionReason string `db:"rejection_reason" gorm:"column:rejection_reason"`
	PaymentError    string `db:"payment_error"    gorm:"column:payment_error"`

	CreatedAt time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	PaidAt    *time.Time `db:"paid_at"    gorm:"column:paid_at"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func (e *TransactionEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toTransactionEntity(t *model.Transaction) *TransactionEntity {
	if t == nil {
		return nil
	}
	return &TransactionEntity{
		ID:                t.ID,
		Amount:            t.Amount,
		Description:       t.Description,
		Status:            string(t.Status),
		VendorID:          t.VendorID,
		VendorName:        t.VendorName,
		VendorEmail:       t.VendorEmail,
		AgentID:           t.AgentID,
		AdminID:           t.AdminID,
		OrganizationID:    t.OrganizationID,
		Department:        t.Department,
		PaystackReference: t.PaystackReference,
		RejectionReason:   t.RejectionReason,
		PaymentError:      t.PaymentError,
		CreatedAt:         t.CreatedAt,
		PaidAt:            t.PaidAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:                e.ID,
		Amount:            e.Amount,
		Description:       e.Description,
		Status:            model.TransactionStatus(e.Status),
		VendorID:          e.VendorID,
		VendorName:        e.VendorName,
		VendorEmail:       e.VendorEmail,
		AgentID:           e.AgentID,
		AdminID:           e.AdminID,
		OrganizationID:    e.OrganizationID,
		Department:        e.Department,
		PaystackReference: e.PaystackReference,
		RejectionReason:   e.RejectionReason,
		PaymentError:      e.PaymentError,
		CreatedAt:         e.CreatedAt,
		PaidAt:            e.PaidAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
