package model

import (
	"errors"
	"time"
)

// TransactionStatus is the lifecycle state of an invoice transaction.
type TransactionStatus string

const (
	StatusCreated           TransactionStatus = "CREATED"
	StatusScanned           TransactionStatus = "SCANNED"
	StatusPendingApproval   TransactionStatus = "PENDING_APPROVAL"
	StatusPaymentInProgress TransactionStatus = "PAYMENT_IN_PROGRESS"
	StatusPaid              TransactionStatus = "PAID"
	StatusPaymentFailed     TransactionStatus = "PAYMENT_FAILED"
	StatusRejected          TransactionStatus = "REJECTED"
)

// transitions is the full set of legal status moves. Anything not listed
// here is an invalid transition regardless of who asks for it.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusCreated:           {StatusScanned, StatusPendingApproval},
	StatusScanned:           {StatusPendingApproval},
	StatusPendingApproval:   {StatusPaymentInProgress, StatusRejected},
	StatusPaymentInProgress: {StatusPaid, StatusPaymentFailed},
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusScanned, StatusPendingApproval,
		StatusPaymentInProgress, StatusPaid, StatusPaymentFailed, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is defined from s.
func (s TransactionStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type Transaction struct {
	ID          string            `json:"id"`
	Amount      int64             `json:"amount"` // major units; converted to minor units at the provider boundary
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`

	VendorID    string `json:"vendor_id"`
	VendorName  string `json:"vendor_name,omitempty"`
	VendorEmail string `json:"vendor_email,omitempty"`

	AgentID        string `json:"agent_id,omitempty"`
	AdminID        string `json:"admin_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	Department     string `json:"department,omitempty"`

	PaystackReference string `json:"paystack_reference,omitempty"`

	RejectionReason string `json:"rejection_reason,omitempty"`
	PaymentError    string `json:"payment_error,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// TransactionCreateRequest is the input for a vendor creating an invoice.
type TransactionCreateRequest struct {
	Amount      int64
	Description string
	VendorID    string
	VendorName  string
	VendorEmail string
}

func (p TransactionCreateRequest) Validate() error {
	if p.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	if p.VendorID == "" {
		return errors.New("vendor_id is required")
	}
	return nil
}

// SubmitRequest is the input for an agent routing an invoice for approval.
type SubmitRequest struct {
	TransactionID  string
	AgentID        string
	OrganizationID string
	Department     string
}

func (p SubmitRequest) Validate() error {
	if p.TransactionID == "" {
		return errors.New("transaction_id is required")
	}
	if p.AgentID == "" {
		return errors.New("agent_id is required")
	}
	if p.OrganizationID == "" {
		return errors.New("organization_id is required")
	}
	if p.Department == "" {
		return errors.New("department is required")
	}
	return nil
}

// TransactionFilter controls List queries.
type TransactionFilter struct {
	VendorID       *string
	AgentID        *string
	OrganizationID *string
	Statuses       []TransactionStatus
	From           *time.Time
	To             *time.Time
	Limit          int  // default 50
	Offset         int  // for pagination
	Desc           bool // order by created_at
}
