package model

import (
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of user roles. Dispatch on it exhaustively;
// ParseRole is the only way a string becomes a Role.
type Role string

const (
	RoleOrgAdmin    Role = "org_admin"
	RoleAgentStaff  Role = "agent_staff"
	RoleVendorAdmin Role = "vendor_admin"
	RoleVendorStaff Role = "vendor_staff"
	RoleSuperAdmin  Role = "super_admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOrgAdmin, RoleAgentStaff, RoleVendorAdmin, RoleVendorStaff, RoleSuperAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Staff reports whether the role requires admin approval before the
// account becomes active.
func (r Role) Staff() bool {
	return r == RoleAgentStaff || r == RoleVendorStaff
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalVerified ApprovalStatus = "VERIFIED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

type KYCStatus string

const (
	KYCNone     KYCStatus = "NONE"
	KYCPending  KYCStatus = "PENDING"
	KYCVerified KYCStatus = "VERIFIED"
	KYCRejected KYCStatus = "REJECTED"
)

type UserProfile struct {
	UID            string         `json:"uid"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Role           Role           `json:"role"`
	OrganizationID string         `json:"organization_id,omitempty"`
	LinkedAdminID  string         `json:"linked_admin_id,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	KYCStatus      KYCStatus      `json:"kyc_status"`

	// RecipientCode is the payout destination assigned by the payment
	// provider during vendor onboarding. Empty until provisioned.
	RecipientCode string `json:"recipient_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type UserCreateRequest struct {
	UID            string
	Name           string
	Email          string
	Role           string
	OrganizationID string
	LinkedAdminID  string
}

func (p UserCreateRequest) Validate() error {
	if p.UID == "" {
		return errors.New("uid is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Email == "" {
		return errors.New("email is required")
	}
	if _, err := ParseRole(p.Role); err != nil {
		return err
	}
	return nil
}
