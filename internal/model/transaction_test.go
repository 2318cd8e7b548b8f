package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to TransactionStatus
		ok       bool
	}{
		{StatusCreated, StatusPendingApproval, true},
		{StatusCreated, StatusScanned, true},
		{StatusScanned, StatusPendingApproval, true},
		{StatusPendingApproval, StatusPaymentInProgress, true},
		{StatusPendingApproval, StatusRejected, true},
		{StatusPaymentInProgress, StatusPaid, true},
		{StatusPaymentInProgress, StatusPaymentFailed, true},

		{StatusCreated, StatusPaid, false},
		{StatusCreated, StatusRejected, false},
		{StatusPendingApproval, StatusPaid, false},
		{StatusPaid, StatusPaymentFailed, false},
		{StatusPaid, StatusPaid, false},
		{StatusRejected, StatusPendingApproval, false},
		{StatusPaymentFailed, StatusPaymentInProgress, false},
	}

	for _, c := range cases {
		assert.Equalf(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransactionStatus_Terminal(t *testing.T) {
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusPaymentFailed.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPendingApproval.Terminal())
	assert.False(t, StatusPaymentInProgress.Terminal())
}

func TestTransactionCreateRequest_Validate(t *testing.T) {
	valid := TransactionCreateRequest{Amount: 5000, Description: "Printer paper", VendorID: "vendor-1"}
	assert.NoError(t, valid.Validate())

	negative := valid
	negative.Amount = -5
	assert.Error(t, negative.Validate())

	zero := valid
	zero.Amount = 0
	assert.Error(t, zero.Validate())

	noDesc := valid
	noDesc.Description = ""
	assert.Error(t, noDesc.Validate())

	noVendor := valid
	noVendor.VendorID = ""
	assert.Error(t, noVendor.Validate())
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"org_admin", "agent_staff", "vendor_admin", "vendor_staff", "super_admin"} {
		r, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}

	_, err := ParseRole("admin")
	assert.Error(t, err)
}
