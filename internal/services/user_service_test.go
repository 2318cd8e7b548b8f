package services

import (
	"context"
	"testing"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserRepo) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserRepo) SetApprovalStatus(ctx context.Context, uid string, status model.ApprovalStatus) error {
	args := m.Called(ctx, uid, status)
	return args.Error(0)
}

func (m *MockUserRepo) SetKYCStatus(ctx context.Context, uid string, status model.KYCStatus) error {
	args := m.Called(ctx, uid, status)
	return args.Error(0)
}

func (m *MockUserRepo) SetRecipientCode(ctx context.Context, uid, code string) error {
	args := m.Called(ctx, uid, code)
	return args.Error(0)
}

func (m *MockUserRepo) ListPendingStaff(ctx context.Context, linkedAdminID string) ([]*model.UserProfile, error) {
	args := m.Called(ctx, linkedAdminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserProfile), args.Error(1)
}

func TestUserService_SignUp_StaffStartsPending(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "bob@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u *model.UserProfile) bool {
		return u.ApprovalStatus == model.ApprovalPending && u.KYCStatus == model.KYCNone
	})).Return(&model.UserProfile{UID: "agent-1", ApprovalStatus: model.ApprovalPending}, nil)

	created, err := svc.SignUp(ctx, model.UserCreateRequest{
		UID:           "agent-1",
		Name:          "Bob Agent",
		Email:         "bob@example.com",
		Role:          "agent_staff",
		LinkedAdminID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, created.ApprovalStatus)

	repo.AssertExpectations(t)
}

func TestUserService_SignUp_AdminIsActiveImmediately(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u *model.UserProfile) bool {
		return u.ApprovalStatus == model.ApprovalVerified
	})).Return(&model.UserProfile{UID: "admin-1", ApprovalStatus: model.ApprovalVerified}, nil)

	_, err := svc.SignUp(ctx, model.UserCreateRequest{
		UID:   "admin-1",
		Name:  "Alice Admin",
		Email: "alice@example.com",
		Role:  "org_admin",
	})
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestUserService_SignUp_Rejections(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, model.UserCreateRequest{
		UID: "u-1", Name: "X", Email: "x@example.com", Role: "superuser",
	})
	assert.Error(t, err)

	repo.On("GetByEmail", ctx, "taken@example.com").Return(&model.UserProfile{UID: "other"}, nil)
	_, err = svc.SignUp(ctx, model.UserCreateRequest{
		UID: "u-2", Name: "Y", Email: "taken@example.com", Role: "org_admin",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_ApproveStaff(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("SetApprovalStatus", ctx, "agent-1", model.ApprovalVerified).Return(nil)
	require.NoError(t, svc.ApproveStaff(ctx, "agent-1"))

	repo.On("SetApprovalStatus", ctx, "agent-2", model.ApprovalVerified).
		Return(repository.ErrApprovalConflict)
	assert.ErrorIs(t, svc.ApproveStaff(ctx, "agent-2"), ErrDecisionConflict)

	repo.On("SetApprovalStatus", ctx, "missing", model.ApprovalVerified).
		Return(repository.ErrUserNotFound)
	assert.ErrorIs(t, svc.ApproveStaff(ctx, "missing"), ErrNotFound)
}

func TestUserService_UpdateKYC(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("SetKYCStatus", ctx, "vendor-1", model.KYCVerified).Return(nil)
	require.NoError(t, svc.UpdateKYC(ctx, "vendor-1", model.KYCVerified))
}

func TestUserService_SetRecipientCode(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	assert.Error(t, svc.SetRecipientCode(ctx, "vendor-1", ""))

	repo.On("SetRecipientCode", ctx, "vendor-1", "RCP_8z23kx").Return(nil)
	require.NoError(t, svc.SetRecipientCode(ctx, "vendor-1", "RCP_8z23kx"))
}
