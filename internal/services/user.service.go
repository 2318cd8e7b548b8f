package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/internal/repository"
	"github.com/shirapay/shirapay/pkg/logger"
)

var (
	ErrEmailTaken       = errors.New("email is already registered")
	ErrDecisionConflict = errors.New("approval decision already made")
)

type UserRepository interface {
	Create(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error)
	Get(ctx context.Context, uid string) (*model.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	SetApprovalStatus(ctx context.Context, uid string, status model.ApprovalStatus) error
	SetKYCStatus(ctx context.Context, uid string, status model.KYCStatus) error
	SetRecipientCode(ctx context.Context, uid, code string) error
	ListPendingStaff(ctx context.Context, linkedAdminID string) ([]*model.UserProfile, error)
}

type UserService struct {
	userRepo UserRepository
}

func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// SignUp registers a profile. Staff roles start PENDING and stay inert
// until their linked admin approves them; admin roles are active at once.
func (s *UserService) SignUp(ctx context.Context, p model.UserCreateRequest) (*model.UserProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	role, err := model.ParseRole(p.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, p.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	approval := model.ApprovalVerified
	if role.Staff() {
		approval = model.ApprovalPending
	}

	profile := &model.UserProfile{
		UID:            p.UID,
		Name:           p.Name,
		Email:          p.Email,
		Role:           role,
		OrganizationID: p.OrganizationID,
		LinkedAdminID:  p.LinkedAdminID,
		ApprovalStatus: approval,
		KYCStatus:      model.KYCNone,
	}

	created, err := s.userRepo.Create(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user registered", "uid", created.UID, "role", created.Role, "approval", created.ApprovalStatus)
	return created, nil
}

func (s *UserService) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	u, err := s.userRepo.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) ApproveStaff(ctx context.Context, uid string) error {
	return s.decide(ctx, uid, model.ApprovalVerified)
}

func (s *UserService) RejectStaff(ctx context.Context, uid string) error {
	return s.decide(ctx, uid, model.ApprovalRejected)
}

func (s *UserService) decide(ctx context.Context, uid string, status model.ApprovalStatus) error {
	err := s.userRepo.SetApprovalStatus(ctx, uid, status)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrApprovalConflict):
		return ErrDecisionConflict
	}
	return err
}

func (s *UserService) ListPendingStaff(ctx context.Context, linkedAdminID string) ([]*model.UserProfile, error) {
	return s.userRepo.ListPendingStaff(ctx, linkedAdminID)
}

func (s *UserService) UpdateKYC(ctx context.Context, uid string, status model.KYCStatus) error {
	err := s.userRepo.SetKYCStatus(ctx, uid, status)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrNotFound
	}
	return err
}

// SetRecipientCode stores the payout destination provisioned for a vendor.
func (s *UserService) SetRecipientCode(ctx context.Context, uid, code string) error {
	if code == "" {
		return errors.New("recipient code is required")
	}
	err := s.userRepo.SetRecipientCode(ctx, uid, code)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrNotFound
	}
	return err
}
