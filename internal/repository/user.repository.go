package repository

import (
	"context"
	"errors"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user profile does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrApprovalConflict is returned when an approval decision raced a
	// previous one; only the first decision on a PENDING profile wins.
	ErrApprovalConflict = errors.New("user approval status conflict")
)

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error) {
	entity := toUserEntity(u)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toUserModel(entity), nil
}

func (r *UserRepository) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("uid = ?", uid).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("email = ?", email).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

// SetApprovalStatus applies an admin's approve/reject decision. The write
// is conditional on the profile still being PENDING.
func (r *UserRepository) SetApprovalStatus(ctx context.Context, uid string, status model.ApprovalStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&UserEntity{}).
		Where("uid = ? AND approval_status = ?", uid, string(model.ApprovalPending)).
		Update("approval_status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.Write(ctx).WithContext(ctx).
			Model(&UserEntity{}).
			Where("uid = ?", uid).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrApprovalConflict
	}
	return nil
}

func (r *UserRepository) SetKYCStatus(ctx context.Context, uid string, status model.KYCStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&UserEntity{}).
		Where("uid = ?", uid).
		Update("kyc_status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRecipientCode records the payout destination provisioned for a
// vendor by the onboarding process.
func (r *UserRepository) SetRecipientCode(ctx context.Context, uid, code string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&UserEntity{}).
		Where("uid = ?", uid).
		Update("recipient_code", code)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListPendingStaff returns staff profiles awaiting an approval decision,
// scoped to the admin they are linked to.
func (r *UserRepository) ListPendingStaff(ctx context.Context, linkedAdminID string) ([]*model.UserProfile, error) {
	var entities []*UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("linked_admin_id = ? AND approval_status = ?", linkedAdminID, string(model.ApprovalPending)).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toUserModels(entities), nil
}
