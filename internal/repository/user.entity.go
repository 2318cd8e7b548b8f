package repository

import (
	"time"

	"github.com/shirapay/shirapay/internal/model"
)

type UserEntity struct {
	UID            string    `db:"uid"             gorm:"primaryKey;column:uid"`
	Name           string    `db:"name"            gorm:"column:name;not null"`
	Email          string    `db:"email"           gorm:"column:email;not null;uniqueIndex"`
	Role           string    `db:"role"            gorm:"column:role;not null"`
	OrganizationID string    `db:"organization_id" gorm:"column:organization_id;index"`
	LinkedAdminID  string    `db:"linked_admin_id" gorm:"column:linked_admin_id;index"`
	ApprovalStatus string    `db:"approval_status" gorm:"column:approval_status;not null"`
	KYCStatus      string    `db:"kyc_status"      gorm:"column:kyc_status;not null"`
	RecipientCode  string    `db:"recipient_code"  gorm:"column:recipient_code"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(u *model.UserProfile) *UserEntity {
	if u == nil {
		return nil
	}
	return &UserEntity{
		UID:            u.UID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID,
		LinkedAdminID:  u.LinkedAdminID,
		ApprovalStatus: string(u.ApprovalStatus),
		KYCStatus:      string(u.KYCStatus),
		RecipientCode:  u.RecipientCode,
		CreatedAt:      u.CreatedAt,
	}
}

func toUserModel(e *UserEntity) *model.UserProfile {
	if e == nil {
		return nil
	}
	return &model.UserProfile{
		UID:            e.UID,
		Name:           e.Name,
		Email:          e.Email,
		Role:           model.Role(e.Role),
		OrganizationID: e.OrganizationID,
		LinkedAdminID:  e.LinkedAdminID,
		ApprovalStatus: model.ApprovalStatus(e.ApprovalStatus),
		KYCStatus:      model.KYCStatus(e.KYCStatus),
		RecipientCode:  e.RecipientCode,
		CreatedAt:      e.CreatedAt,
	}
}

func toUserModels(entities []*UserEntity) []*model.UserProfile {
	if entities == nil {
		return nil
	}
	models := make([]*model.UserProfile, len(entities))
	for i, e := range entities {
		models[i] = toUserModel(e)
	}
	return models
}
