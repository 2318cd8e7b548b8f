package repository

import (
	"context"
	"errors"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrOrganizationNotFound is returned when an organization does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")
)

type OrganizationRepository struct {
	*pg.DB
}

func NewOrganizationRepository(db *pg.DB) *OrganizationRepository {
	return &OrganizationRepository{
		db,
	}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	entity := toOrganizationEntity(org)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrganizationModel(entity), nil
}

func (r *OrganizationRepository) Get(ctx context.Context, id string) (*model.Organization, error) {
	var entity OrganizationEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return toOrganizationModel(&entity), nil
}

// AddAdmin appends an admin uid to the organization's admin list.
func (r *OrganizationRepository) AddAdmin(ctx context.Context, id, adminID string) error {
	var entity OrganizationEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return err
	}

	for _, a := range entity.AdminIDs {
		if a == adminID {
			return nil
		}
	}
	entity.AdminIDs = append(entity.AdminIDs, adminID)

	return r.Write(ctx).WithContext(ctx).
		Model(&OrganizationEntity{}).
		Where("id = ?", id).
		Update("admin_ids", entity.AdminIDs).
		Error
}
