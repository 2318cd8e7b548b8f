package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/internal/repository"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)
	Get(ctx context.Context, id string) (*model.Organization, error)
	AddAdmin(ctx context.Context, id, adminID string) error
}

type OrganizationService struct {
	orgRepo OrganizationRepository
}

func NewOrganizationService(orgRepo OrganizationRepository) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo}
}

func (s *OrganizationService) Create(ctx context.Context, p model.OrganizationCreateRequest) (*model.Organization, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	org := &model.Organization{
		Name:         p.Name,
		ContactEmail: p.ContactEmail,
		Departments:  p.Departments,
		AdminIDs:     []string{p.AdminID},
	}

	created, err := s.orgRepo.Create(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return created, nil
}

func (s *OrganizationService) Get(ctx context.Context, id string) (*model.Organization, error) {
	org, err := s.orgRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) AddAdmin(ctx context.Context, id, adminID string) error {
	err := s.orgRepo.AddAdmin(ctx, id, adminID)
	if errors.Is(err, repository.ErrOrganizationNotFound) {
		return ErrNotFound
	}
	return err
}
