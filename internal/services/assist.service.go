package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shirapay/shirapay/internal/repository"
	"github.com/shirapay/shirapay/pkg/logger"
)

// Suggester produces a department suggestion for an invoice. The concrete
// implementation calls a hosted model; tests inject a stub.
type Suggester interface {
	SuggestDepartment(ctx context.Context, vendor, description string) (department, reason string, err error)
}

// Enhancer expands a brief invoice description into a fuller one.
type Enhancer interface {
	EnhanceDescription(ctx context.Context, brief string) (string, error)
}

type AssistService struct {
	suggester Suggester
	enhancer  Enhancer
	orgRepo   OrganizationReader
}

func NewAssistService(suggester Suggester, enhancer Enhancer, orgRepo OrganizationReader) *AssistService {
	return &AssistService{suggester: suggester, enhancer: enhancer, orgRepo: orgRepo}
}

// Suggestion is advisory output. The agent can always override it; it never
// feeds the transition path directly.
type Suggestion struct {
	Department string `json:"department"`
	Reason     string `json:"reason"`
	Confident  bool   `json:"confident"`
}

// SuggestDepartment asks the model for a department and validates the
// answer against the organization's configured vocabulary. A suggestion
// outside the vocabulary is returned with Confident=false rather than
// silently dropped.
func (s *AssistService) SuggestDepartment(ctx context.Context, organizationID, vendor, description string) (*Suggestion, error) {
	if s.suggester == nil {
		return nil, errors.New("suggester is not configured")
	}

	org, err := s.orgRepo.Get(ctx, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dept, reason, err := s.suggester.SuggestDepartment(ctx, vendor, description)
	if err != nil {
		return nil, err
	}
	dept = strings.TrimSpace(dept)

	suggestion := &Suggestion{
		Department: dept,
		Reason:     reason,
		Confident:  org.HasDepartment(dept),
	}
	if !suggestion.Confident {
		logger.Warn("suggested department is outside the organization vocabulary",
			"organization_id", organizationID, "department", dept)
	}
	return suggestion, nil
}

func (s *AssistService) EnhanceDescription(ctx context.Context, brief string) (string, error) {
	if s.enhancer == nil {
		return "", errors.New("enhancer is not configured")
	}
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return "", errors.New("description is required")
	}
	return s.enhancer.EnhanceDescription(ctx, brief)
}
