package services

import (
	"context"
	"testing"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSuggester struct {
	department string
	reason     string
	err        error
}

func (s *stubSuggester) SuggestDepartment(ctx context.Context, vendor, description string) (string, string, error) {
	return s.department, s.reason, s.err
}

type stubEnhancer struct {
	out string
	err error
}

func (s *stubEnhancer) EnhanceDescription(ctx context.Context, brief string) (string, error) {
	return s.out, s.err
}

func TestAssistService_SuggestDepartment(t *testing.T) {
	orgRepo := new(MockOrgReader)
	ctx := context.Background()

	orgRepo.On("Get", ctx, "org-1").Return(&model.Organization{
		ID:          "org-1",
		Departments: []string{"Office Management", "IT/Hardware"},
	}, nil)

	t.Run("suggestion inside the vocabulary", func(t *testing.T) {
		svc := NewAssistService(&stubSuggester{department: "IT/Hardware", reason: "hardware vendor"}, nil, orgRepo)

		got, err := svc.SuggestDepartment(ctx, "org-1", "Staples Inc.", "laptop chargers")
		require.NoError(t, err)
		assert.Equal(t, "IT/Hardware", got.Department)
		assert.True(t, got.Confident)
	})

	t.Run("suggestion outside the vocabulary is flagged", func(t *testing.T) {
		svc := NewAssistService(&stubSuggester{department: "Legal"}, nil, orgRepo)

		got, err := svc.SuggestDepartment(ctx, "org-1", "Staples Inc.", "contract review")
		require.NoError(t, err)
		assert.Equal(t, "Legal", got.Department)
		assert.False(t, got.Confident)
	})

	t.Run("model failure propagates", func(t *testing.T) {
		svc := NewAssistService(&stubSuggester{err: assert.AnError}, nil, orgRepo)

		_, err := svc.SuggestDepartment(ctx, "org-1", "Staples Inc.", "anything")
		assert.Error(t, err)
	})
}

func TestAssistService_EnhanceDescription(t *testing.T) {
	svc := NewAssistService(nil, &stubEnhancer{out: "Bulk order of A4 printer paper for the office"}, nil)

	got, err := svc.EnhanceDescription(context.Background(), "printer paper")
	require.NoError(t, err)
	assert.Contains(t, got, "printer paper")

	_, err = svc.EnhanceDescription(context.Background(), "   ")
	assert.Error(t, err)
}
