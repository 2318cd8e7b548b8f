package repository

import (
	"context"
	"testing"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewOrganizationRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Organization{
		Name:         "Acme Corp",
		ContactEmail: "ops@acme.example",
		Departments:  []string{"Office Management", "IT/Hardware"},
		AdminIDs:     []string{"admin-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, []string{"Office Management", "IT/Hardware"}, got.Departments)
	assert.True(t, got.HasDepartment("Office Management"))
	assert.False(t, got.HasDepartment("Legal"))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestOrganizationRepository_AddAdmin(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewOrganizationRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Organization{
		Name:        "Acme Corp",
		Departments: []string{"Office Management"},
		AdminIDs:    []string{"admin-1"},
	})
	require.NoError(t, err)

	require.NoError(t, repo.AddAdmin(ctx, created.ID, "admin-2"))
	// adding the same admin twice is a no-op
	require.NoError(t, repo.AddAdmin(ctx, created.ID, "admin-2"))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin-1", "admin-2"}, got.AdminIDs)

	err = repo.AddAdmin(ctx, "missing", "admin-3")
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}
