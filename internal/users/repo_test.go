package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/dbtest"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

func TestBlockIsMonotonic(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Role: enums.UserRoleBuyer})
	require.NoError(t, err)

	first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	changed, err := repo.Block(ctx, user.ID, "too many return requests", first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Block(ctx, user.ID, "again", first.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	dto := FromModel(stored)
	assert.True(t, dto.Blocked)
	require.NotNil(t, dto.BlockedAt)
	assert.True(t, dto.BlockedAt.Equal(first))
	require.NotNil(t, dto.BlockedReason)
	assert.Equal(t, "too many return requests", *dto.BlockedReason)
}

func TestListIDsByRoleSkipsBlocked(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	admin, err := repo.Create(ctx, CreateUserDTO{Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	blocked, err := repo.Create(ctx, CreateUserDTO{Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Role: enums.UserRoleSeller})
	require.NoError(t, err)
	_, err = repo.Block(ctx, blocked.ID, "test", time.Now().UTC())
	require.NoError(t, err)

	ids, err := repo.ListIDsByRole(ctx, enums.UserRoleAdmin)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, admin.ID, ids[0])
}
