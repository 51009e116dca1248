package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5panel/internal/apperr"
	"mt5panel/internal/models"
)

func TestRegisterDefaultsToUnapprovedUser(t *testing.T) {
	s := NewUsers(openTestDB(t))
	u, err := s.Register(context.Background(), "  Trader@Example.COM ", "Trader", "hash")
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.False(t, u.IsApproved)
	assert.True(t, u.IsActive)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := NewUsers(openTestDB(t))
	ctx := context.Background()
	_, err := s.Register(ctx, "a@example.com", "A", "hash")
	require.NoError(t, err)
	_, err = s.Register(ctx, "a@example.com", "A again", "hash")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestApproveAndSetActive(t *testing.T) {
	s := NewUsers(openTestDB(t))
	ctx := context.Background()

	u, err := s.Register(ctx, "a@example.com", "A", "hash")
	require.NoError(t, err)

	require.NoError(t, s.Approve(ctx, u.ID))
	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	require.NoError(t, s.SetActive(ctx, u.ID, false))
	got, err = s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestApproveUnknownUser(t *testing.T) {
	s := NewUsers(openTestDB(t))
	err := s.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuditRecordAndRecent(t *testing.T) {
	db := openTestDB(t)
	audit := NewAudit(db)
	ctx := context.Background()

	target := "u2"
	require.NoError(t, audit.Record(ctx, "a1", &target, "approve", "user approved"))
	require.NoError(t, audit.Record(ctx, "a1", nil, "assign", "bot 100 assigned"))

	logs, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a1", logs[0].ActorID)
}
