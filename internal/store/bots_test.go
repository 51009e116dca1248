package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5panel/internal/apperr"
	"mt5panel/internal/models"
)

func validBot(magic int64) BotCreate {
	return BotCreate{
		MagicNumber:       magic,
		EAName:            "Gold Scalper",
		Symbol:            "XAUUSD",
		Timeframe:         "M15",
		LotSize:           0.1,
		StopLoss:          50,
		TakeProfit:        100,
		MaxTrades:         3,
		TradingHoursStart: 8,
		TradingHoursEnd:   20,
		RiskPercent:       2,
	}
}

func TestCreateBotDefaultsEnabled(t *testing.T) {
	s := NewBots(openTestDB(t))
	rec, err := s.Create(context.Background(), "u1", validBot(100))
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.EqualValues(t, 100, rec.MagicNumber)
}

func TestCreateBotRejectsDuplicateMagicNumber(t *testing.T) {
	s := NewBots(openTestDB(t))
	ctx := context.Background()

	first, err := s.Create(ctx, "u1", validBot(555))
	require.NoError(t, err)

	_, err = s.Create(ctx, "u2", validBot(555))
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	// the original record is untouched
	got, err := s.Get(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "u1", got.UserID)
}

func TestCreateBotValidatesRanges(t *testing.T) {
	s := NewBots(openTestDB(t))
	ctx := context.Background()

	cases := []func(*BotCreate){
		func(b *BotCreate) { b.LotSize = 0 },
		func(b *BotCreate) { b.LotSize = -0.1 },
		func(b *BotCreate) { b.StopLoss = -1 },
		func(b *BotCreate) { b.TakeProfit = -1 },
		func(b *BotCreate) { b.MaxTrades = 0 },
		func(b *BotCreate) { b.TradingHoursStart = -1 },
		func(b *BotCreate) { b.TradingHoursStart = 24 },
		func(b *BotCreate) { b.TradingHoursEnd = 25 },
		func(b *BotCreate) { b.RiskPercent = -1 },
		func(b *BotCreate) { b.RiskPercent = 101 },
		func(b *BotCreate) { b.MagicNumber = 0 },
		func(b *BotCreate) { b.EAName = "" },
	}
	for i, mutate := range cases {
		in := validBot(int64(1000 + i))
		mutate(&in)
		_, err := s.Create(ctx, "u1", in)
		assert.ErrorIs(t, err, apperr.ErrValidation, "case %d", i)
	}
}

func TestListByOwnerNewestFirst(t *testing.T) {
	db := openTestDB(t)
	s := NewBots(db)
	ctx := context.Background()

	for _, magic := range []int64{1, 2, 3} {
		_, err := s.Create(ctx, "u1", validBot(magic))
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, "u2", validBot(99))
	require.NoError(t, err)

	// force a stable order regardless of clock resolution
	require.NoError(t, db.Exec("UPDATE bot_configurations SET created_at = datetime('now', '-' || (10 - magic_number) || ' minutes')").Error)

	recs, err := s.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.EqualValues(t, 3, recs[0].MagicNumber)
	assert.EqualValues(t, 2, recs[1].MagicNumber)
	assert.EqualValues(t, 1, recs[2].MagicNumber)
}

func TestUpdateBotPartialFields(t *testing.T) {
	s := NewBots(openTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", validBot(100))
	require.NoError(t, err)

	lot := 0.5
	rec, err := s.Update(ctx, 100, asUser("u1"), BotUpdate{LotSize: &lot})
	require.NoError(t, err)
	assert.Equal(t, 0.5, rec.LotSize)
	// untouched fields keep their values
	assert.Equal(t, "Gold Scalper", rec.EAName)
	assert.Equal(t, 3, rec.MaxTrades)
	assert.Equal(t, float64(2), rec.RiskPercent)
}

func TestUpdateBotRevalidatesChangedFields(t *testing.T) {
	s := NewBots(openTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", validBot(100))
	require.NoError(t, err)

	bad := -5.0
	_, err = s.Update(ctx, 100, asUser("u1"), BotUpdate{LotSize: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	hours := 24
	_, err = s.Update(ctx, 100, asUser("u1"), BotUpdate{TradingHoursEnd: &hours})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCrossTenantUpdateAndDeleteAreNotFound(t *testing.T) {
	db := openTestDB(t)
	s := NewBots(db)
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", validBot(100))
	require.NoError(t, err)

	lot := 1.0
	_, err = s.Update(ctx, 100, asUser("u2"), BotUpdate{LotSize: &lot})
	assert.ErrorIs(t, err, apperr.ErrNotFound, "non-owner update must look like a missing record")

	err = s.Delete(ctx, 100, asUser("u2"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// record unchanged and still absent from the other user's listing
	got, err := s.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.LotSize)

	recs, err := s.ListByOwner(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSuperadminCanMutateAnyBot(t *testing.T) {
	s := NewBots(openTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", validBot(100))
	require.NoError(t, err)

	require.NoError(t, s.SetEnabled(ctx, 100, asSuperadmin("a1"), false))
	rec, err := s.Get(ctx, 100)
	require.NoError(t, err)
	assert.False(t, rec.Enabled)
}

func TestSetEnabledToggle(t *testing.T) {
	s := NewBots(openTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", validBot(100))
	require.NoError(t, err)

	require.NoError(t, s.SetEnabled(ctx, 100, asUser("u1"), false))
	rec, _ := s.Get(ctx, 100)
	assert.False(t, rec.Enabled)

	require.NoError(t, s.SetEnabled(ctx, 100, asUser("u1"), true))
	rec, _ = s.Get(ctx, 100)
	assert.True(t, rec.Enabled)
}

func TestDeleteBotCascadesAssignments(t *testing.T) {
	db := openTestDB(t)
	bots := NewBots(db)
	assignments := NewAssignments(db)
	ctx := context.Background()

	_, err := bots.Create(ctx, "u1", validBot(100))
	require.NoError(t, err)
	_, err = assignments.Assign(ctx, "u2", 100, asSuperadmin("a1"))
	require.NoError(t, err)

	require.NoError(t, bots.Delete(ctx, 100, asUser("u1")))

	var count int64
	db.Model(&models.Assignment{}).Where("magic_number = ?", 100).Count(&count)
	assert.EqualValues(t, 0, count, "assignments must not dangle on a deleted bot")
}

func TestUpdateMissingBotIsNotFound(t *testing.T) {
	s := NewBots(openTestDB(t))
	lot := 1.0
	_, err := s.Update(context.Background(), 404, asUser("u1"), BotUpdate{LotSize: &lot})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
