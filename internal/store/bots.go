package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mt5panel/internal/apperr"
	"mt5panel/internal/authz"
	"mt5panel/internal/models"
)

// Bots is the EA configuration store. Ownership is re-checked here even
// though handlers call the authorization gate first, so a missing gate
// call upstream can never silently escalate into a cross-tenant write.
type Bots struct {
	db *gorm.DB
}

func NewBots(db *gorm.DB) *Bots {
	return &Bots{db: db}
}

// BotCreate carries the fields for a new configuration. Enabled defaults
// to true when left nil.
type BotCreate struct {
	MagicNumber       int64
	EAName            string
	Symbol            string
	Timeframe         string
	LotSize           float64
	StopLoss          float64
	TakeProfit        float64
	MaxTrades         int
	TradingHoursStart int
	TradingHoursEnd   int
	RiskPercent       float64
	Enabled           *bool
	CustomParams      map[string]any
}

// BotUpdate is the partial-update payload: only non-nil fields are
// applied, everything else is left untouched.
type BotUpdate struct {
	EAName            *string
	Symbol            *string
	Timeframe         *string
	LotSize           *float64
	StopLoss          *float64
	TakeProfit        *float64
	MaxTrades         *int
	TradingHoursStart *int
	TradingHoursEnd   *int
	RiskPercent       *float64
	Enabled           *bool
	CustomParams      map[string]any
}

func validateNumeric(lotSize, stopLoss, takeProfit float64, maxTrades, hoursStart, hoursEnd int, riskPercent float64) error {
	if lotSize <= 0 {
		return apperr.Validation("lot_size must be > 0")
	}
	if stopLoss < 0 {
		return apperr.Validation("stop_loss must be >= 0")
	}
	if takeProfit < 0 {
		return apperr.Validation("take_profit must be >= 0")
	}
	if maxTrades <= 0 {
		return apperr.Validation("max_trades must be > 0")
	}
	if hoursStart < 0 || hoursStart > 23 {
		return apperr.Validation("trading_hours_start must be in [0,23]")
	}
	if hoursEnd < 0 || hoursEnd > 23 {
		return apperr.Validation("trading_hours_end must be in [0,23]")
	}
	if riskPercent < 0 || riskPercent > 100 {
		return apperr.Validation("risk_percent must be in [0,100]")
	}
	return nil
}

// Create persists a new configuration. The unique index on magic_number
// is the real uniqueness guard; a lost race surfaces as ErrDuplicate.
func (s *Bots) Create(ctx context.Context, ownerID string, in BotCreate) (*models.BotConfiguration, error) {
	if in.MagicNumber <= 0 {
		return nil, apperr.Validation("magic_number must be > 0")
	}
	if in.EAName == "" {
		return nil, apperr.Validation("ea_name is required")
	}
	if err := validateNumeric(in.LotSize, in.StopLoss, in.TakeProfit, in.MaxTrades, in.TradingHoursStart, in.TradingHoursEnd, in.RiskPercent); err != nil {
		return nil, err
	}
	params, err := models.FromMap(in.CustomParams)
	if err != nil {
		return nil, err
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	now := time.Now()
	rec := models.BotConfiguration{
		UserID:            ownerID,
		MagicNumber:       in.MagicNumber,
		EAName:            in.EAName,
		Symbol:            in.Symbol,
		Timeframe:         in.Timeframe,
		LotSize:           in.LotSize,
		StopLoss:          in.StopLoss,
		TakeProfit:        in.TakeProfit,
		MaxTrades:         in.MaxTrades,
		TradingHoursStart: in.TradingHoursStart,
		TradingHoursEnd:   in.TradingHoursEnd,
		RiskPercent:       in.RiskPercent,
		Enabled:           enabled,
		CustomParams:      params,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(translate(err), apperr.ErrDuplicate) {
			return nil, fmt.Errorf("%w: magic number %d", apperr.ErrDuplicate, in.MagicNumber)
		}
		return nil, translate(err)
	}
	return &rec, nil
}

// Get looks up a configuration by magic number without an ownership
// check; callers gate visibility themselves.
func (s *Bots) Get(ctx context.Context, magicNumber int64) (*models.BotConfiguration, error) {
	var rec models.BotConfiguration
	if err := s.db.WithContext(ctx).First(&rec, "magic_number = ?", magicNumber).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// ListByOwner returns the owner's configurations, most recently created first.
func (s *Bots) ListByOwner(ctx context.Context, ownerID string) ([]models.BotConfiguration, error) {
	var recs []models.BotConfiguration
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Find(&recs).Error
	return recs, translate(err)
}

// fetchOwned resolves magicNumber for caller. Non-owners without the
// superadmin role get ErrNotFound, the same answer as for an absent
// record, so existence is never leaked to unauthorized callers.
func (s *Bots) fetchOwned(ctx context.Context, magicNumber int64, caller authz.Caller) (*models.BotConfiguration, error) {
	rec, err := s.Get(ctx, magicNumber)
	if err != nil {
		return nil, err
	}
	if err := authz.Decide(caller, authz.WriteBot, authz.Resource{OwnerID: rec.UserID}); err != nil {
		return nil, apperr.ErrNotFound
	}
	return rec, nil
}

// Update applies a partial update on behalf of caller and re-validates
// the resulting numeric fields.
func (s *Bots) Update(ctx context.Context, magicNumber int64, caller authz.Caller, in BotUpdate) (*models.BotConfiguration, error) {
	rec, err := s.fetchOwned(ctx, magicNumber, caller)
	if err != nil {
		return nil, err
	}
	if in.EAName != nil {
		rec.EAName = *in.EAName
	}
	if in.Symbol != nil {
		rec.Symbol = *in.Symbol
	}
	if in.Timeframe != nil {
		rec.Timeframe = *in.Timeframe
	}
	if in.LotSize != nil {
		rec.LotSize = *in.LotSize
	}
	if in.StopLoss != nil {
		rec.StopLoss = *in.StopLoss
	}
	if in.TakeProfit != nil {
		rec.TakeProfit = *in.TakeProfit
	}
	if in.MaxTrades != nil {
		rec.MaxTrades = *in.MaxTrades
	}
	if in.TradingHoursStart != nil {
		rec.TradingHoursStart = *in.TradingHoursStart
	}
	if in.TradingHoursEnd != nil {
		rec.TradingHoursEnd = *in.TradingHoursEnd
	}
	if in.RiskPercent != nil {
		rec.RiskPercent = *in.RiskPercent
	}
	if in.Enabled != nil {
		rec.Enabled = *in.Enabled
	}
	if in.CustomParams != nil {
		params, err := models.FromMap(in.CustomParams)
		if err != nil {
			return nil, err
		}
		rec.CustomParams = params
	}
	if err := validateNumeric(rec.LotSize, rec.StopLoss, rec.TakeProfit, rec.MaxTrades, rec.TradingHoursStart, rec.TradingHoursEnd, rec.RiskPercent); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// Delete removes the configuration and cascades to its assignments in
// one transaction, so no assignment can dangle on a deleted magic number.
func (s *Bots) Delete(ctx context.Context, magicNumber int64, caller authz.Caller) error {
	rec, err := s.fetchOwned(ctx, magicNumber, caller)
	if err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Assignment{}, "magic_number = ?", rec.MagicNumber).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BotConfiguration{}, "id = ?", rec.ID).Error
	}))
}

// SetEnabled toggles a configuration on or off; backs both the enable
// and disable flows.
func (s *Bots) SetEnabled(ctx context.Context, magicNumber int64, caller authz.Caller, enabled bool) error {
	rec, err := s.fetchOwned(ctx, magicNumber, caller)
	if err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Model(rec).
		Updates(map[string]interface{}{"enabled": enabled, "updated_at": time.Now()}).Error)
}
