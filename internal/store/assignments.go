package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mt5panel/internal/apperr"
	"mt5panel/internal/authz"
	"mt5panel/internal/models"
)

// Assignments is the many-to-many relation letting an admin grant a user
// visibility of a bot the user does not own. The relation is keyed by
// magic number, the bot's natural key.
type Assignments struct {
	db *gorm.DB
}

func NewAssignments(db *gorm.DB) *Assignments {
	return &Assignments{db: db}
}

// AssignmentView is the admin listing row: the assignment joined with a
// user and bot summary.
type AssignmentView struct {
	models.Assignment
	UserEmail string `json:"user_email"`
	EAName    string `json:"ea_name"`
	Symbol    string `json:"symbol"`
}

// ListForUser resolves the caller's assigned bots, newest assignment
// first. A user with no assignments gets an empty slice, not an error.
func (s *Assignments) ListForUser(ctx context.Context, userID string) ([]models.BotConfiguration, error) {
	var asgs []models.Assignment
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&asgs).Error; err != nil {
		return nil, translate(err)
	}
	bots := make([]models.BotConfiguration, 0, len(asgs))
	for _, a := range asgs {
		var bot models.BotConfiguration
		err := s.db.WithContext(ctx).First(&bot, "magic_number = ?", a.MagicNumber).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, translate(err)
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

// Assign grants targetUserID visibility of the bot with magicNumber.
// Superadmin only; duplicate pairs are rejected by the composite unique
// index and surface as ErrAlreadyAssigned.
func (s *Assignments) Assign(ctx context.Context, targetUserID string, magicNumber int64, caller authz.Caller) (*models.Assignment, error) {
	if err := authz.Decide(caller, authz.AdminAssign, authz.Resource{}); err != nil {
		return nil, err
	}
	var bot models.BotConfiguration
	if err := s.db.WithContext(ctx).First(&bot, "magic_number = ?", magicNumber).Error; err != nil {
		return nil, translate(err)
	}
	rec := models.Assignment{
		UserID:      targetUserID,
		MagicNumber: magicNumber,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(translate(err), apperr.ErrDuplicate) {
			return nil, apperr.ErrAlreadyAssigned
		}
		return nil, translate(err)
	}
	return &rec, nil
}

// Unassign removes the grant. Removing an absent pair is a no-op so the
// operation stays idempotent.
func (s *Assignments) Unassign(ctx context.Context, targetUserID string, magicNumber int64, caller authz.Caller) error {
	if err := authz.Decide(caller, authz.AdminAssign, authz.Resource{}); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).
		Delete(&models.Assignment{}, "user_id = ? AND magic_number = ?", targetUserID, magicNumber).Error)
}

// ListAll returns every assignment with joined summaries, newest first.
// Superadmin only.
func (s *Assignments) ListAll(ctx context.Context, caller authz.Caller) ([]AssignmentView, error) {
	if err := authz.Decide(caller, authz.AdminListAll, authz.Resource{}); err != nil {
		return nil, err
	}
	var views []AssignmentView
	err := s.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("assignments.*, users.email AS user_email, bot_configurations.ea_name AS ea_name, bot_configurations.symbol AS symbol").
		Joins("LEFT JOIN users ON users.id = assignments.user_id").
		Joins("LEFT JOIN bot_configurations ON bot_configurations.magic_number = assignments.magic_number").
		Order("assignments.created_at desc").
		Scan(&views).Error
	if err != nil {
		return nil, translate(err)
	}
	return views, nil
}
