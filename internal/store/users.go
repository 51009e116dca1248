package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"mt5panel/internal/apperr"
	"mt5panel/internal/models"
)

// Users backs registration, login lookup and the admin approval flow.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Register creates an unapproved account. New users never choose a role;
// they always start as a regular user awaiting admin approval.
func (s *Users) Register(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || passwordHash == "" {
		return nil, apperr.Validation("email and password are required")
	}
	now := time.Now()
	u := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		IsActive:     true,
		IsApproved:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Users) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, translate(err)
}

func (s *Users) Approve(ctx context.Context, id string) error {
	return s.setFlags(ctx, id, map[string]interface{}{"is_approved": true})
}

// Reject is a hard delete: an account an admin turns away leaves no row
// behind. The user's dependent records go with it.
func (s *Users) Reject(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.LinkedAccount{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Assignment{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	}))
}

func (s *Users) SetActive(ctx context.Context, id string, active bool) error {
	return s.setFlags(ctx, id, map[string]interface{}{"is_active": active})
}

func (s *Users) setFlags(ctx context.Context, id string, flags map[string]interface{}) error {
	flags["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(flags)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
