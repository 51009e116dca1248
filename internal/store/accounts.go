package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mt5panel/internal/apperr"
	"mt5panel/internal/crypto"
	"mt5panel/internal/models"
)

// Accounts is the linked broker-account store. Passwords go through the
// credential cipher on the way in and out; plaintext never touches a row.
type Accounts struct {
	db     *gorm.DB
	cipher *crypto.Cipher
}

func NewAccounts(db *gorm.DB, cipher *crypto.Cipher) *Accounts {
	return &Accounts{db: db, cipher: cipher}
}

// UpsertLink connects a broker account for userID. A user has at most one
// link: the unique index on user_id plus ON CONFLICT DO UPDATE makes a
// second connect overwrite the first atomically, with no check-then-insert
// race between concurrent callers.
func (s *Accounts) UpsertLink(ctx context.Context, userID, login, password, server string) (*models.LinkedAccount, error) {
	if login == "" || password == "" || server == "" {
		return nil, apperr.Validation("login, password and server are required")
	}
	// the login ends up in bridge URLs; reject anything that is not a
	// plain identifier
	if strings.ContainsAny(login, "/\\?#%&= \t") {
		return nil, apperr.Validation("login contains invalid characters")
	}
	envelope, err := s.cipher.Encrypt(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	rec := models.LinkedAccount{
		UserID:    userID,
		Login:     login,
		Password:  envelope,
		Server:    server,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"login":      login,
			"password":   envelope,
			"server":     server,
			"updated_at": now,
		}),
	}).Create(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.GetLink(ctx, userID)
}

// GetLink returns the user's link, or ErrNotFound when none exists.
func (s *Accounts) GetLink(ctx context.Context, userID string) (*models.LinkedAccount, error) {
	var rec models.LinkedAccount
	if err := s.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// DeleteLink disconnects the account. Deleting an absent link is a no-op.
func (s *Accounts) DeleteLink(ctx context.Context, userID string) error {
	return translate(s.db.WithContext(ctx).Delete(&models.LinkedAccount{}, "user_id = ?", userID).Error)
}

// RevealSecret decrypts the stored password for one outbound bridge call.
// The caller must not persist, log, or echo the returned value.
func (s *Accounts) RevealSecret(ctx context.Context, userID string) (string, error) {
	rec, err := s.GetLink(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrNoLinkedAccount
		}
		return "", err
	}
	return s.cipher.Decrypt(rec.Password)
}
