package store

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mt5panel/internal/authz"
	"mt5panel/internal/crypto"
	"mt5panel/internal/models"
)

// openTestDB gives each test its own in-memory sqlite database. The
// shared-cache name keeps every pooled connection on the same database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.LinkedAccount{},
		&models.BotConfiguration{},
		&models.Assignment{},
		&models.AuditLog{},
		&models.Session{},
	))
	return db
}

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.New(bytes.Repeat([]byte{0x42}, crypto.KeySize))
	require.NoError(t, err)
	return c
}

func newRotatedCipher() (*crypto.Cipher, error) {
	return crypto.New(bytes.Repeat([]byte{0x24}, crypto.KeySize))
}

func asUser(id string) authz.Caller {
	return authz.Caller{ID: id, Role: models.RoleUser}
}

func asSuperadmin(id string) authz.Caller {
	return authz.Caller{ID: id, Role: models.RoleSuperadmin}
}
