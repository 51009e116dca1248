package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:user" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsApproved   bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// LinkedAccount is a user's MT5 broker account link. One per user; the
// password column holds the cipher envelope, never the plaintext.
type LinkedAccount struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"uniqueIndex;not null;size:36" json:"user_id"`
	Login     string    `gorm:"not null" json:"login"`
	Password  string    `gorm:"not null" json:"-"`
	Server    string    `gorm:"not null" json:"server"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *LinkedAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// BotConfiguration holds one EA's operating parameters. The magic number
// is the integer an EA tags its own orders with; it doubles as the
// natural key across the whole system.
type BotConfiguration struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	UserID            string    `gorm:"index;not null;size:36" json:"user_id"`
	MagicNumber       int64     `gorm:"uniqueIndex;not null" json:"magic_number"`
	EAName            string    `gorm:"not null" json:"ea_name"`
	Symbol            string    `json:"symbol"`
	Timeframe         string    `json:"timeframe"`
	LotSize           float64   `json:"lot_size"`
	StopLoss          float64   `json:"stop_loss"`
	TakeProfit        float64   `json:"take_profit"`
	MaxTrades         int       `json:"max_trades"`
	TradingHoursStart int       `json:"trading_hours_start"`
	TradingHoursEnd   int       `json:"trading_hours_end"`
	RiskPercent       float64   `json:"risk_percent"`
	Enabled           bool      `gorm:"not null;default:true" json:"enabled"`
	CustomParams      JSONB     `gorm:"type:jsonb" json:"custom_params"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (b *BotConfiguration) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Assignment grants a user visibility of a bot they do not own. Keyed by
// magic number rather than the bot's internal id.
type Assignment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"not null;size:36;uniqueIndex:idx_assignment_pair" json:"user_id"`
	MagicNumber int64     `gorm:"not null;uniqueIndex:idx_assignment_pair" json:"magic_number"`
	CreatedAt   time.Time `json:"assigned_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID      string    `gorm:"index;size:36" json:"actor_id"`
	TargetUserID *string   `gorm:"size:36" json:"target_user_id,omitempty"`
	Action       string    `gorm:"not null" json:"action"`
	Detail       string    `json:"detail"`
	Metadata     JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    string     `gorm:"index;not null;size:36" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
