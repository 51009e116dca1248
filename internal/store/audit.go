package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"mt5panel/internal/models"
)

// Audit appends administrative actions to the audit log. Rows are
// write-once; nothing in the system updates or deletes them.
type Audit struct {
	db *gorm.DB
}

func NewAudit(db *gorm.DB) *Audit {
	return &Audit{db: db}
}

func (s *Audit) Record(ctx context.Context, actorID string, targetUserID *string, action, detail string) error {
	entry := models.AuditLog{
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       action,
		Detail:       detail,
		CreatedAt:    time.Now(),
	}
	return translate(s.db.WithContext(ctx).Create(&entry).Error)
}

// Recent returns the latest entries, newest first, capped at limit.
func (s *Audit) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&logs).Error
	return logs, translate(err)
}
