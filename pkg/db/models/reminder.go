package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/enums"
)

// Reminder is a user-scheduled notice. NextDueAt is the persisted schedule
// the cron worker polls; StartsAt anchors the day of month for monthly ones.
type Reminder struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Title      string                  `gorm:"column:title;not null"`
	Message    string                  `gorm:"column:message;not null"`
	Frequency  enums.ReminderFrequency `gorm:"column:frequency;type:text;not null"`
	StartsAt   time.Time               `gorm:"column:starts_at;not null"`
	NextDueAt  time.Time               `gorm:"column:next_due_at;not null;index:idx_reminders_active_due,priority:2"`
	EndsAt     *time.Time              `gorm:"column:ends_at"`
	Active     bool                    `gorm:"column:active;not null;index:idx_reminders_active_due,priority:1"`
	LastSentAt *time.Time              `gorm:"column:last_sent_at"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
