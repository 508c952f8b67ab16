package reminders

import (
	"time"

	"github.com/google/uuid"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

type CreateReminderInput struct {
	Title     string                  `json:"title" validate:"required,max=200"`
	Message   string                  `json:"message" validate:"required,max=2000"`
	Frequency enums.ReminderFrequency `json:"frequency" validate:"required"`
	StartsAt  time.Time               `json:"startsAt" validate:"required"`
	EndsAt    *time.Time              `json:"endsAt,omitempty"`
}

type ListRemindersInput struct {
	ActiveOnly bool
	Pagination pagination.Params
}

type ReminderDTO struct {
	ID         uuid.UUID               `json:"id"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Frequency  enums.ReminderFrequency `json:"frequency"`
	StartsAt   time.Time               `json:"startsAt"`
	NextDueAt  time.Time               `json:"nextDueAt"`
	EndsAt     *time.Time              `json:"endsAt,omitempty"`
	Active     bool                    `json:"active"`
	LastSentAt *time.Time              `json:"lastSentAt,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

func FromModel(r models.Reminder) ReminderDTO {
	return ReminderDTO{
		ID:         r.ID,
		Title:      r.Title,
		Message:    r.Message,
		Frequency:  r.Frequency,
		StartsAt:   r.StartsAt,
		NextDueAt:  r.NextDueAt,
		EndsAt:     r.EndsAt,
		Active:     r.Active,
		LastSentAt: r.LastSentAt,
		CreatedAt:  r.CreatedAt,
	}
}
