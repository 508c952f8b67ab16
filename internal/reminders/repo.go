package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/repo"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

// Repository persists reminders. The (active, next_due_at) index drives the poller.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.base.DB(ctx).Create(reminder).Error
}

// FindByID returns nil, nil when the reminder does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	return repo.FindOne[models.Reminder](r.base.DB(ctx), "id = ?", id)
}

// ListByUser returns up to limit+1 reminders for the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Reminder, error) {
	q := r.base.DB(ctx).Model(&models.Reminder{}).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var rows []models.Reminder
	err := pagination.Apply(q, "", cursor, limit).Find(&rows).Error
	return rows, err
}

// ListDue returns active reminders due at or before now, oldest due first.
func (r *Repository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	var rows []models.Reminder
	err := r.base.DB(ctx).
		Where("active = ? AND next_due_at <= ?", true, now.UTC()).
		Order("next_due_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Claim applies updates only if the reminder is still active and still due at
// expectedDue, so two pollers cannot both deliver the same occurrence.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID, expectedDue time.Time, updates map[string]any) (bool, error) {
	return repo.UpdateWhere(r.base.DB(ctx), &models.Reminder{}, updates,
		"id = ? AND active = ? AND next_due_at = ?", id, true, expectedDue.UTC())
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return repo.UpdateWhere(r.base.DB(ctx), &models.Reminder{},
		map[string]any{"active": false, "updated_at": now.UTC()},
		"id = ? AND active = ?", id, true)
}
