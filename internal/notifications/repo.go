package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) owned(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
}

func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListByUser returns one row beyond limit; see pagination.BuildPage.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	query := r.owned(ctx, userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var rows []models.Notification
	err := pagination.Apply(query, "", cursor, limit).Find(&rows).Error
	return rows, err
}

// MarkRead stamps read_at unless it is already set, so the first read time
// survives repeated calls. found is false when the user owns no such row.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID, now time.Time) (found bool, err error) {
	res := r.owned(ctx, userID).
		Where("id = ?", id).
		UpdateColumn("read_at", gorm.Expr("COALESCE(read_at, ?)", now))
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	res := r.owned(ctx, userID).Where("read_at IS NULL").UpdateColumn("read_at", now)
	return res.RowsAffected, res.Error
}

// ExistsSince reports whether a notification with this type and link was
// created at or after since, for any recipient.
func (r *Repository) ExistsSince(ctx context.Context, notificationType enums.NotificationType, link string, since time.Time) (bool, error) {
	var hit []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("type = ? AND link = ? AND created_at >= ?", notificationType, link, since).
		Limit(1).
		Pluck("id", &hit).Error
	return len(hit) > 0, err
}

// DeleteReadBefore purges notifications read before the cutoff. Unread rows
// are kept regardless of age.
func (r *Repository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", before).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
