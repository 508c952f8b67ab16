package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindOrder returns nil, nil when the order does not exist.
func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	var items []models.OrderLineItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEntry, error) {
	var entries []models.OrderStatusEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// TransitionStatus applies updates only while the order is still in from.
// A false result means another writer moved the order first.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns up to Limit+1 orders newest first.
func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if query.UserID != nil {
		q = q.Where("user_id = ?", *query.UserID)
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.OrderType != nil {
		q = q.Where("order_type = ?", *query.OrderType)
	}
	if query.Priority != nil {
		q = q.Where("priority = ?", *query.Priority)
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", query.From.UTC())
	}
	if query.To != nil {
		q = q.Where("created_at < ?", query.To.UTC())
	}

	var rows []models.Order
	err := pagination.Apply(q, "", query.Cursor, query.Limit).Find(&rows).Error
	return rows, err
}

func (r *repository) windowed(ctx context.Context, window TimeWindow) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", window.From.UTC(), window.To.UTC())
}

func (r *repository) CountByStatus(ctx context.Context, window TimeWindow) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.windowed(ctx, window).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) CountByType(ctx context.Context, window TimeWindow) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.windowed(ctx, window).
		Select("order_type, COUNT(*) AS count").
		Group("order_type").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) Revenue(ctx context.Context, window TimeWindow, excluded []enums.OrderStatus) (*RevenueSummary, error) {
	q := r.windowed(ctx, window)
	if len(excluded) > 0 {
		q = q.Where("status NOT IN ?", excluded)
	}
	var out RevenueSummary
	err := q.Select("COALESCE(SUM(final_amount), 0) AS revenue, COUNT(*) AS orders").Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TopItems ranks line items by ordered quantity across orders in the window.
func (r *repository) TopItems(ctx context.Context, window TimeWindow, excluded []enums.OrderStatus, limit int) ([]ItemVolume, error) {
	orderIDs := r.windowed(ctx, window).Select("id")
	if len(excluded) > 0 {
		orderIDs = orderIDs.Where("status NOT IN ?", excluded)
	}

	var rows []ItemVolume
	err := r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Select("item_id, sku, name, SUM(quantity) AS quantity, COALESCE(SUM(subtotal), 0) AS revenue").
		Where("order_id IN (?)", orderIDs).
		Group("item_id, sku, name").
		Order("quantity DESC").
		Order("item_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
