package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

// Repository persists inventory items. Stock columns are only written through
// the conditional Reserve/Restore/Adjust helpers.
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

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID returns nil, nil when the item does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *Repository) SKUExists(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("sku = ?", sku)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

type listParams struct {
	Category     *enums.InventoryCategory
	SupplierID   *uuid.UUID
	Search       string
	Available    *bool
	LowStockOnly bool
	Cursor       *pagination.Cursor
	Limit        int
}

// List returns up to Limit+1 rows ordered newest first.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.InventoryItem, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}
	if params.Available != nil {
		query = query.Where("is_available = ?", *params.Available)
	}
	if params.LowStockOnly {
		query = query.Where("current_stock <= minimum_stock")
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	query = pagination.Apply(query, "", params.Cursor, params.Limit)

	var items []models.InventoryItem
	err := query.Find(&items).Error
	return items, err
}

func (r *Repository) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("current_stock <= minimum_stock").
		Order("current_stock ASC").
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// ListExpiringBetween returns items whose expiry falls in (from, to].
func (r *Repository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?", from, to).
		Order("expiry_date ASC").
		Find(&items).Error
	return items, err
}

func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", now).
		Order("expiry_date ASC").
		Find(&items).Error
	return items, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Reserve decrements stock only when enough is on hand. It reports false
// when no row matched, which callers treat as insufficient stock.
func (r *Repository) Reserve(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND current_stock >= ?", id, qty).
		Updates(map[string]any{
			"current_stock": gorm.Expr("current_stock - ?", qty),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) Restore(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_stock": gorm.Expr("current_stock + ?", qty),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Adjust applies a signed delta, refusing any change that would leave the
// stock negative.
func (r *Repository) Adjust(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND current_stock + ? >= 0", id, delta).
		Updates(map[string]any{
			"current_stock": gorm.Expr("current_stock + ?", delta),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
