package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/enums"
)

// InventoryItem is a stock-keeping record. CurrentStock is only ever changed
// through conditional updates so it cannot go negative.
type InventoryItem struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	SKU          string                  `gorm:"column:sku;not null;uniqueIndex"`
	Name         string                  `gorm:"column:name;not null"`
	Description  *string                 `gorm:"column:description"`
	Category     enums.InventoryCategory `gorm:"column:category;type:text;not null"`
	Unit         string                  `gorm:"column:unit;not null;default:'unit'"`
	UnitPrice    decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CurrentStock int                     `gorm:"column:current_stock;not null;default:0;check:current_stock >= 0"`
	MinimumStock int                     `gorm:"column:minimum_stock;not null;default:0"`
	MaximumStock int                     `gorm:"column:maximum_stock;not null;default:0"`
	SupplierID   *uuid.UUID              `gorm:"column:supplier_id;type:uuid"`
	ExpiryDate   *time.Time              `gorm:"column:expiry_date"`
	IsAvailable  bool                    `gorm:"column:is_available;not null"`
	Version      int                     `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	if i.Version == 0 {
		i.Version = 1
	}
	return nil
}

// IsExpired reports whether the expiry date has passed at now.
func (i InventoryItem) IsExpired(now time.Time) bool {
	return i.ExpiryDate != nil && !i.ExpiryDate.After(now)
}

// IsExpiringWithin reports whether the item is not yet expired but will be within window.
func (i InventoryItem) IsExpiringWithin(now time.Time, window time.Duration) bool {
	if i.ExpiryDate == nil || i.IsExpired(now) {
		return false
	}
	return !i.ExpiryDate.After(now.Add(window))
}

func (i InventoryItem) IsLowStock() bool {
	return i.CurrentStock <= i.MinimumStock
}
