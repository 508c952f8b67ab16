package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/internal/suppliers"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
	"github.com/medimitra/medimitra-backend/pkg/types"
)

// ItemDTO is the API shape of an inventory item with its derived flags.
type ItemDTO struct {
	ID           uuid.UUID               `json:"id"`
	SKU          string                  `json:"sku"`
	Name         string                  `json:"name"`
	Description  *string                 `json:"description,omitempty"`
	Category     enums.InventoryCategory `json:"category"`
	Unit         string                  `json:"unit"`
	UnitPrice    decimal.Decimal         `json:"unitPrice"`
	CurrentStock int                     `json:"currentStock"`
	MinimumStock int                     `json:"minimumStock"`
	MaximumStock int                     `json:"maximumStock"`
	SupplierID   *uuid.UUID              `json:"supplierId,omitempty"`
	ExpiryDate   *time.Time              `json:"expiryDate,omitempty"`
	IsAvailable  bool                    `json:"isAvailable"`
	IsExpired    bool                    `json:"isExpired"`
	IsLowStock   bool                    `json:"isLowStock"`
	Version      int                     `json:"version"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// ItemDetailDTO adds the supplier record to an item.
type ItemDetailDTO struct {
	ItemDTO
	Supplier *suppliers.SupplierDTO `json:"supplier,omitempty"`
}

func FromModel(item models.InventoryItem, now time.Time) ItemDTO {
	return ItemDTO{
		ID:           item.ID,
		SKU:          item.SKU,
		Name:         item.Name,
		Description:  item.Description,
		Category:     item.Category,
		Unit:         item.Unit,
		UnitPrice:    item.UnitPrice,
		CurrentStock: item.CurrentStock,
		MinimumStock: item.MinimumStock,
		MaximumStock: item.MaximumStock,
		SupplierID:   item.SupplierID,
		ExpiryDate:   item.ExpiryDate,
		IsAvailable:  item.IsAvailable,
		IsExpired:    item.IsExpired(now),
		IsLowStock:   item.IsLowStock(),
		Version:      item.Version,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func fromModels(items []models.InventoryItem, now time.Time) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, FromModel(item, now))
	}
	return out
}

// ListItemsInput filters the inventory browse endpoint.
type ListItemsInput struct {
	Category     *enums.InventoryCategory
	SupplierID   *uuid.UUID
	Search       string
	Available    *bool
	LowStockOnly bool
	Pagination   pagination.Params
}

type CreateItemInput struct {
	SKU          string
	Name         string
	Description  *string
	Category     enums.InventoryCategory
	Unit         string
	UnitPrice    decimal.Decimal
	CurrentStock int
	MinimumStock int
	MaximumStock int
	SupplierID   *uuid.UUID
	ExpiryDate   *time.Time
	IsAvailable  *bool
}

// UpdateItemInput carries optional changes. SupplierID and ExpiryDate may be
// explicitly cleared with null. Stock is changed through AdjustStock only.
type UpdateItemInput struct {
	SKU          *string
	Name         *string
	Description  *string
	Category     *enums.InventoryCategory
	Unit         *string
	UnitPrice    *decimal.Decimal
	MinimumStock *int
	MaximumStock *int
	SupplierID   types.Nullable[uuid.UUID]
	ExpiryDate   types.Nullable[time.Time]
	IsAvailable  *bool
}

// AdjustStockInput is a signed restock (+) or write-off (-).
type AdjustStockInput struct {
	Delta  int
	Reason string
}
