package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/api/responses"
	"github.com/medimitra/medimitra-backend/api/validators"
	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/types"
)

const (
	defaultExpiryWindowDays = 30
	maxExpiryWindowDays     = 365
)

// InventoryList browses the catalog with optional category, supplier, search and availability filters.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		input, err := buildInventoryListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func InventoryDetail(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		items, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// InventoryExpiring lists items expiring within ?days= (default 30).
func InventoryExpiring(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		days, err := validators.ParseQueryInt(r, "days", defaultExpiryWindowDays, 1, maxExpiryWindowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Expiring(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func InventoryExpired(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		items, err := svc.Expired(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// InventoryCreate adds a catalog item. Admin only.
func InventoryCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func InventoryUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// InventoryAdjustStock applies a signed restock or write-off.
func InventoryAdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Delta == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero"))
			return
		}

		item, err := svc.AdjustStock(r.Context(), itemID, inventory.AdjustStockInput{
			Delta:  payload.Delta,
			Reason: strings.TrimSpace(payload.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func buildInventoryListInput(r *http.Request) (inventory.ListItemsInput, error) {
	var input inventory.ListItemsInput
	params, err := validators.ParsePagination(r)
	if err != nil {
		return input, err
	}
	input.Pagination = params
	input.Search = validators.SanitizeString(r.URL.Query().Get("search"), 100)

	if input.Category, err = validators.ParseQueryEnum(r, "category", enums.ParseInventoryCategory); err != nil {
		return input, err
	}
	if input.SupplierID, err = validators.ParseQueryUUID(r, "supplierId"); err != nil {
		return input, err
	}
	if input.Available, err = validators.ParseQueryBool(r, "available"); err != nil {
		return input, err
	}
	lowStock, err := validators.ParseQueryBool(r, "lowStock")
	if err != nil {
		return input, err
	}
	input.LowStockOnly = lowStock != nil && *lowStock
	return input, nil
}

type createItemRequest struct {
	SKU          string          `json:"sku" validate:"required,max=64"`
	Name         string          `json:"name" validate:"required,max=200"`
	Description  *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category     string          `json:"category" validate:"required"`
	Unit         string          `json:"unit" validate:"required,max=32"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	CurrentStock int             `json:"currentStock" validate:"min=0"`
	MinimumStock int             `json:"minimumStock" validate:"min=0"`
	MaximumStock int             `json:"maximumStock" validate:"min=0"`
	SupplierID   *uuid.UUID      `json:"supplierId,omitempty"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	IsAvailable  *bool           `json:"isAvailable,omitempty"`
}

func (r createItemRequest) toCreateInput() (inventory.CreateItemInput, error) {
	category, err := enums.ParseInventoryCategory(strings.TrimSpace(r.Category))
	if err != nil {
		return inventory.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	if r.UnitPrice.IsNegative() {
		return inventory.CreateItemInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unitPrice must not be negative")
	}
	return inventory.CreateItemInput{
		SKU:          strings.TrimSpace(r.SKU),
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		Category:     category,
		Unit:         strings.TrimSpace(r.Unit),
		UnitPrice:    r.UnitPrice,
		CurrentStock: r.CurrentStock,
		MinimumStock: r.MinimumStock,
		MaximumStock: r.MaximumStock,
		SupplierID:   r.SupplierID,
		ExpiryDate:   r.ExpiryDate,
		IsAvailable:  r.IsAvailable,
	}, nil
}

type updateItemRequest struct {
	SKU          *string                   `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	Name         *string                   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string                   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category     *string                   `json:"category,omitempty"`
	Unit         *string                   `json:"unit,omitempty" validate:"omitempty,min=1,max=32"`
	UnitPrice    *decimal.Decimal          `json:"unitPrice,omitempty"`
	MinimumStock *int                      `json:"minimumStock,omitempty" validate:"omitempty,min=0"`
	MaximumStock *int                      `json:"maximumStock,omitempty" validate:"omitempty,min=0"`
	SupplierID   types.Nullable[uuid.UUID] `json:"supplierId"`
	ExpiryDate   types.Nullable[time.Time] `json:"expiryDate"`
	IsAvailable  *bool                     `json:"isAvailable,omitempty"`
}

func (r updateItemRequest) toUpdateInput() (inventory.UpdateItemInput, error) {
	input := inventory.UpdateItemInput{
		SKU:          r.SKU,
		Name:         r.Name,
		Description:  r.Description,
		Unit:         r.Unit,
		UnitPrice:    r.UnitPrice,
		MinimumStock: r.MinimumStock,
		MaximumStock: r.MaximumStock,
		SupplierID:   r.SupplierID,
		ExpiryDate:   r.ExpiryDate,
		IsAvailable:  r.IsAvailable,
	}
	if r.Category != nil {
		category, err := enums.ParseInventoryCategory(strings.TrimSpace(*r.Category))
		if err != nil {
			return inventory.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if r.UnitPrice != nil && r.UnitPrice.IsNegative() {
		return inventory.UpdateItemInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unitPrice must not be negative")
	}
	return input, nil
}

type adjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason" validate:"required,max=500"`
}
