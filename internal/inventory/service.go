package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/internal/suppliers"
	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

const (
	DefaultExpiryWindowDays = 30
	maxExpiryWindowDays     = 365
)

// Service exposes inventory browsing, alerts and admin maintenance.
type Service interface {
	List(ctx context.Context, input ListItemsInput) (*pagination.Page[ItemDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ItemDetailDTO, error)
	LowStock(ctx context.Context) ([]ItemDTO, error)
	Expiring(ctx context.Context, days int) ([]ItemDTO, error)
	Expired(ctx context.Context) ([]ItemDTO, error)
	Create(ctx context.Context, input CreateItemInput) (*ItemDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	AdjustStock(ctx context.Context, id uuid.UUID, input AdjustStockInput) (*ItemDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type supplierLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// ServiceParams wires the inventory service.
type ServiceParams struct {
	Repo              *Repository
	Suppliers         supplierLookup
	DB                txRunner
	Notifier          notifications.Notifier
	Logger            *logger.Logger
	DefaultExpiryDays int
}

type service struct {
	repo       *Repository
	suppliers  supplierLookup
	db         txRunner
	notifier   notifications.Notifier
	logg       *logger.Logger
	expiryDays int
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Suppliers == nil {
		return nil, fmt.Errorf("supplier lookup required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	days := params.DefaultExpiryDays
	if days <= 0 {
		days = DefaultExpiryWindowDays
	}
	return &service{
		repo:       params.Repo,
		suppliers:  params.Suppliers,
		db:         params.DB,
		notifier:   params.Notifier,
		logg:       params.Logger,
		expiryDays: days,
		now:        time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, input ListItemsInput) (*pagination.Page[ItemDTO], error) {
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listParams{
		Category:     input.Category,
		SupplierID:   input.SupplierID,
		Search:       input.Search,
		Available:    input.Available,
		LowStockOnly: input.LowStockOnly,
		Cursor:       cursor,
		Limit:        input.Pagination.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}

	page := pagination.BuildPage(rows, input.Pagination.Limit, func(item models.InventoryItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	})
	return &pagination.Page[ItemDTO]{
		Items:      fromModels(page.Items, s.now()),
		NextCursor: page.NextCursor,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ItemDetailDTO, error) {
	item, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	detail := &ItemDetailDTO{ItemDTO: FromModel(*item, s.now())}
	if item.SupplierID != nil {
		supplier, err := s.suppliers.FindByID(ctx, *item.SupplierID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}
		detail.Supplier = suppliers.FromModel(supplier)
	}
	return detail, nil
}

func (s *service) LowStock(ctx context.Context) ([]ItemDTO, error) {
	rows, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return fromModels(rows, s.now()), nil
}

func (s *service) Expiring(ctx context.Context, days int) ([]ItemDTO, error) {
	if days == 0 {
		days = s.expiryDays
	}
	if days < 1 || days > maxExpiryWindowDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("days must be between 1 and %d", maxExpiryWindowDays))
	}
	now := s.now().UTC()
	rows, err := s.repo.ListExpiringBetween(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring")
	}
	return fromModels(rows, now), nil
}

func (s *service) Expired(ctx context.Context) ([]ItemDTO, error) {
	now := s.now().UTC()
	rows, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired")
	}
	return fromModels(rows, now), nil
}

func (s *service) Create(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if err := validatePrice(input.UnitPrice); err != nil {
		return nil, err
	}
	if input.CurrentStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current stock cannot be negative")
	}
	if err := validateThresholds(input.MinimumStock, input.MaximumStock); err != nil {
		return nil, err
	}
	if input.SupplierID != nil {
		if err := s.ensureSupplier(ctx, *input.SupplierID); err != nil {
			return nil, err
		}
	}
	exists, err := s.repo.SKUExists(ctx, sku, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sku")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "unit"
	}
	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}
	item := &models.InventoryItem{
		SKU:          sku,
		Name:         name,
		Description:  input.Description,
		Category:     input.Category,
		Unit:         unit,
		UnitPrice:    input.UnitPrice.Round(2),
		CurrentStock: input.CurrentStock,
		MinimumStock: input.MinimumStock,
		MaximumStock: input.MaximumStock,
		SupplierID:   input.SupplierID,
		ExpiryDate:   utcPtr(input.ExpiryDate),
		IsAvailable:  available,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}
	dto := FromModel(*item, s.now())
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		if sku != item.SKU {
			exists, err := s.repo.SKUExists(ctx, sku, &id)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sku")
			}
			if exists {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
			}
			updates["sku"] = sku
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		updates["category"] = *input.Category
	}
	if input.Unit != nil {
		updates["unit"] = strings.TrimSpace(*input.Unit)
	}
	if input.UnitPrice != nil {
		if err := validatePrice(*input.UnitPrice); err != nil {
			return nil, err
		}
		updates["unit_price"] = input.UnitPrice.Round(2)
	}

	minimum, maximum := item.MinimumStock, item.MaximumStock
	if input.MinimumStock != nil {
		minimum = *input.MinimumStock
		updates["minimum_stock"] = minimum
	}
	if input.MaximumStock != nil {
		maximum = *input.MaximumStock
		updates["maximum_stock"] = maximum
	}
	if err := validateThresholds(minimum, maximum); err != nil {
		return nil, err
	}

	if input.SupplierID.Valid {
		if input.SupplierID.Value != nil {
			if err := s.ensureSupplier(ctx, *input.SupplierID.Value); err != nil {
				return nil, err
			}
			updates["supplier_id"] = *input.SupplierID.Value
		} else {
			updates["supplier_id"] = nil
		}
	}
	if input.ExpiryDate.Valid {
		if input.ExpiryDate.Value != nil {
			updates["expiry_date"] = input.ExpiryDate.Value.UTC()
		} else {
			updates["expiry_date"] = nil
		}
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}

	if len(updates) > 0 {
		updates["version"] = gorm.Expr("version + 1")
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory item")
		}
	}

	updated, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated, s.now())
	return &dto, nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, input AdjustStockInput) (*ItemDTO, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var (
		after   *models.InventoryItem
		crossed bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		ok, err := repo.Adjust(ctx, id, input.Delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment would make stock negative").
				WithDetails(map[string]any{"currentStock": before.CurrentStock, "delta": input.Delta})
		}
		after, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		crossed = crossedLowStock(after.CurrentStock-input.Delta, after.CurrentStock, after.MinimumStock)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"item_id": id.String(),
			"delta":   input.Delta,
			"reason":  input.Reason,
			"stock":   after.CurrentStock,
		})
		s.logg.Info(logCtx, "inventory stock adjusted")
	}
	if crossed && s.notifier != nil {
		s.notifier.Dispatch(ctx, LowStockNotice(*after))
	}

	dto := FromModel(*after, s.now())
	return &dto, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return item, nil
}

func (s *service) ensureSupplier(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if supplier == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	if !supplier.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier is inactive")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	return nil
}

// A zero maximum means no ceiling is configured.
func validateThresholds(minimum, maximum int) error {
	if minimum < 0 || maximum < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock thresholds cannot be negative")
	}
	if maximum > 0 && minimum > maximum {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum stock cannot exceed maximum stock")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
