package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/outbox"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
	FindHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEntry, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, error)
	CountByStatus(ctx context.Context, window TimeWindow) ([]StatusCount, error)
	CountByType(ctx context.Context, window TimeWindow) ([]TypeCount, error)
	Revenue(ctx context.Context, window TimeWindow, excluded []enums.OrderStatus) (*RevenueSummary, error)
	TopItems(ctx context.Context, window TimeWindow, excluded []enums.OrderStatus, limit int) ([]ItemVolume, error)
}

// ListQuery carries repository-level list filters. UserID is always set for
// non-admin callers.
type ListQuery struct {
	UserID    *uuid.UUID
	Status    *enums.OrderStatus
	OrderType *enums.OrderType
	Priority  *enums.OrderPriority
	From      *time.Time
	To        *time.Time
	Cursor    *pagination.Cursor
	Limit     int
}

// TimeWindow is a half-open [From, To) range on created_at.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

type StatusCount struct {
	Status enums.OrderStatus
	Count  int64
}

type TypeCount struct {
	OrderType enums.OrderType
	Count     int64
}

type RevenueSummary struct {
	Revenue decimal.Decimal
	Orders  int64
}

type ItemVolume struct {
	ItemID   uuid.UUID
	SKU      string
	Name     string
	Quantity int64
	Revenue  decimal.Decimal
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockKeeper reserves and restores inventory inside the order transaction.
type StockKeeper interface {
	Load(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error)
	Reserve(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (*inventory.StockChange, error)
	Restore(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (*inventory.StockChange, error)
}

type orderMetrics interface {
	IncCreated(orderType, status string)
	IncTransition(from, to string)
	IncStockReservationFailure()
}
