package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
)

// StockChange describes an item after a stock movement.
type StockChange struct {
	Item models.InventoryItem
	// CrossedLowStock is set when the movement took the item from above its
	// minimum to at or below it.
	CrossedLowStock bool
}

// StockKeeper moves stock inside a caller-owned transaction.
type StockKeeper struct {
	repo *Repository
}

func NewStockKeeper(repo *Repository) *StockKeeper {
	return &StockKeeper{repo: repo}
}

// Load returns the requested items keyed by id. Missing ids are simply absent.
func (k *StockKeeper) Load(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error) {
	items, err := k.repo.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory items")
	}
	out := make(map[uuid.UUID]models.InventoryItem, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// Reserve decrements stock with a conditional update. A miss is reported as
// a validation error so the whole order rolls back.
func (k *StockKeeper) Reserve(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (*StockChange, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := k.repo.WithTx(tx)
	ok, err := repo.Reserve(ctx, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{"itemId": itemID.String(), "requested": qty})
	}
	return k.reload(ctx, repo, itemID, -qty)
}

// Restore puts previously reserved stock back.
func (k *StockKeeper) Restore(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (*StockChange, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := k.repo.WithTx(tx)
	ok, err := repo.Restore(ctx, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("inventory item %s not found", itemID))
	}
	return k.reload(ctx, repo, itemID, qty)
}

func (k *StockKeeper) reload(ctx context.Context, repo *Repository, itemID uuid.UUID, delta int) (*StockChange, error) {
	item, err := repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return &StockChange{
		Item:            *item,
		CrossedLowStock: crossedLowStock(item.CurrentStock-delta, item.CurrentStock, item.MinimumStock),
	}, nil
}

func crossedLowStock(before, after, minimum int) bool {
	return before > minimum && after <= minimum
}

// LowStockNotice builds the admin alert for an item at or below its minimum.
func LowStockNotice(item models.InventoryItem) notifications.Notice {
	return notifications.Notice{
		Audience: notifications.AudienceAdmins,
		Type:     enums.NotificationTypeLowStock,
		Title:    "Low stock: " + item.Name,
		Message:  fmt.Sprintf("%s (%s) has %d %s left, minimum is %d.", item.Name, item.SKU, item.CurrentStock, item.Unit, item.MinimumStock),
		Link:     ItemLink(item.ID),
	}
}

// ExpiryNotice builds the admin alert for an expired or soon-to-expire item.
func ExpiryNotice(item models.InventoryItem, expired bool) notifications.Notice {
	title := "Expiring soon: " + item.Name
	message := fmt.Sprintf("%s (%s) expires on %s.", item.Name, item.SKU, item.ExpiryDate.Format("2006-01-02"))
	if expired {
		title = "Expired: " + item.Name
		message = fmt.Sprintf("%s (%s) expired on %s.", item.Name, item.SKU, item.ExpiryDate.Format("2006-01-02"))
	}
	return notifications.Notice{
		Audience: notifications.AudienceAdmins,
		Type:     enums.NotificationTypeExpiryAlert,
		Title:    title,
		Message:  message,
		Link:     ItemLink(item.ID),
	}
}

func ItemLink(id uuid.UUID) string {
	return "/inventory/" + id.String()
}
