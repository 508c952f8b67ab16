package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/pkg/enums"
)

// OrderCreatedEvent announces a newly placed order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	OrderType   enums.OrderType   `json:"orderType"`
	Status      enums.OrderStatus `json:"status"`
	FinalAmount decimal.Decimal   `json:"finalAmount"`
	ItemCount   int               `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted for every committed status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Reason      string            `json:"reason,omitempty"`
}

// StockMovementEvent records a reservation or restoration against an item.
type StockMovementEvent struct {
	ItemID   uuid.UUID  `json:"itemId"`
	OrderID  *uuid.UUID `json:"orderId,omitempty"`
	Delta    int        `json:"delta"`
	Reason   string     `json:"reason,omitempty"`
	NewStock *int       `json:"newStock,omitempty"`
}

// NotificationRequestedEvent asks the external delivery service to push a
// notification that was already persisted in-app.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notificationId"`
	UserID         uuid.UUID              `json:"userId"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Link           string                 `json:"link,omitempty"`
}
