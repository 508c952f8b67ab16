package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/types"
)

// Order is the aggregate root of the ordering workflow. Status only moves via
// conditional updates guarded on the previous status.
type Order struct {
	ID                  uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         string                     `gorm:"column:order_number;not null;uniqueIndex"`
	UserID              uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole            enums.UserRole             `gorm:"column:user_role;type:text;not null"`
	OrderType           enums.OrderType            `gorm:"column:order_type;type:text;not null"`
	Priority            enums.OrderPriority        `gorm:"column:priority;type:text;not null;default:'normal'"`
	Status              enums.OrderStatus          `gorm:"column:status;type:text;not null;index"`
	RequiresApproval    bool                       `gorm:"column:requires_approval;not null"`
	TotalAmount         decimal.Decimal            `gorm:"column:total_amount;type:numeric(12,2);not null"`
	TaxAmount           decimal.Decimal            `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	ShippingCost        decimal.Decimal            `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	FinalAmount         decimal.Decimal            `gorm:"column:final_amount;type:numeric(12,2);not null"`
	DeliveryInformation types.DeliveryInformation  `gorm:"column:delivery_information;type:jsonb"`
	Payment             types.PaymentInfo          `gorm:"column:payment;type:jsonb"`
	PrescriptionDetails *types.PrescriptionDetails `gorm:"column:prescription_details;type:jsonb"`
	Notes               *string                    `gorm:"column:notes"`

	ApprovedBy         *uuid.UUID `gorm:"column:approved_by;type:uuid"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	RejectedBy         *uuid.UUID `gorm:"column:rejected_by;type:uuid"`
	RejectedAt         *time.Time `gorm:"column:rejected_at"`
	RejectionReason    *string    `gorm:"column:rejection_reason"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	if o.Priority == "" {
		o.Priority = enums.OrderPriorityNormal
	}
	return nil
}

// OrderLineItem snapshots the item identity and price at order time.
type OrderLineItem struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID    uuid.UUID               `gorm:"column:item_id;type:uuid;not null;index"`
	SKU       string                  `gorm:"column:sku;not null"`
	Name      string                  `gorm:"column:name;not null"`
	Category  enums.InventoryCategory `gorm:"column:category;type:text;not null"`
	Quantity  int                     `gorm:"column:quantity;not null;check:quantity > 0"`
	UnitPrice decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Notes     *string                 `gorm:"column:notes"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLineItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// OrderStatusEntry is one append-only row of an order's status history.
type OrderStatusEntry struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ActorID   *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	ActorRole *enums.UserRole   `gorm:"column:actor_role;type:text"`
	Reason    *string           `gorm:"column:reason"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusEntry) TableName() string {
	return "order_status_history"
}

func (e *OrderStatusEntry) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
