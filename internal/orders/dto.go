package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
	"github.com/medimitra/medimitra-backend/pkg/types"
)

// Actor identifies the caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

type OrderItemInput struct {
	ItemID   uuid.UUID `json:"item" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type CreateOrderInput struct {
	OrderType           enums.OrderType            `json:"orderType" validate:"required"`
	Priority            enums.OrderPriority        `json:"priority,omitempty"`
	Items               []OrderItemInput           `json:"items" validate:"required,min=1,dive"`
	DeliveryInformation types.DeliveryInformation  `json:"deliveryInformation"`
	Payment             types.PaymentInfo          `json:"payment"`
	PrescriptionDetails *types.PrescriptionDetails `json:"prescriptionDetails,omitempty"`
	Notes               *string                    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ApproveOrderInput struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type RejectOrderInput struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type CancelOrderInput struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

type UpdateStatusInput struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
	Notes  *string           `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListOrdersInput filters the order list. UserID is ignored for non-admins.
type ListOrdersInput struct {
	Status     *enums.OrderStatus
	OrderType  *enums.OrderType
	Priority   *enums.OrderPriority
	UserID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

type OrderDTO struct {
	ID                  uuid.UUID                  `json:"id"`
	OrderNumber         string                     `json:"orderNumber"`
	UserID              uuid.UUID                  `json:"userId"`
	UserRole            enums.UserRole             `json:"userRole"`
	OrderType           enums.OrderType            `json:"orderType"`
	Priority            enums.OrderPriority        `json:"priority"`
	Status              enums.OrderStatus          `json:"status"`
	RequiresApproval    bool                       `json:"requiresApproval"`
	TotalAmount         decimal.Decimal            `json:"totalAmount"`
	TaxAmount           decimal.Decimal            `json:"taxAmount"`
	ShippingCost        decimal.Decimal            `json:"shippingCost"`
	FinalAmount         decimal.Decimal            `json:"finalAmount"`
	DeliveryInformation types.DeliveryInformation  `json:"deliveryInformation"`
	Payment             types.PaymentInfo          `json:"payment"`
	PrescriptionDetails *types.PrescriptionDetails `json:"prescriptionDetails,omitempty"`
	Notes               *string                    `json:"notes,omitempty"`
	ApprovedBy          *uuid.UUID                 `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time                 `json:"approvedAt,omitempty"`
	RejectedBy          *uuid.UUID                 `json:"rejectedBy,omitempty"`
	RejectedAt          *time.Time                 `json:"rejectedAt,omitempty"`
	RejectionReason     *string                    `json:"rejectionReason,omitempty"`
	CancelledBy         *uuid.UUID                 `json:"cancelledBy,omitempty"`
	CancelledAt         *time.Time                 `json:"cancelledAt,omitempty"`
	CancellationReason  *string                    `json:"cancellationReason,omitempty"`
	CreatedAt           time.Time                  `json:"createdAt"`
	UpdatedAt           time.Time                  `json:"updatedAt"`
}

type LineItemDTO struct {
	ID        uuid.UUID               `json:"id"`
	ItemID    uuid.UUID               `json:"itemId"`
	SKU       string                  `json:"sku"`
	Name      string                  `json:"name"`
	Category  enums.InventoryCategory `json:"category"`
	Quantity  int                     `json:"quantity"`
	UnitPrice decimal.Decimal         `json:"unitPrice"`
	Subtotal  decimal.Decimal         `json:"subtotal"`
	Notes     *string                 `json:"notes,omitempty"`
}

type StatusEntryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	ActorID   *uuid.UUID        `json:"actorId,omitempty"`
	ActorRole *enums.UserRole   `json:"actorRole,omitempty"`
	Reason    *string           `json:"reason,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// OrderDetailDTO is an order with its line items and status history.
type OrderDetailDTO struct {
	OrderDTO
	Items         []LineItemDTO    `json:"items"`
	StatusHistory []StatusEntryDTO `json:"statusHistory"`
}

type TopItemDTO struct {
	ItemID   uuid.UUID       `json:"itemId"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type AnalyticsDTO struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	TotalOrders       int64            `json:"totalOrders"`
	ByStatus          map[string]int64 `json:"byStatus"`
	ByType            map[string]int64 `json:"byType"`
	Revenue           decimal.Decimal  `json:"revenue"`
	AverageOrderValue decimal.Decimal  `json:"averageOrderValue"`
	PendingApproval   int64            `json:"pendingApproval"`
	TopItems          []TopItemDTO     `json:"topItems"`
}

func FromModel(order models.Order) OrderDTO {
	return OrderDTO{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		UserID:              order.UserID,
		UserRole:            order.UserRole,
		OrderType:           order.OrderType,
		Priority:            order.Priority,
		Status:              order.Status,
		RequiresApproval:    order.RequiresApproval,
		TotalAmount:         order.TotalAmount,
		TaxAmount:           order.TaxAmount,
		ShippingCost:        order.ShippingCost,
		FinalAmount:         order.FinalAmount,
		DeliveryInformation: order.DeliveryInformation,
		Payment:             order.Payment,
		PrescriptionDetails: order.PrescriptionDetails,
		Notes:               order.Notes,
		ApprovedBy:          order.ApprovedBy,
		ApprovedAt:          order.ApprovedAt,
		RejectedBy:          order.RejectedBy,
		RejectedAt:          order.RejectedAt,
		RejectionReason:     order.RejectionReason,
		CancelledBy:         order.CancelledBy,
		CancelledAt:         order.CancelledAt,
		CancellationReason:  order.CancellationReason,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

func toDetail(order models.Order, items []models.OrderLineItem, history []models.OrderStatusEntry) *OrderDetailDTO {
	detail := &OrderDetailDTO{
		OrderDTO:      FromModel(order),
		Items:         make([]LineItemDTO, 0, len(items)),
		StatusHistory: make([]StatusEntryDTO, 0, len(history)),
	}
	for _, item := range items {
		detail.Items = append(detail.Items, LineItemDTO{
			ID:        item.ID,
			ItemID:    item.ItemID,
			SKU:       item.SKU,
			Name:      item.Name,
			Category:  item.Category,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			Notes:     item.Notes,
		})
	}
	for _, entry := range history {
		detail.StatusHistory = append(detail.StatusHistory, StatusEntryDTO{
			Status:    entry.Status,
			ActorID:   entry.ActorID,
			ActorRole: entry.ActorRole,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		})
	}
	return detail
}
