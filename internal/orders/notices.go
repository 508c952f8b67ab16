package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
)

func OrderLink(id uuid.UUID) string {
	return "/orders/" + id.String()
}

func placedNotice(order models.Order) notifications.Notice {
	state := "awaiting approval"
	if order.Status == enums.OrderStatusApproved {
		state = "auto-approved"
	}
	return notifications.Notice{
		Audience: notifications.AudienceAdmins,
		Type:     enums.NotificationTypeOrderPlaced,
		Title:    "New order " + order.OrderNumber,
		Message: fmt.Sprintf("A %s placed a %s order (%s priority) totalling %s, %s.",
			order.UserRole, order.OrderType, order.Priority, order.FinalAmount.StringFixed(2), state),
		Link: OrderLink(order.ID),
	}
}

// statusNotice tells the owner about a change made by someone else. When the
// owner acted (self-cancellation) the admins are told instead.
func statusNotice(order models.Order, actor Actor, reason *string) notifications.Notice {
	message := fmt.Sprintf("Order %s is now %s.", order.OrderNumber, order.Status)
	if reason != nil {
		message += " Reason: " + *reason
	}
	notice := notifications.Notice{
		Audience: notifications.AudienceUser,
		UserID:   order.UserID,
		Type:     enums.NotificationTypeOrderStatus,
		Title:    "Order " + order.OrderNumber + " " + string(order.Status),
		Message:  message,
		Link:     OrderLink(order.ID),
	}
	if actor.UserID == order.UserID {
		notice.Audience = notifications.AudienceAdmins
		notice.UserID = uuid.Nil
		notice.Message = fmt.Sprintf("Order %s was %s by its owner.", order.OrderNumber, order.Status)
		if reason != nil {
			notice.Message += " Reason: " + *reason
		}
	}
	return notice
}

func lowStockNotice(item models.InventoryItem) notifications.Notice {
	return inventory.LowStockNotice(item)
}
