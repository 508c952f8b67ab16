package orders

import (
	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
)

// Categories a patient may order. Medication additionally needs a
// prescription order.
var patientCategories = map[enums.InventoryCategory]struct{}{
	enums.InventoryCategorySupplies:       {},
	enums.InventoryCategoryConsumables:    {},
	enums.InventoryCategoryMedicalDevices: {},
	enums.InventoryCategoryPersonalCare:   {},
	enums.InventoryCategoryMedication:     {},
}

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusApproved, enums.OrderStatusRejected, enums.OrderStatusCancelled},
	enums.OrderStatusApproved:   {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusCompleted},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionError(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot move from "+string(from)+" to "+string(to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

// checkCategory enforces the role allow-list for one line item.
func checkCategory(role enums.UserRole, orderType enums.OrderType, category enums.InventoryCategory) error {
	if role == enums.UserRoleAdmin {
		return nil
	}
	if role == enums.UserRolePatient {
		if _, ok := patientCategories[category]; !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "category "+string(category)+" is not available to patients").
				WithDetails(map[string]any{"category": category})
		}
	}
	if category.IsRestricted() && orderType != enums.OrderTypePrescription {
		return pkgerrors.New(pkgerrors.CodeForbidden, "category "+string(category)+" requires a prescription order").
			WithDetails(map[string]any{"category": category})
	}
	return nil
}

// classify decides the initial status. Admin orders and small clinical
// supply orders from doctors skip the approval queue.
func classify(role enums.UserRole, orderType enums.OrderType, total, autoApprovalThreshold decimal.Decimal) enums.OrderStatus {
	switch role {
	case enums.UserRoleAdmin:
		return enums.OrderStatusApproved
	case enums.UserRoleDoctor:
		if orderType == enums.OrderTypeClinicalSupplies && total.LessThan(autoApprovalThreshold) {
			return enums.OrderStatusApproved
		}
	}
	return enums.OrderStatusPending
}
