package enums

import "slices"

// OrderType describes what an order is for.
type OrderType string

const (
	OrderTypePrescription     OrderType = "prescription"
	OrderTypeClinicalSupplies OrderType = "clinical_supplies"
	OrderTypePersonalSupplies OrderType = "personal_supplies"
	OrderTypeEquipment        OrderType = "equipment"
	OrderTypeEmergency        OrderType = "emergency"
)

var validOrderTypes = []OrderType{
	OrderTypePrescription,
	OrderTypeClinicalSupplies,
	OrderTypePersonalSupplies,
	OrderTypeEquipment,
	OrderTypeEmergency,
}

func (t OrderType) String() string {
	return string(t)
}

func (t OrderType) IsValid() bool {
	return slices.Contains(validOrderTypes, t)
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	return parse("order type", validOrderTypes, value)
}

// OrderPriority ranks orders for fulfilment.
type OrderPriority string

const (
	OrderPriorityLow    OrderPriority = "low"
	OrderPriorityNormal OrderPriority = "normal"
	OrderPriorityHigh   OrderPriority = "high"
	OrderPriorityUrgent OrderPriority = "urgent"
)

var validOrderPriorities = []OrderPriority{
	OrderPriorityLow,
	OrderPriorityNormal,
	OrderPriorityHigh,
	OrderPriorityUrgent,
}

func (p OrderPriority) String() string {
	return string(p)
}

func (p OrderPriority) IsValid() bool {
	return slices.Contains(validOrderPriorities, p)
}

// ParseOrderPriority converts raw input into an OrderPriority.
func ParseOrderPriority(value string) (OrderPriority, error) {
	return parse("order priority", validOrderPriorities, value)
}
