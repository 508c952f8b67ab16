package enums

import "slices"

// NotificationType maps to the notification_type column.
type NotificationType string

const (
	NotificationTypeOrderPlaced NotificationType = "order_placed"
	NotificationTypeOrderStatus NotificationType = "order_status"
	NotificationTypeLowStock    NotificationType = "low_stock"
	NotificationTypeExpiryAlert NotificationType = "expiry_alert"
	NotificationTypeReminder    NotificationType = "reminder"
	NotificationTypeSystem      NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderStatus,
	NotificationTypeLowStock,
	NotificationTypeExpiryAlert,
	NotificationTypeReminder,
	NotificationTypeSystem,
}

func (n NotificationType) IsValid() bool {
	return slices.Contains(validNotificationTypes, n)
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	return parse("notification type", validNotificationTypes, value)
}
