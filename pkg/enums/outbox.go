package enums

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateInventory    OutboxAggregateType = "inventory_item"
	AggregateNotification OutboxAggregateType = "notification"
	AggregateReminder     OutboxAggregateType = "reminder"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateOrder, AggregateInventory, AggregateNotification, AggregateReminder:
		return true
	}
	return false
}

// OutboxEventType is the event_type column of outbox_events and the
// event_type attribute on every published message.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderStatusChanged    OutboxEventType = "order_status_changed"
	EventStockReserved         OutboxEventType = "stock_reserved"
	EventStockRestored         OutboxEventType = "stock_restored"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

func (e OutboxEventType) IsValid() bool {
	switch e {
	case EventOrderCreated, EventOrderStatusChanged, EventStockReserved,
		EventStockRestored, EventNotificationRequested:
		return true
	}
	return false
}

// OutboxDLQErrorReason records why the publisher gave up on an event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: transient failures exhausted the attempt budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the row or the broker said retrying cannot help.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
