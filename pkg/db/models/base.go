package models

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for schema bootstrap
// on SQLite where the goose Postgres migrations do not apply.
func All() []any {
	return []any{
		&User{},
		&Supplier{},
		&InventoryItem{},
		&Order{},
		&OrderLineItem{},
		&OrderStatusEntry{},
		&Notification{},
		&Reminder{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
