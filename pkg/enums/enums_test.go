package enums

import (
	"testing"
	"time"
)

func TestParseOrderStatus(t *testing.T) {
	for _, status := range ValidOrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil || got != status {
			t.Fatalf("expected %s to parse, got %s err=%v", status, got, err)
		}
	}
	if _, err := ParseOrderStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusRejected:  true,
		OrderStatusCancelled: true,
		OrderStatusCompleted: true,
	}
	for _, status := range ValidOrderStatuses() {
		if status.IsTerminal() != terminal[status] {
			t.Fatalf("unexpected terminal flag for %s", status)
		}
	}
}

func TestRestrictedCategories(t *testing.T) {
	if !InventoryCategoryMedication.IsRestricted() || !InventoryCategoryMedicalEquipment.IsRestricted() {
		t.Fatal("medication and medical equipment must be restricted")
	}
	if InventoryCategorySupplies.IsRestricted() {
		t.Fatal("supplies must not be restricted")
	}
}

func TestReminderFrequencyNext(t *testing.T) {
	base := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)

	if next, ok := ReminderFrequencyDaily.Next(base, base); !ok || !next.Equal(base.Add(24*time.Hour)) {
		t.Fatalf("unexpected daily next %v", next)
	}
	if next, ok := ReminderFrequencyWeekly.Next(base, base); !ok || !next.Equal(base.AddDate(0, 0, 7)) {
		t.Fatalf("unexpected weekly next %v", next)
	}
	if _, ok := ReminderFrequencyOnce.Next(base, base); ok {
		t.Fatal("once reminders have no next occurrence")
	}

	// month-end anchors clamp to short months and then recover
	want := []time.Time{
		time.Date(2026, time.February, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.April, 30, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.May, 31, 9, 0, 0, 0, time.UTC),
	}
	current := base
	for _, expected := range want {
		next, ok := ReminderFrequencyMonthly.Next(base, current)
		if !ok || !next.Equal(expected) {
			t.Fatalf("monthly after %v: got %v want %v", current, next, expected)
		}
		current = next
	}
	leap := time.Date(2028, time.January, 30, 9, 0, 0, 0, time.UTC)
	if next, _ := ReminderFrequencyMonthly.Next(leap, leap); next.Day() != 29 {
		t.Fatalf("expected Feb 29 in a leap year, got %v", next)
	}
}

func TestParseUserRole(t *testing.T) {
	if role, err := ParseUserRole("doctor"); err != nil || role != UserRoleDoctor {
		t.Fatalf("unexpected role %s err=%v", role, err)
	}
	if _, err := ParseUserRole("nurse"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestOutboxEnumsValidate(t *testing.T) {
	if !EventStockRestored.IsValid() || OutboxEventType("stock_adjusted").IsValid() {
		t.Fatal("unexpected event type validity")
	}
	if !AggregateReminder.IsValid() || OutboxAggregateType("supplier").IsValid() {
		t.Fatal("unexpected aggregate type validity")
	}
	if !OutboxDLQReasonNonRetryable.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatal("unexpected dlq reason validity")
	}
}

func TestParseNamesTheEnum(t *testing.T) {
	if _, err := ParseNotificationType("sms"); err == nil || err.Error() != `invalid notification type "sms"` {
		t.Fatalf("unexpected error %v", err)
	}
	if got, err := ParseInventoryCategory("surgical"); err != nil || got != InventoryCategorySurgical {
		t.Fatalf("unexpected category %s err=%v", got, err)
	}
}
