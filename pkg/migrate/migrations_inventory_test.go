package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE SET NULL",
		"CHECK (current_stock >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_items_sku",
		"DROP TABLE IF EXISTS inventory_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationKeepsHistoryAppendOnly(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE TABLE IF NOT EXISTS order_status_history",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE RESTRICT",
		"CHECK (quantity > 0)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRemindersMigrationIndexesDueAt(t *testing.T) {
	content := readMigration(t, "*_create_reminders.sql")
	if !strings.Contains(content, "ON reminders (active, next_due_at)") {
		t.Fatalf("expected (active, next_due_at) index")
	}
}

func TestUserCredentialsMigrationIsReversible(t *testing.T) {
	content := readMigration(t, "*_add_user_credentials.sql")
	for _, sub := range []string{
		"ADD COLUMN IF NOT EXISTS password_hash",
		"ADD COLUMN IF NOT EXISTS last_login_at",
		"DROP COLUMN IF EXISTS password_hash",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReminderAnchorMigrationBackfills(t *testing.T) {
	content := readMigration(t, "*_add_reminder_starts_at.sql")
	for _, sub := range []string{
		"ADD COLUMN IF NOT EXISTS starts_at",
		"SET starts_at = next_due_at WHERE starts_at IS NULL",
		"ALTER COLUMN starts_at SET NOT NULL",
		"DROP COLUMN IF EXISTS starts_at",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file found for %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
