package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE SEQUENCE IF NOT EXISTS order_number_seq",
		"CHECK (status IN ('pending', 'paid', 'processing', 'shipping', 'delivered', 'cancelled', 'problem'))",
		"CHECK (shipping_method IN ('delivery', 'pickup'))",
		"CHECK (shipping_fee_satang >= 0)",
		"CHECK (subtotal_satang >= 0)",
		"CHECK (total_satang >= 0)",
		"ux_orders_transaction_ref ON orders (transaction_ref) WHERE transaction_ref IS NOT NULL",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (stock_qty >= 0)",
		"CHECK (price_satang >= 0)",
		"DROP TABLE IF EXISTS products",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPaymentVerificationsMigrationUniqueRef(t *testing.T) {
	content := readMigration(t, "*_create_payment_verifications.sql")

	if !strings.Contains(content, "ux_payment_verifications_transaction_ref") {
		t.Errorf("missing unique transaction_ref index")
	}
}
