package reconcore

import (
	"reflect"
	"testing"
)

func TestStaticSchemaCatalog(t *testing.T) {
	catalog := NewStaticSchemaCatalog(map[string][]string{
		"Customers": {"customer_id", "first_name", "last_name"},
	})

	columns, ok := catalog.Columns("customers")
	if !ok {
		t.Fatal("expected case-insensitive table lookup to succeed")
	}
	if !reflect.DeepEqual(columns, []string{"customer_id", "first_name", "last_name"}) {
		t.Errorf("unexpected columns: %v", columns)
	}

	if _, ok := catalog.Columns("orders"); ok {
		t.Error("expected unknown table to report not found")
	}
}

func TestHasColumn(t *testing.T) {
	catalog := NewStaticSchemaCatalog(map[string][]string{
		"customers": {"customer_id", "First_Name"},
	})

	tests := []struct {
		name     string
		table    string
		column   string
		expected bool
	}{
		{"known column", "customers", "customer_id", true},
		{"case-insensitive column", "customers", "first_name", true},
		{"unknown column", "customers", "email", false},
		{"unknown table", "orders", "customer_id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasColumn(catalog, tt.table, tt.column); got != tt.expected {
				t.Errorf("HasColumn(%q, %q) = %v, expected %v", tt.table, tt.column, got, tt.expected)
			}
		})
	}
}
