package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

func intPtr(v int) *int { return &v }

func mustLoad(t *testing.T, kind enums.CatalogKind, path string) *Catalog {
	t.Helper()
	c, err := Load(kind, path)
	if err != nil {
		t.Fatalf("load %s: %v", kind, err)
	}
	return c
}

func TestLoadEmbeddedTickets(t *testing.T) {
	t.Parallel()

	c := mustLoad(t, enums.CatalogTickets, "")
	if c.Kind() != enums.CatalogTickets {
		t.Fatalf("kind = %s", c.Kind())
	}
	if len(c.Items()) != 7 {
		t.Fatalf("expected 7 tickets, got %d", len(c.Items()))
	}

	item, ok := c.Get("guidee-etudiant")
	if !ok {
		t.Fatalf("guidee-etudiant missing")
	}
	if !item.UnitPrice.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unit price = %s, want 1500", item.UnitPrice)
	}
	if item.Bounded() {
		t.Fatalf("tickets are unbounded")
	}
	if got := item.Clamp(1000); got != 1000 {
		t.Fatalf("clamp on unbounded item = %d", got)
	}
}

func TestLoadEmbeddedMerchandise(t *testing.T) {
	t.Parallel()

	c := mustLoad(t, enums.CatalogMerchandise, "")
	if len(c.Items()) != 4 {
		t.Fatalf("expected 4 items, got %d", len(c.Items()))
	}
	if got, want := c.Categories(), []string{"Textile", "Accessoires", "Papeterie"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}

	filters := []struct {
		category string
		want     int
	}{
		{"Textile", 2},
		{"all", 4},
		{"", 4},
		{"Sculpture", 0},
	}
	for _, f := range filters {
		if got := len(c.Filter(f.category)); got != f.want {
			t.Fatalf("filter %q: got %d items, want %d", f.category, got, f.want)
		}
	}

	poster, ok := c.Get("poster-oeuvre")
	if !ok || poster.AvailableStock == nil {
		t.Fatalf("poster-oeuvre missing or unbounded")
	}
	if *poster.AvailableStock != 15 || poster.Clamp(20) != 15 {
		t.Fatalf("poster stock = %d clamp(20) = %d", *poster.AvailableStock, poster.Clamp(20))
	}
}

func TestNewReportsEveryViolation(t *testing.T) {
	t.Parallel()

	_, err := New(enums.CatalogMerchandise, []Item{
		{ID: "a", UnitPrice: decimal.NewFromInt(-1)},
		{ID: "a", UnitPrice: decimal.NewFromInt(1)},
		{ID: "", UnitPrice: decimal.NewFromInt(1)},
		{ID: "b", UnitPrice: decimal.NewFromInt(1), AvailableStock: intPtr(-2)},
	})
	if err == nil {
		t.Fatalf("expected violations")
	}
	if got := len(multierr.Errors(unwrapOnce(err))); got != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", got, err)
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := New("posters", nil); err == nil {
		t.Fatalf("expected unknown catalog kind to be rejected")
	}
}

func TestLoadFromPathOverridesEmbedded(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tickets.json")
	if err := os.WriteFile(path, []byte(`[{"id":"soiree","label":"Nocturne","unit_price":"7000","is_available":true}]`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := mustLoad(t, enums.CatalogTickets, path)
	if len(c.Items()) != 1 {
		t.Fatalf("expected 1 item, got %d", len(c.Items()))
	}
	if _, ok := c.Get("libre-plein"); ok {
		t.Fatalf("embedded item leaked into the override")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	c := mustLoad(t, enums.CatalogTickets, "")
	items := c.Items()
	items[0].Label = "mutated"
	if first, _ := c.Get(items[0].ID); first.Label == "mutated" {
		t.Fatalf("Items must return a copy")
	}
}

func unwrapOnce(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return err
}
