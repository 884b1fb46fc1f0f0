package cart

import (
	"math"
	"math/rand"
	"testing"

	"github.com/angelmondragon/mcn-showcase/internal/catalog"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func ticket() catalog.Item {
	return catalog.Item{ID: "libre-plein", Label: "full-rate ticket", UnitPrice: decimal.NewFromInt(3000), IsAvailable: true}
}

func mug() catalog.Item {
	return catalog.Item{ID: "mug-mcn", Label: "mug", UnitPrice: decimal.NewFromInt(12), AvailableStock: intPtr(40), IsAvailable: true}
}

func TestAddItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		adds      []catalog.Item
		qtys      []int
		itemID    string
		wantQty   int
		wantCount int
		wantTotal int64
	}{
		{name: "unbounded ticket", adds: []catalog.Item{ticket()}, qtys: []int{5}, itemID: "libre-plein", wantQty: 5, wantCount: 5, wantTotal: 15000},
		{name: "clamped to stock", adds: []catalog.Item{mug()}, qtys: []int{45}, itemID: "mug-mcn", wantQty: 40, wantCount: 40, wantTotal: 480},
		{name: "merge", adds: []catalog.Item{ticket(), ticket()}, qtys: []int{2, 3}, itemID: "libre-plein", wantQty: 5, wantCount: 5, wantTotal: 15000},
		{name: "merge clamps to stock", adds: []catalog.Item{mug(), mug()}, qtys: []int{30, 30}, itemID: "mug-mcn", wantQty: 40, wantCount: 40, wantTotal: 480},
	}

	for _, tt := range tests {
		e := New(enums.CatalogTickets)
		for i, item := range tt.adds {
			e.AddItem(item, tt.qtys[i])
		}
		if len(e.Entries()) != 1 {
			t.Fatalf("%s: expected a single entry, got %d", tt.name, len(e.Entries()))
		}
		if got := e.Quantity(tt.itemID); got != tt.wantQty {
			t.Fatalf("%s: quantity = %d, want %d", tt.name, got, tt.wantQty)
		}
		if got := e.ItemCount(); got != tt.wantCount {
			t.Fatalf("%s: item count = %d, want %d", tt.name, got, tt.wantCount)
		}
		if !e.Total().Equal(decimal.NewFromInt(tt.wantTotal)) {
			t.Fatalf("%s: total = %s, want %d", tt.name, e.Total(), tt.wantTotal)
		}
	}
}

func TestAddItemSaturatesInsteadOfOverflowing(t *testing.T) {
	t.Parallel()

	e := New(enums.CatalogTickets)
	e.AddItem(ticket(), math.MaxInt)
	e.AddItem(ticket(), 1)

	if len(e.Entries()) != 1 {
		t.Fatalf("expected the entry to survive, got %d entries", len(e.Entries()))
	}
	if got := e.Quantity("libre-plein"); got != math.MaxInt {
		t.Fatalf("quantity = %d, want %d", got, math.MaxInt)
	}

	e.AddItem(catalog.Item{ID: "guidee-plein", UnitPrice: decimal.NewFromInt(5000), IsAvailable: true}, 3)
	if got := e.ItemCount(); got != math.MaxInt {
		t.Fatalf("item count = %d, want %d", got, math.MaxInt)
	}
}

func TestAddIgnoresInvalidRequests(t *testing.T) {
	t.Parallel()

	e := New(enums.CatalogMerchandise)
	e.AddItem(mug(), 0)
	e.AddItem(mug(), -3)

	closed := mug()
	closed.IsAvailable = false
	e.AddItem(closed, 2)

	soldOut := mug()
	soldOut.AvailableStock = intPtr(0)
	e.AddItem(soldOut, 2)

	if !e.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", e.Entries())
	}
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()

	e := New(enums.CatalogMerchandise)
	e.AddItem(mug(), 2)

	e.UpdateQuantity("mug-mcn", 7)
	if got := e.Quantity("mug-mcn"); got != 7 {
		t.Fatalf("quantity = %d, want 7", got)
	}

	e.UpdateQuantity("mug-mcn", 99)
	if got := e.Quantity("mug-mcn"); got != 40 {
		t.Fatalf("quantity = %d, want stock 40", got)
	}

	e.UpdateQuantity("absent", 3)
	if len(e.Entries()) != 1 {
		t.Fatalf("update of an absent id must not add an entry")
	}
}

func TestUpdateQuantityNonPositiveRemoves(t *testing.T) {
	t.Parallel()

	for _, qty := range []int{0, -1} {
		e := New(enums.CatalogMerchandise)
		e.AddItem(mug(), 2)
		e.UpdateQuantity("mug-mcn", qty)
		if !e.IsEmpty() {
			t.Fatalf("qty %d should remove the entry", qty)
		}
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	t.Parallel()

	e := New(enums.CatalogTickets)
	e.AddItem(ticket(), 1)
	e.RemoveItem("absent")
	e.RemoveItem("absent")
	if e.ItemCount() != 1 || !e.Total().Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("removing an absent id changed the cart: count=%d total=%s", e.ItemCount(), e.Total())
	}

	e.RemoveItem("libre-plein")
	e.RemoveItem("libre-plein")
	if !e.IsEmpty() {
		t.Fatalf("expected empty cart")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	e := New(enums.CatalogMerchandise)
	e.AddItem(mug(), 3)
	e.AddItem(ticket(), 1)
	e.Clear()

	if e.ItemCount() != 0 || !e.Total().IsZero() {
		t.Fatalf("expected zero count and total, got %d and %s", e.ItemCount(), e.Total())
	}
}

func TestEntriesPreserveInsertionOrderAndSubtotals(t *testing.T) {
	t.Parallel()

	e := New(enums.CatalogMerchandise)
	e.AddItem(mug(), 2)
	e.AddItem(ticket(), 1)
	e.AddItem(mug(), 1)

	entries := e.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Item.ID != "mug-mcn" || entries[1].Item.ID != "libre-plein" {
		t.Fatalf("unexpected order %s, %s", entries[0].Item.ID, entries[1].Item.ID)
	}
	if !entries[0].Subtotal.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("mug subtotal = %s, want 36", entries[0].Subtotal)
	}

	entries[0].Quantity = 99
	if got := e.Quantity("mug-mcn"); got != 3 {
		t.Fatalf("entries must be a copy, engine quantity changed to %d", got)
	}
}

func TestConsistencyUnderRandomMutations(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{
		ticket(),
		mug(),
		{ID: "poster-oeuvre", UnitPrice: decimal.NewFromInt(15), AvailableStock: intPtr(15), IsAvailable: true},
		{ID: "guidee-etudiant", UnitPrice: decimal.NewFromInt(1500), IsAvailable: true},
	}
	rng := rand.New(rand.NewSource(42))
	e := New(enums.CatalogMerchandise)

	for step := 0; step < 2000; step++ {
		item := items[rng.Intn(len(items))]
		qty := rng.Intn(30) - 5
		switch rng.Intn(3) {
		case 0:
			e.AddItem(item, qty)
		case 1:
			e.UpdateQuantity(item.ID, qty)
		case 2:
			e.RemoveItem(item.ID)
		}

		count := 0
		total := decimal.Zero
		seen := map[string]bool{}
		for _, entry := range e.Entries() {
			if seen[entry.Item.ID] {
				t.Fatalf("step %d: duplicate entry %s", step, entry.Item.ID)
			}
			seen[entry.Item.ID] = true
			if entry.Quantity < 1 {
				t.Fatalf("step %d: entry %s has quantity %d", step, entry.Item.ID, entry.Quantity)
			}
			if entry.Item.AvailableStock != nil && entry.Quantity > *entry.Item.AvailableStock {
				t.Fatalf("step %d: entry %s exceeds stock", step, entry.Item.ID)
			}
			count += entry.Quantity
			total = total.Add(entry.Item.UnitPrice.Mul(decimal.NewFromInt(int64(entry.Quantity))))
		}
		if count != e.ItemCount() {
			t.Fatalf("step %d: count %d != %d", step, count, e.ItemCount())
		}
		if !total.Equal(e.Total()) {
			t.Fatalf("step %d: total %s != %s", step, total, e.Total())
		}
	}
}
