// Package cart holds the in-memory cart of one catalog for one visitor session.
package cart

import (
	"math"

	"github.com/angelmondragon/mcn-showcase/internal/catalog"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/shopspring/decimal"
)

// Entry is one line of the cart. Quantity is always >= 1 and never exceeds the
// item's stock when the item is bounded.
type Entry struct {
	Item     catalog.Item    `json:"item"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Snapshot is a detached view of the cart.
type Snapshot struct {
	Catalog   enums.CatalogKind `json:"catalog"`
	Entries   []Entry           `json:"entries"`
	ItemCount int               `json:"item_count"`
	Total     decimal.Decimal   `json:"total"`
}

// Engine applies cart mutations for a single catalog. It is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	kind    enums.CatalogKind
	entries []Entry
}

func New(kind enums.CatalogKind) *Engine {
	return &Engine{kind: kind}
}

func (e *Engine) Kind() enums.CatalogKind {
	return e.kind
}

// AddItem adds qty units of item, merging with an existing entry and clamping to stock.
// Non-positive quantities and unavailable items are ignored.
func (e *Engine) AddItem(item catalog.Item, qty int) {
	if qty < 1 || !item.IsAvailable {
		return
	}
	if pos := e.find(item.ID); pos >= 0 {
		current := e.entries[pos].Quantity
		e.entries[pos].Item = item
		e.setAt(pos, item.Clamp(saturatingAdd(current, qty)))
		return
	}
	clamped := item.Clamp(qty)
	if clamped < 1 {
		return
	}
	e.entries = append(e.entries, Entry{Item: item, Quantity: clamped})
}

// UpdateQuantity sets the quantity of an existing entry. qty <= 0 removes it.
func (e *Engine) UpdateQuantity(itemID string, qty int) {
	if qty <= 0 {
		e.RemoveItem(itemID)
		return
	}
	pos := e.find(itemID)
	if pos < 0 {
		return
	}
	e.setAt(pos, e.entries[pos].Item.Clamp(qty))
}

func (e *Engine) RemoveItem(itemID string) {
	pos := e.find(itemID)
	if pos < 0 {
		return
	}
	e.entries = append(e.entries[:pos], e.entries[pos+1:]...)
}

func (e *Engine) Clear() {
	e.entries = nil
}

func (e *Engine) IsEmpty() bool {
	return len(e.entries) == 0
}

// Total is the sum of unit price times quantity over all entries.
func (e *Engine) Total() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range e.entries {
		total = total.Add(subtotal(entry))
	}
	return total
}

// ItemCount is the sum of quantities over all entries.
func (e *Engine) ItemCount() int {
	count := 0
	for _, entry := range e.entries {
		count = saturatingAdd(count, entry.Quantity)
	}
	return count
}

// Quantity returns the quantity held for itemID, 0 when absent.
func (e *Engine) Quantity(itemID string) int {
	if pos := e.find(itemID); pos >= 0 {
		return e.entries[pos].Quantity
	}
	return 0
}

// Entries returns the entries in insertion order with subtotals filled in.
func (e *Engine) Entries() []Entry {
	out := make([]Entry, len(e.entries))
	for i, entry := range e.entries {
		entry.Subtotal = subtotal(entry)
		out[i] = entry
	}
	return out
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Catalog:   e.kind,
		Entries:   e.Entries(),
		ItemCount: e.ItemCount(),
		Total:     e.Total(),
	}
}

func (e *Engine) setAt(pos, qty int) {
	if qty < 1 {
		e.entries = append(e.entries[:pos], e.entries[pos+1:]...)
		return
	}
	e.entries[pos].Quantity = qty
}

// saturatingAdd adds two non-negative quantities, stopping at math.MaxInt.
func saturatingAdd(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

func (e *Engine) find(itemID string) int {
	for i, entry := range e.entries {
		if entry.Item.ID == itemID {
			return i
		}
	}
	return -1
}

func subtotal(entry Entry) decimal.Decimal {
	return entry.Item.UnitPrice.Mul(decimal.NewFromInt(int64(entry.Quantity)))
}
