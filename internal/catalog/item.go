package catalog

import "github.com/shopspring/decimal"

// Item is one purchasable line item definition: a ticket tier or a boutique product.
type Item struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	Image          string          `json:"image,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableStock *int            `json:"available_stock,omitempty"`
	IsAvailable    bool            `json:"is_available"`
}

// Bounded reports whether the item carries a stock ceiling.
func (i Item) Bounded() bool {
	return i.AvailableStock != nil
}

// Clamp caps qty to the available stock when the item is bounded.
func (i Item) Clamp(qty int) int {
	if i.AvailableStock != nil && qty > *i.AvailableStock {
		return *i.AvailableStock
	}
	return qty
}
