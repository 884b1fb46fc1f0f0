package enums

import (
	"fmt"
	"strings"
)

// CatalogKind names one of the purchasable catalogs. Each kind gets its own cart.
type CatalogKind string

const (
	CatalogTickets     CatalogKind = "tickets"
	CatalogMerchandise CatalogKind = "merchandise"
)

var validCatalogKinds = []CatalogKind{
	CatalogTickets,
	CatalogMerchandise,
}

// CatalogKinds lists every known catalog in display order.
func CatalogKinds() []CatalogKind {
	return append([]CatalogKind(nil), validCatalogKinds...)
}

// String implements fmt.Stringer.
func (c CatalogKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CatalogKind.
func (c CatalogKind) IsValid() bool {
	for _, candidate := range validCatalogKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCatalogKind converts raw input into a CatalogKind. "boutique" is accepted as the
// storefront alias of the merchandise catalog.
func ParseCatalogKind(value string) (CatalogKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "boutique" {
		return CatalogMerchandise, nil
	}
	for _, candidate := range validCatalogKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog kind %q", value)
}
