package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"go.uber.org/multierr"
)

//go:embed fixtures/*.json
var fixtures embed.FS

const categoryAll = "all"

// Catalog is a read-only, ordered set of items for one catalog kind.
type Catalog struct {
	kind  enums.CatalogKind
	items []Item
	index map[string]int
}

// New validates items and builds a catalog. Every violation is reported.
func New(kind enums.CatalogKind, items []Item) (*Catalog, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid catalog kind %q", kind)
	}

	var errs error
	index := make(map[string]int, len(items))
	for pos, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			errs = multierr.Append(errs, fmt.Errorf("item at position %d: id is required", pos))
			continue
		}
		if _, dup := index[id]; dup {
			errs = multierr.Append(errs, fmt.Errorf("item %q: duplicate id", id))
			continue
		}
		if item.UnitPrice.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("item %q: unit price must not be negative", id))
		}
		if item.AvailableStock != nil && *item.AvailableStock < 0 {
			errs = multierr.Append(errs, fmt.Errorf("item %q: available stock must not be negative", id))
		}
		index[id] = pos
	}
	if errs != nil {
		return nil, fmt.Errorf("catalog %s: %w", kind, errs)
	}

	copied := make([]Item, len(items))
	copy(copied, items)
	return &Catalog{kind: kind, items: copied, index: index}, nil
}

// Load reads the fixture for kind from path, or from the embedded fixture when path is empty.
func Load(kind enums.CatalogKind, path string) (*Catalog, error) {
	var (
		raw []byte
		err error
	)
	if strings.TrimSpace(path) != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = fixtures.ReadFile("fixtures/" + string(kind) + ".json")
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s fixture: %w", kind, err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding %s fixture: %w", kind, err)
	}
	return New(kind, items)
}

func (c *Catalog) Kind() enums.CatalogKind {
	return c.kind
}

// Items returns a copy of the items in fixture order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Get(id string) (Item, bool) {
	pos, ok := c.index[strings.TrimSpace(id)]
	if !ok {
		return Item{}, false
	}
	return c.items[pos], true
}

// Categories returns distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range c.items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	return out
}

// Filter returns the items of a category. Empty or "all" returns every item.
func (c *Catalog) Filter(category string) []Item {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, categoryAll) {
		return c.Items()
	}
	var out []Item
	for _, item := range c.items {
		if strings.EqualFold(item.Category, category) {
			out = append(out, item)
		}
	}
	return out
}
