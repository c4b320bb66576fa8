// Package catalog loads the read-only list of skills from YAML.
//
// A catalog file is either a bare list of items or a document with a
// top-level "skills" list. Order is preserved; it is the tie-break order of
// recommendations.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/skillpulse/internal/domain/model"
)

//go:embed default.yaml
var defaultCatalog []byte

type document struct {
	Skills []model.CatalogItem `yaml:"skills"`
}

// Catalog is an ordered, immutable set of items indexed by id.
type Catalog struct {
	items []model.CatalogItem
	index map[string]int
}

// Load reads the catalog at path. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCatalog, path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var items []model.CatalogItem
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("-")) {
		if err := yaml.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
		}
	} else {
		var doc document
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
		}
		items = doc.Skills
	}
	return New(items)
}

// New builds a catalog from items. Ids must be present and unique.
func New(items []model.CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]model.CatalogItem, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", ErrCatalog, i)
		}
		if _, dup := c.index[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCatalog, item.ID)
		}
		if item.Name == "" {
			item.Name = item.ID
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

// Items returns the items in catalog order. The slice must not be modified.
func (c *Catalog) Items() []model.CatalogItem { return c.items }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// IDs returns every id in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.items))
	for i, item := range c.items {
		out[i] = item.ID
	}
	return out
}
