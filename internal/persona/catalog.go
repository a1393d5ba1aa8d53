// Package persona holds the immutable catalog of behavioral archetypes.
package persona

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// Catalog exposes read-only persona retrieval.
type Catalog interface {
	List() []model.Persona
	FindByID(id string) (model.Persona, bool)
}

// MemoryCatalog implements Catalog over an in-memory slice.
type MemoryCatalog struct {
	items []model.Persona
}

// NewMemoryCatalog returns a MemoryCatalog preloaded with the supplied
// personas.
func NewMemoryCatalog(items []model.Persona) *MemoryCatalog {
	return &MemoryCatalog{items: append([]model.Persona(nil), items...)}
}

// LoadFile reads a JSON persona catalog from disk.
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona catalog: %w", err)
	}

	var items []model.Persona
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse persona catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("persona catalog %s is empty", path)
	}
	for i, p := range items {
		if p.ID == "" {
			return nil, fmt.Errorf("persona at index %d has no id", i)
		}
	}

	return NewMemoryCatalog(items), nil
}

// List returns a copy of the catalog.
func (c *MemoryCatalog) List() []model.Persona {
	return append([]model.Persona(nil), c.items...)
}

// FindByID looks up a persona by identifier.
func (c *MemoryCatalog) FindByID(id string) (model.Persona, bool) {
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return model.Persona{}, false
}

// Select resolves a configuration selection: a single persona id, or "all".
func (c *MemoryCatalog) Select(selection string) ([]model.Persona, error) {
	if selection == "all" {
		return c.List(), nil
	}
	p, ok := c.FindByID(selection)
	if !ok {
		return nil, fmt.Errorf("unknown persona %q", selection)
	}
	return []model.Persona{p}, nil
}
