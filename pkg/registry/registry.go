// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const currentVersion = "1.0.0"

func New() *ModelRegistry {
	return &ModelRegistry{Version: currentVersion, Models: []ModelEntry{}}
}

func LoadRegistry(path string) (*ModelRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ModelRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// LoadOrNew is LoadRegistry with a missing file treated as an empty registry.
func LoadOrNew(path string) (*ModelRegistry, error) {
	reg, err := LoadRegistry(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	return reg, err
}

// Save writes the registry as indented JSON, creating the directory.
func (r *ModelRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Upsert replaces the entry with the same ID or adds it, keeping entries
// sorted by ID.
func (r *ModelRegistry) Upsert(entry ModelEntry, now time.Time) {
	r.LastUpdated = now.UTC().Format(time.RFC3339)
	for i := range r.Models {
		if r.Models[i].ID == entry.ID {
			r.Models[i] = entry
			return
		}
	}
	r.Models = append(r.Models, entry)
	sort.Slice(r.Models, func(i, j int) bool { return r.Models[i].ID < r.Models[j].ID })
}

func (r *ModelRegistry) Find(id string) (ModelEntry, bool) {
	for _, m := range r.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelEntry{}, false
}

// Remove drops the entry with id and reports whether it existed.
func (r *ModelRegistry) Remove(id string, now time.Time) bool {
	for i := range r.Models {
		if r.Models[i].ID == id {
			r.Models = append(r.Models[:i], r.Models[i+1:]...)
			r.LastUpdated = now.UTC().Format(time.RFC3339)
			return true
		}
	}
	return false
}

// Validate checks required fields, duplicate IDs and, when exists is non-nil,
// that every listed artifact is present.
func (r *ModelRegistry) Validate(exists func(artifact string) bool) error {
	ids := make(map[string]bool)
	for _, m := range r.Models {
		if m.ID == "" {
			return fmt.Errorf("model missing required field: ID")
		}
		if ids[m.ID] {
			return fmt.Errorf("duplicate model ID: %s", m.ID)
		}
		ids[m.ID] = true
		if m.Task == "" {
			return fmt.Errorf("model %s missing required field: Task", m.ID)
		}
		if len(m.Artifacts) == 0 {
			return fmt.Errorf("model %s lists no artifacts", m.ID)
		}
		if exists == nil {
			continue
		}
		for _, a := range m.Artifacts {
			if !exists(a) {
				return fmt.Errorf("model %s: artifact %s not found", m.ID, a)
			}
		}
	}
	return nil
}
