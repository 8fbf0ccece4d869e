package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrNew_MissingFile(t *testing.T) {
	reg, err := LoadOrNew(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, err)
	assert.Equal(t, currentVersion, reg.Version)
	assert.Empty(t, reg.Models)
}

func TestUpsert_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	reg := New()
	reg.Upsert(ModelEntry{ID: "risk", Task: "classification", Artifacts: []string{"a.json"}, TrainRows: 8}, now)
	reg.Upsert(ModelEntry{ID: "conflict", Task: "classification", Artifacts: []string{"b.json"}}, now)
	reg.Upsert(ModelEntry{ID: "risk", Task: "classification", Artifacts: []string{"a.json"}, TrainRows: 80}, now)
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, loaded.Models, 2)
	assert.Equal(t, "conflict", loaded.Models[0].ID)
	assert.Equal(t, 80, loaded.Models[1].TrainRows)
	assert.Equal(t, "2025-03-03T09:00:00Z", loaded.LastUpdated)

	entry, ok := loaded.Find("risk")
	assert.True(t, ok)
	assert.Equal(t, []string{"a.json"}, entry.Artifacts)
	_, ok = loaded.Find("missing")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	reg := New()
	reg.Models = []ModelEntry{{ID: "risk", Task: "classification", Artifacts: []string{"a.json"}}}
	assert.NoError(t, reg.Validate(nil))
	assert.NoError(t, reg.Validate(func(string) bool { return true }))
	assert.ErrorContains(t, reg.Validate(func(string) bool { return false }), "a.json not found")

	reg.Models = append(reg.Models, ModelEntry{ID: "risk", Task: "x", Artifacts: []string{"c"}})
	assert.ErrorContains(t, reg.Validate(nil), "duplicate")

	reg.Models = []ModelEntry{{ID: "demand", Artifacts: []string{"d"}}}
	assert.ErrorContains(t, reg.Validate(nil), "Task")
}

func TestRemove(t *testing.T) {
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	reg := New()
	reg.Upsert(ModelEntry{ID: "risk", Task: "classification", Artifacts: []string{"a.json"}}, now)
	reg.Upsert(ModelEntry{ID: "demand", Task: "regression", Artifacts: []string{"b.json"}}, now)

	assert.True(t, reg.Remove("risk", now.Add(time.Hour)))
	assert.False(t, reg.Remove("risk", now))
	require.Len(t, reg.Models, 1)
	assert.Equal(t, "demand", reg.Models[0].ID)
	assert.Equal(t, "2025-03-03T10:00:00Z", reg.LastUpdated)
}
