package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-ml/internal/ml"
)

func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "models"))

	enc := ml.EncoderSet{"user_id": ml.FitLabelEncoder([]string{"4", "2"})}
	require.NoError(t, store.Save(RiskEncoders, enc))
	assert.True(t, store.Exists(RiskEncoders))

	var loaded ml.EncoderSet
	require.NoError(t, store.Load(RiskEncoders, &loaded))
	assert.Equal(t, []string{"2", "4"}, loaded["user_id"].Classes)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	var f ml.Forest
	err := store.Load(RiskModel, &f)
	assert.True(t, IsNotFound(err))
	assert.False(t, store.Exists(RiskModel))
}

func TestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConflictModel), []byte("{not json"), 0o644))

	var f ml.Forest
	err := NewStore(dir).Load(ConflictModel, &f)
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestLazy(t *testing.T) {
	calls := 0
	fail := true
	l := NewLazy(func() (int, error) {
		calls++
		if fail {
			return 0, errors.New("boom")
		}
		return 7, nil
	})

	_, err := l.Get()
	assert.Error(t, err)
	assert.False(t, l.Loaded())

	fail = false
	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, _ = l.Get()
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
	assert.True(t, l.Loaded())
}
