package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")

	store, err := Load(path, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 8, store.Capacity())
	assert.Equal(t, path, store.Path())

	_, ok := store.Latest()
	assert.False(t, ok)
}

func TestLoadInvalidCapacity(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "saves.jsonl"), 0)
	assert.Error(t, err)
}

func TestPushAndLatest(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "saves.jsonl"), 4)
	require.NoError(t, err)

	require.NoError(t, store.Push(NewSnapshot("first")))
	require.NoError(t, store.Push(NewSnapshot("second")))

	latest, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, "second", latest.SaveCode)
	assert.Equal(t, 2, store.Len())
}

func TestPushRejectsEmptySaveCode(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "saves.jsonl"), 4)
	require.NoError(t, err)

	err = store.Push(Snapshot{SavedAt: time.Now()})
	assert.ErrorIs(t, err, ErrEmptySaveCode)
	assert.Equal(t, 0, store.Len())
}

func TestPushEvictsOldest(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "saves.jsonl"), 3)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Push(NewSnapshot(fmt.Sprintf("code-%d", i))))
	}

	assert.Equal(t, 3, store.Len())

	entries := store.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "code-3", entries[0].SaveCode)
	assert.Equal(t, "code-4", entries[1].SaveCode)
	assert.Equal(t, "code-5", entries[2].SaveCode)
}

func TestReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")

	store, err := Load(path, 16)
	require.NoError(t, err)

	stamp := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, store.Push(Snapshot{SavedAt: stamp, SaveCode: "alpha"}))
	require.NoError(t, store.Push(Snapshot{SavedAt: stamp.Add(time.Minute), SaveCode: "beta"}))

	reloaded, err := Load(path, 16)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Len())

	entries := reloaded.Entries()
	assert.Equal(t, "alpha", entries[0].SaveCode)
	assert.True(t, entries[0].SavedAt.Equal(stamp))
	assert.Equal(t, "beta", entries[1].SaveCode)
}

func TestReloadAfterEviction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")

	store, err := Load(path, 2)
	require.NoError(t, err)

	require.NoError(t, store.Push(NewSnapshot("one")))
	require.NoError(t, store.Push(NewSnapshot("two")))
	require.NoError(t, store.Push(NewSnapshot("three")))

	reloaded, err := Load(path, 2)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Len())

	entries := reloaded.Entries()
	assert.Equal(t, "two", entries[0].SaveCode)
	assert.Equal(t, "three", entries[1].SaveCode)
}

func TestLoadTruncatesToCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")

	store, err := Load(path, 10)
	require.NoError(t, err)
	for i := 1; i <= 6; i++ {
		require.NoError(t, store.Push(NewSnapshot(fmt.Sprintf("code-%d", i))))
	}

	// A later deployment may lower the bound; only the newest survive.
	reloaded, err := Load(path, 2)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Len())

	entries := reloaded.Entries()
	assert.Equal(t, "code-5", entries[0].SaveCode)
	assert.Equal(t, "code-6", entries[1].SaveCode)
}

func TestLoadCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")
	content := `{"saved_at":"2025-03-14T09:26:53Z","save_code":"ok"}` + "\nnot json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
}

func TestLoadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")
	content := `{"saved_at":"2025-03-14T09:26:53Z","save_code":"ok"}` + "\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := Load(path, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestLongSaveCodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.jsonl")

	store, err := Load(path, 4)
	require.NoError(t, err)

	long := strings.Repeat("Mi4wNTJ8fA==", 20000)
	require.NoError(t, store.Push(NewSnapshot(long)))

	reloaded, err := Load(path, 4)
	require.NoError(t, err)

	latest, ok := reloaded.Latest()
	require.True(t, ok)
	assert.Equal(t, long, latest.SaveCode)
}

func TestEntriesReturnsCopy(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "saves.jsonl"), 4)
	require.NoError(t, err)
	require.NoError(t, store.Push(NewSnapshot("original")))

	entries := store.Entries()
	entries[0].SaveCode = "mutated"

	latest, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, "original", latest.SaveCode)
}

func TestPushCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "saves.jsonl")

	store, err := Load(path, 4)
	require.NoError(t, err)
	require.NoError(t, store.Push(NewSnapshot("code")))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
