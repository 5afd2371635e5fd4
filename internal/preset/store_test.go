package preset

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsprep/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newStore(t)

	v := 25.0
	settings := Default()
	settings.Filters = []pipeline.FilterPredicate{
		{Column: "temp", Operator: pipeline.OpGE, Value: &v},
	}
	settings.Time.Normalize = true
	settings.Time.Interval = "5"

	saved, err := s.Save("night shift", "lab run", settings)
	require.NoError(t, err)
	assert.Equal(t, Version, saved.Version)
	assert.NotEmpty(t, saved.CreatedAt)

	loaded, err := s.Load("night shift")
	require.NoError(t, err)
	assert.Equal(t, "night shift", loaded.Name)
	assert.Equal(t, "lab run", loaded.Description)
	require.Len(t, loaded.Settings.Filters, 1)
	assert.Equal(t, pipeline.OpGE, loaded.Settings.Filters[0].Operator)
	assert.Equal(t, 5, loaded.Settings.Time.IntervalMinutes())
}

func TestSavedDocumentShape(t *testing.T) {
	s := newStore(t)
	_, err := s.Save("shape", "", Default())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "shape.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"name", "description", "created_at", "version", "settings"} {
		assert.Contains(t, doc, key)
	}

	settings := doc["settings"].(map[string]any)
	outlier := settings["outlier"].(map[string]any)
	assert.Equal(t, "2.5sigma", outlier["method"])
	assert.Equal(t, "drop", outlier["action"])
	tm := settings["time"].(map[string]any)
	assert.Equal(t, "2", tm["interval"])
}

func TestLoadByPath(t *testing.T) {
	s := newStore(t)
	_, err := s.Save("direct", "", Default())
	require.NoError(t, err)

	p, err := s.Load(filepath.Join(s.Dir(), "direct.json"))
	require.NoError(t, err)
	assert.Equal(t, "direct", p.Name)
}

func TestLoadMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Load("nope")
	assert.Error(t, err)
}

func TestListSortsNewestFirstAndSkipsUnreadable(t *testing.T) {
	s := newStore(t)

	older := Preset{Name: "older", CreatedAt: "2024-01-01T00:00:00Z", Version: Version, Settings: Default()}
	newer := Preset{Name: "newer", CreatedAt: "2025-01-01T00:00:00Z", Version: Version, Settings: Default()}
	for _, p := range []Preset{older, newer} {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), p.Name+".json"), data, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{not json"), 0644))

	infos := s.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "newer", infos[0].Name)
	assert.Equal(t, "older", infos[1].Name)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	_, err := s.Save("gone", "", Default())
	require.NoError(t, err)

	require.NoError(t, s.Delete("gone"))
	_, err = s.Load("gone")
	assert.Error(t, err)

	err = s.Delete("gone")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	s := newStore(t)
	_, err := s.Save("travel", "", Default())
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "travel-export.json")
	require.NoError(t, s.Export("travel", outside))

	other := newStore(t)
	name, err := other.Import(outside)
	require.NoError(t, err)
	assert.Equal(t, "travel", name)

	p, err := other.Load("travel")
	require.NoError(t, err)
	assert.Equal(t, Version, p.Version)
}

func TestSafeNameStripsPathCharacters(t *testing.T) {
	assert.Equal(t, "etcpasswd", safeName("../../etc/passwd"))
	assert.Equal(t, "my preset-2", safeName("my preset-2"))
	assert.Equal(t, "한글 이름", safeName("한글 이름"))
}

func TestIntervalMinutesFallback(t *testing.T) {
	assert.Equal(t, 2, TimeSettings{Interval: ""}.IntervalMinutes())
	assert.Equal(t, 2, TimeSettings{Interval: "abc"}.IntervalMinutes())
	assert.Equal(t, 2, TimeSettings{Interval: "-3"}.IntervalMinutes())
	assert.Equal(t, 7, TimeSettings{Interval: " 7 "}.IntervalMinutes())
}
