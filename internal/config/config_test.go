package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/selection"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GRIDCORE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Grid.Overscan)
	require.Equal(t, 300, cfg.Grid.SearchDebounceMS)
	require.Equal(t, 500, cfg.Grid.LoadDebounceMS)
	require.Equal(t, "auto", cfg.Grid.PerformanceMode)
	require.True(t, cfg.Grid.Editable)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[grid]
overscan = 2
selection_mode = "single"
max_selections = 3
`), 0o600))
	t.Setenv("GRIDCORE_CONFIG", path)
	t.Setenv("GRIDCORE_GRID_OVERSCAN", "9")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Grid.Overscan)
	require.Equal(t, "single", cfg.Grid.SelectionMode)
	require.Equal(t, 3, cfg.Grid.MaxSelections)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[grid\noverscan = "), 0o600))
	t.Setenv("GRIDCORE_CONFIG", path)
	_, err := Load()
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv("GRIDCORE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Grid.PageSize = 200
	cfg.Grid.PerformanceMode = "performance"
	cfg.Database.Path = "/tmp/grid.db"
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestGridOptions(t *testing.T) {
	g := GridConfig{
		RowHeight:        1,
		Overscan:         3,
		PerformanceMode:  "PERFORMANCE",
		RenderBudgetMS:   8,
		SearchDebounceMS: 100,
		LoadDebounceMS:   -5,
		SelectionMode:    "single",
		MaxSelections:    4,
		Editable:         true,
	}
	o := g.Options()
	require.Equal(t, 1.0, o.RowHeight)
	require.Equal(t, 3, o.Overscan)
	require.Equal(t, perf.Performance, o.PerformanceMode)
	require.Equal(t, 8*time.Millisecond, o.RenderBudget)
	require.Equal(t, 100*time.Millisecond, o.SearchDebounce)
	require.Zero(t, o.LoadDebounce)
	require.Equal(t, selection.Single, o.SelectionMode)
	require.Equal(t, 4, o.MaxSelections)
	require.True(t, o.Editable)
}
