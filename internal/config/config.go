package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/selection"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Grid     GridConfig     `mapstructure:"grid"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// GridConfig holds engine tuning. Durations are in milliseconds.
type GridConfig struct {
	RowHeight           float64 `mapstructure:"row_height"`
	Overscan            int     `mapstructure:"overscan"`
	Virtualize          bool    `mapstructure:"virtualize"`
	PerformanceMode     string  `mapstructure:"performance_mode"`
	RenderBudgetMS      int     `mapstructure:"render_budget_ms"`
	VirtualizeThreshold int     `mapstructure:"virtualize_threshold"`
	SampleSize          int     `mapstructure:"sample_size"`
	SearchDebounceMS    int     `mapstructure:"search_debounce_ms"`
	LoadDebounceMS      int     `mapstructure:"load_debounce_ms"`
	SelectionMode       string  `mapstructure:"selection_mode"`
	MaxSelections       int     `mapstructure:"max_selections"`
	Editable            bool    `mapstructure:"editable"`
	PageSize            int     `mapstructure:"page_size"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat string `mapstructure:"date_format"`
	Truncation string `mapstructure:"truncation"`
}

// LogConfig controls the slog handler. The terminal belongs to the grid, so
// logs go to a file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Path returns the config file location: $GRIDCORE_CONFIG or
// ~/.config/gridcore/config.toml.
func Path() string {
	if p := os.Getenv("GRIDCORE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "gridcore", "config.toml")
}

func setDefaults(v *viper.Viper) {
	share := filepath.Join(os.Getenv("HOME"), ".local", "share", "gridcore")
	v.SetDefault("database.path", filepath.Join(share, "gridcore.db"))
	v.SetDefault("database.migrations_path", filepath.Join("internal", "database", "migrations"))

	v.SetDefault("grid.row_height", 1)
	v.SetDefault("grid.overscan", controller.DefaultOverscan)
	v.SetDefault("grid.virtualize", true)
	v.SetDefault("grid.performance_mode", string(perf.Auto))
	v.SetDefault("grid.render_budget_ms", int(perf.DefaultBudget/time.Millisecond))
	v.SetDefault("grid.virtualize_threshold", perf.DefaultThreshold)
	v.SetDefault("grid.sample_size", perf.DefaultSampleSize)
	v.SetDefault("grid.search_debounce_ms", int(controller.DefaultSearchDebounce/time.Millisecond))
	v.SetDefault("grid.load_debounce_ms", int(controller.DefaultLoadDebounce/time.Millisecond))
	v.SetDefault("grid.selection_mode", string(selection.Multiple))
	v.SetDefault("grid.max_selections", 0)
	v.SetDefault("grid.editable", true)
	v.SetDefault("grid.page_size", 0)

	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.truncation", "…")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(share, "gridcore.log"))
}

// Load reads configuration from file and env. Env var overrides use prefix
// GRIDCORE_, e.g. GRIDCORE_GRID_OVERSCAN=10.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("GRIDCORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations_path", cfg.Database.MigrationsPath)
	v.Set("grid.row_height", cfg.Grid.RowHeight)
	v.Set("grid.overscan", cfg.Grid.Overscan)
	v.Set("grid.virtualize", cfg.Grid.Virtualize)
	v.Set("grid.performance_mode", cfg.Grid.PerformanceMode)
	v.Set("grid.render_budget_ms", cfg.Grid.RenderBudgetMS)
	v.Set("grid.virtualize_threshold", cfg.Grid.VirtualizeThreshold)
	v.Set("grid.sample_size", cfg.Grid.SampleSize)
	v.Set("grid.search_debounce_ms", cfg.Grid.SearchDebounceMS)
	v.Set("grid.load_debounce_ms", cfg.Grid.LoadDebounceMS)
	v.Set("grid.selection_mode", cfg.Grid.SelectionMode)
	v.Set("grid.max_selections", cfg.Grid.MaxSelections)
	v.Set("grid.editable", cfg.Grid.Editable)
	v.Set("grid.page_size", cfg.Grid.PageSize)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.truncation", cfg.UI.Truncation)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Options maps the grid section onto controller options. Provider, logger
// and scheduler are left for the caller.
func (g GridConfig) Options() controller.Options {
	o := controller.DefaultOptions()
	if g.RowHeight > 0 {
		o.RowHeight = g.RowHeight
	}
	o.Overscan = max(g.Overscan, 0)
	o.Virtualize = g.Virtualize
	o.PerformanceMode = perf.ParseMode(g.PerformanceMode)
	o.RenderBudget = time.Duration(g.RenderBudgetMS) * time.Millisecond
	o.VirtualizeThreshold = g.VirtualizeThreshold
	o.SampleSize = g.SampleSize
	o.SearchDebounce = time.Duration(max(g.SearchDebounceMS, 0)) * time.Millisecond
	o.LoadDebounce = time.Duration(max(g.LoadDebounceMS, 0)) * time.Millisecond
	o.SelectionMode = selection.ParseMode(g.SelectionMode)
	o.MaxSelections = max(g.MaxSelections, 0)
	o.Editable = g.Editable
	o.PageSize = max(g.PageSize, 0)
	return o
}
