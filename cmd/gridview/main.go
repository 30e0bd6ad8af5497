package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/gridcore/internal/config"
	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/database"
	"github.com/jask/gridcore/internal/database/repository"
	"github.com/jask/gridcore/internal/prefs"
	"github.com/jask/gridcore/internal/service"
	"github.com/jask/gridcore/internal/tui"
)

func main() {
	importPath := flag.String("import", "", "CSV file to import before opening")
	name := flag.String("dataset", "", "dataset to open (defaults to the imported file or the first dataset)")
	exportDir := flag.String("export-dir", ".", "directory for exported files")
	reset := flag.Bool("reset", false, "delete every stored dataset and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	db, err := database.OpenMigrated(cfg.Database.Path, cfg.Database.MigrationsPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if *reset {
		if err := (&service.MaintenanceService{DB: db}).Reset(ctx); err != nil {
			log.Fatalf("reset: %v", err)
		}
		fmt.Println("all datasets removed")
		return
	}

	if *importPath != "" {
		dsName, err := importCSV(ctx, db, *importPath, *name)
		if err != nil {
			log.Fatalf("import: %v", err)
		}
		*name = dsName
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		log.Fatalf("seed defaults: %v", err)
	}

	datasets := repository.NewDatasetRepo(db)
	ds, err := pickDataset(ctx, datasets, *name)
	if err != nil {
		log.Fatalf("dataset: %v", err)
	}
	cols, err := repository.NewColumnRepo(db).List(ctx, ds.ID)
	if err != nil {
		log.Fatalf("columns: %v", err)
	}

	provider := &service.Provider{Rows: repository.NewRowRepo(db), DatasetID: ds.ID}
	opts := cfg.Grid.Options()
	opts.Provider = provider
	opts.Logger = logger.With("dataset", ds.Name)
	ctl := controller.New(opts)
	defer ctl.Close()
	if err := ctl.SetColumns(cols); err != nil {
		log.Fatalf("columns: %v", err)
	}
	layouts := loadLayout(ctl, ds.ID)

	app := tui.New(ctx, ctl, tui.Deps{
		Name:       ds.Name,
		Provider:   provider,
		ExportDir:  *exportDir,
		DateFormat: cfg.UI.DateFormat,
		Truncation: cfg.UI.Truncation,
		Logger:     logger,
		Layouts:    layouts,
		DatasetID:  ds.ID,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// importCSV loads path into a dataset named name, or the file's base name.
func importCSV(ctx context.Context, db *sql.DB, path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	res, err := (&service.IngestService{DB: db}).ImportCSV(ctx, f, name)
	if err != nil {
		return "", err
	}
	for _, e := range res.Errors {
		slog.Warn("import", "file", path, "err", e)
	}
	fmt.Printf("imported %d rows into %q (%d skipped)\n", res.Imported, name, res.Skipped)
	return name, nil
}

func pickDataset(ctx context.Context, repo *repository.DatasetRepo, name string) (repository.Dataset, error) {
	if name != "" {
		return repo.GetByName(ctx, name)
	}
	if ds, err := repo.GetByName(ctx, database.SampleDataset); err == nil {
		return ds, nil
	}
	all, err := repo.List(ctx)
	if err != nil {
		return repository.Dataset{}, err
	}
	if len(all) == 0 {
		return repository.Dataset{}, repository.ErrNotFound
	}
	return all[0], nil
}

// newLogger writes text logs to the configured file; the terminal belongs
// to the grid.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h), func() { _ = f.Close() }, nil
}

// loadLayout restores the saved view of datasetID. A nil store disables
// layout saving.
func loadLayout(ctl *controller.Controller, datasetID string) *prefs.Store {
	store, err := prefs.DefaultStore()
	if err != nil {
		log.Printf("warn: layouts disabled: %v", err)
		return nil
	}
	l, ok, err := store.Load(datasetID)
	if err != nil {
		log.Printf("warn: layout: %v", err)
	} else if ok {
		prefs.Apply(ctl, l)
	}
	return &store
}
