// Package prefs remembers how each dataset was last viewed.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jask/gridcore/internal/controller"
	"github.com/jask/gridcore/internal/filtering"
	"github.com/jask/gridcore/internal/perf"
	"github.com/jask/gridcore/internal/sorting"
)

const layoutsFile = "layouts.json"

// Layout is the restorable part of a grid view.
type Layout struct {
	Sort            sorting.Spec       `json:"sort,omitempty"`
	Filters         []filtering.Filter `json:"filters,omitempty"`
	PerformanceMode perf.Mode          `json:"performanceMode,omitempty"`
	Virtualized     *bool              `json:"virtualized,omitempty"`
}

// Store reads and writes layouts keyed by dataset id.
type Store struct {
	Dir string
}

// DefaultStore keeps layouts next to the user config.
func DefaultStore() (Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: filepath.Join(dir, "gridcore")}, nil
}

func (s Store) path() string { return filepath.Join(s.Dir, layoutsFile) }

func (s Store) loadAll() (map[string]Layout, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Layout{}, nil
		}
		return nil, err
	}
	all := map[string]Layout{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse %s: %w", layoutsFile, err)
	}
	return all, nil
}

// Load returns the saved layout for datasetID; ok is false when none exists.
func (s Store) Load(datasetID string) (Layout, bool, error) {
	all, err := s.loadAll()
	if err != nil {
		return Layout{}, false, err
	}
	l, ok := all[datasetID]
	return l, ok, nil
}

// Save replaces the layout for datasetID. The file is swapped in atomically.
func (s Store) Save(datasetID string, l Layout) error {
	all, err := s.loadAll()
	if err != nil {
		return err
	}
	all[datasetID] = l
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

// Capture snapshots the restorable state of v.
func Capture(v controller.View) Layout {
	virt := v.Virtualize
	return Layout{
		Sort:            v.Sort,
		Filters:         v.Filters,
		PerformanceMode: v.PerformanceMode,
		Virtualized:     &virt,
	}
}

// Apply restores l onto ctl. Sort keys and filters naming columns that no
// longer exist are dropped by the controller.
func Apply(ctl *controller.Controller, l Layout) {
	if l.PerformanceMode != "" {
		ctl.SetPerformanceMode(perf.ParseMode(string(l.PerformanceMode)))
	}
	if l.Virtualized != nil {
		ctl.SetVirtualization(*l.Virtualized)
	}
	if len(l.Sort) > 0 {
		ctl.SetSort(l.Sort)
	}
	for _, f := range l.Filters {
		ctl.SetFilter(f)
	}
}
