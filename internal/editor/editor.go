// Package editor holds the bulk editing session for printers, materials and settings.
//
// Edits land in a working set. Save diffs the working set against the snapshot taken by
// Load and issues the resulting writes concurrently. The writes are independent: when
// some fail, the ones that succeeded stay applied and Save reports ErrSaveFailed.
package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/store"
)

// maxConcurrentWrites bounds the fan-out of a single Save.
const maxConcurrentWrites = 8

var (
	// ErrSaveFailed wraps the aggregated failures of a Save.
	ErrSaveFailed = errors.New("save failed")
	// ErrUnknownAsset is returned when a mutation targets an id absent from the working set.
	ErrUnknownAsset = errors.New("unknown asset")
	ErrNotLoaded    = errors.New("editor not loaded")
)

// Assets is the editable state of one account.
type Assets struct {
	Printers  []entity.Equipment `json:"printers"`
	Materials []entity.Material  `json:"materials"`
	Settings  entity.Settings    `json:"settings"`
}

func (a Assets) clone() Assets {
	return Assets{
		Printers:  append([]entity.Equipment(nil), a.Printers...),
		Materials: append([]entity.Material(nil), a.Materials...),
		Settings:  a.Settings,
	}
}

// equalOpts ignores the order of assets, which Save does not preserve.
var equalOpts = cmp.Options{
	cmpopts.EquateEmpty(),
	cmpopts.SortSlices(func(a, b entity.Equipment) bool { return a.ID < b.ID }),
	cmpopts.SortSlices(func(a, b entity.Material) bool { return a.ID < b.ID }),
}

type Editor struct {
	store store.Store
	log   *zap.Logger

	saveMu sync.Mutex

	mu       sync.Mutex
	loaded   bool
	working  Assets
	snapshot Assets
	// ids of persisted assets removed from the working set
	deletedPrinters  []string
	deletedMaterials []string
}

func New(s store.Store, log *zap.Logger) *Editor {
	return &Editor{store: s, log: log}
}

// Load fetches a fresh snapshot and discards every unsaved edit.
func (e *Editor) Load(ctx context.Context) error {
	var a Assets

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if a.Printers, err = e.store.Equipment.List(gctx); err != nil {
			return fmt.Errorf("list equipment: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if a.Materials, err = e.store.Materials.List(gctx); err != nil {
			return fmt.Errorf("list materials: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if a.Settings, err = e.store.Settings.Get(gctx); err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = a
	e.working = a.clone()
	e.deletedPrinters = nil
	e.deletedMaterials = nil
	e.loaded = true
	return nil
}

// Working returns a copy of the working set.
func (e *Editor) Working() Assets {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.clone()
}

// Dirty reports whether Save would issue any write.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyLocked()
}

func (e *Editor) dirtyLocked() bool {
	if len(e.deletedPrinters) > 0 || len(e.deletedMaterials) > 0 {
		return true
	}
	return !cmp.Equal(e.working, e.snapshot, equalOpts)
}

// AddPrinter appends p to the working set, assigning an id when it has none.
func (e *Editor) AddPrinter(p entity.Equipment) entity.Equipment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addPrinter(p)
}

func (e *Editor) addPrinter(p entity.Equipment) entity.Equipment {
	if p.ID == "" {
		p.ID = entity.NewID()
	}
	e.deletedPrinters = without(e.deletedPrinters, []string{p.ID})
	e.working.Printers = append(e.working.Printers, p)
	return p
}

func (e *Editor) UpdatePrinter(p entity.Equipment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updatePrinter(p)
}

func (e *Editor) updatePrinter(p entity.Equipment) error {
	i := indexOf(e.working.Printers, p.ID, store.EquipmentID)
	if i < 0 {
		return fmt.Errorf("printer %s: %w", p.ID, ErrUnknownAsset)
	}
	e.working.Printers[i] = p
	return nil
}

// RemovePrinter drops id from the working set. A persisted printer is deleted on the next
// Save.
func (e *Editor) RemovePrinter(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removePrinter(id)
}

func (e *Editor) removePrinter(id string) error {
	i := indexOf(e.working.Printers, id, store.EquipmentID)
	if i < 0 {
		return fmt.Errorf("printer %s: %w", id, ErrUnknownAsset)
	}
	e.working.Printers = slices.Delete(e.working.Printers, i, i+1)
	if indexOf(e.snapshot.Printers, id, store.EquipmentID) >= 0 {
		e.deletedPrinters = append(e.deletedPrinters, id)
	}
	return nil
}

// AddMaterial appends m to the working set, assigning an id when it has none. A new spool
// starts full unless a stock is given.
func (e *Editor) AddMaterial(m entity.Material) entity.Material {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addMaterial(m)
}

func (e *Editor) addMaterial(m entity.Material) entity.Material {
	if m.ID == "" {
		m.ID = entity.NewID()
	}
	if m.CurrentStock == 0 {
		m.CurrentStock = m.SpoolWeight
	}
	e.deletedMaterials = without(e.deletedMaterials, []string{m.ID})
	e.working.Materials = append(e.working.Materials, m)
	return m
}

// UpdateMaterial replaces material m.ID in the working set. Stock is taken as given; use
// SetSpoolWeight to load a new spool.
func (e *Editor) UpdateMaterial(m entity.Material) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateMaterial(m)
}

func (e *Editor) updateMaterial(m entity.Material) error {
	i := indexOf(e.working.Materials, m.ID, store.MaterialID)
	if i < 0 {
		return fmt.Errorf("material %s: %w", m.ID, ErrUnknownAsset)
	}
	e.working.Materials[i] = m
	return nil
}

// SetSpoolWeight changes the spool weight of material id. A positive weight also refills
// the current stock to that weight.
func (e *Editor) SetSpoolWeight(id string, grams float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setSpoolWeight(id, grams)
}

func (e *Editor) setSpoolWeight(id string, grams float64) error {
	i := indexOf(e.working.Materials, id, store.MaterialID)
	if i < 0 {
		return fmt.Errorf("material %s: %w", id, ErrUnknownAsset)
	}
	e.working.Materials[i] = e.working.Materials[i].WithSpoolWeight(grams)
	return nil
}

// RemoveMaterial drops id from the working set. A persisted material is deleted on the
// next Save.
func (e *Editor) RemoveMaterial(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeMaterial(id)
}

func (e *Editor) removeMaterial(id string) error {
	i := indexOf(e.working.Materials, id, store.MaterialID)
	if i < 0 {
		return fmt.Errorf("material %s: %w", id, ErrUnknownAsset)
	}
	e.working.Materials = slices.Delete(e.working.Materials, i, i+1)
	if indexOf(e.snapshot.Materials, id, store.MaterialID) >= 0 {
		e.deletedMaterials = append(e.deletedMaterials, id)
	}
	return nil
}

func (e *Editor) SetSettings(s entity.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working.Settings = s
}

// Replace turns the working set into a, applying it through the same mutations as the
// single-asset methods: assets absent from a are removed, unknown ones are added and the
// rest updated. A material whose spool weight changed gets a fresh spool and a new
// material without stock starts full.
func (e *Editor) Replace(a Assets) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range slices.Clone(e.working.Printers) {
		if indexOf(a.Printers, p.ID, store.EquipmentID) < 0 {
			_ = e.removePrinter(p.ID)
		}
	}
	for _, p := range a.Printers {
		if p.ID == "" || e.updatePrinter(p) != nil {
			e.addPrinter(p)
		}
	}

	for _, m := range slices.Clone(e.working.Materials) {
		if indexOf(a.Materials, m.ID, store.MaterialID) < 0 {
			_ = e.removeMaterial(m.ID)
		}
	}
	for _, m := range a.Materials {
		i := -1
		if m.ID != "" {
			i = indexOf(e.working.Materials, m.ID, store.MaterialID)
		}
		if i < 0 {
			e.addMaterial(m)
			continue
		}
		weight := e.working.Materials[i].SpoolWeight
		_ = e.updateMaterial(m)
		if m.SpoolWeight != weight {
			_ = e.setSpoolWeight(m.ID, m.SpoolWeight)
		}
	}

	e.working.Settings = a.Settings
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}
