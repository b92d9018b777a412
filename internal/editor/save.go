package editor

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/printfleet/internal/store"
)

type operation struct {
	name string
	run  func(ctx context.Context) error
	// apply records the write in the snapshot once it succeeded.
	apply func(snap *Assets)
}

type plan struct {
	target           Assets
	deletedPrinters  []string
	deletedMaterials []string
	ops              []operation
}

// Save validates the working set and writes the difference to the store. On success the
// working set becomes the new snapshot. On failure the writes that went through are kept
// in the snapshot so the next Save only retries what failed.
func (e *Editor) Save(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	return e.save(ctx)
}

// Sync reloads the snapshot, replaces the working set with a and saves. Assets stored
// but absent from a are deleted.
func (e *Editor) Sync(ctx context.Context, a Assets) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if err := e.Load(ctx); err != nil {
		return err
	}
	e.Replace(a)
	return e.save(ctx)
}

// Reload waits for any running save, loads a fresh snapshot and returns it. Unsaved edits
// are discarded.
func (e *Editor) Reload(ctx context.Context) (Assets, error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if err := e.Load(ctx); err != nil {
		return Assets{}, err
	}
	return e.Working(), nil
}

func (e *Editor) save(ctx context.Context) error {
	p, err := e.plan()
	if err != nil {
		return err
	}
	if len(p.ops) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		result *multierror.Error
		done   []operation
	)
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentWrites)
	for _, op := range p.ops {
		op := op
		g.Go(func() error {
			err := op.run(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", op.name, err))
				return nil
			}
			done = append(done, op)
			return nil
		})
	}
	_ = g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := result.ErrorOrNil(); err != nil {
		for _, op := range done {
			op.apply(&e.snapshot)
		}
		e.deletedPrinters = remaining(e.deletedPrinters, e.snapshot.Printers, store.EquipmentID)
		e.deletedMaterials = remaining(e.deletedMaterials, e.snapshot.Materials, store.MaterialID)
		e.log.Warn("bulk save partially failed",
			zap.Int("operations", len(p.ops)),
			zap.Int("failed", len(result.Errors)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	e.snapshot = p.target
	e.deletedPrinters = without(e.deletedPrinters, p.deletedPrinters)
	e.deletedMaterials = without(e.deletedMaterials, p.deletedMaterials)
	e.log.Info("bulk save applied", zap.Int("operations", len(p.ops)))
	return nil
}

// plan validates the working set and lists the writes needed to reach it.
func (e *Editor) plan() (plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return plan{}, ErrNotLoaded
	}
	for _, p := range e.working.Printers {
		if err := p.Validate(); err != nil {
			return plan{}, err
		}
	}
	for _, m := range e.working.Materials {
		if err := m.Validate(); err != nil {
			return plan{}, err
		}
	}
	if err := e.working.Settings.Validate(); err != nil {
		return plan{}, err
	}

	p := plan{
		target:           e.working.clone(),
		deletedPrinters:  append([]string(nil), e.deletedPrinters...),
		deletedMaterials: append([]string(nil), e.deletedMaterials...),
	}

	for _, pr := range p.target.Printers {
		pr := pr
		p.ops = appendUpsert(p.ops, "printer", e.store.Equipment, e.snapshot.Printers, pr, store.EquipmentID,
			func(snap *Assets) { snap.Printers = put(snap.Printers, pr, store.EquipmentID) })
	}
	for _, m := range p.target.Materials {
		m := m
		p.ops = appendUpsert(p.ops, "material", e.store.Materials, e.snapshot.Materials, m, store.MaterialID,
			func(snap *Assets) { snap.Materials = put(snap.Materials, m, store.MaterialID) })
	}
	for _, id := range p.deletedPrinters {
		id := id
		p.ops = append(p.ops, operation{
			name:  "delete printer " + id,
			run:   func(ctx context.Context) error { return e.store.Equipment.Delete(ctx, id) },
			apply: func(snap *Assets) { snap.Printers = drop(snap.Printers, id, store.EquipmentID) },
		})
	}
	for _, id := range p.deletedMaterials {
		id := id
		p.ops = append(p.ops, operation{
			name:  "delete material " + id,
			run:   func(ctx context.Context) error { return e.store.Materials.Delete(ctx, id) },
			apply: func(snap *Assets) { snap.Materials = drop(snap.Materials, id, store.MaterialID) },
		})
	}
	if !cmp.Equal(p.target.Settings, e.snapshot.Settings) {
		s := p.target.Settings
		p.ops = append(p.ops, operation{
			name:  "upsert settings",
			run:   func(ctx context.Context) error { return e.store.Settings.Upsert(ctx, s) },
			apply: func(snap *Assets) { snap.Settings = s },
		})
	}
	return p, nil
}

// appendUpsert adds a create for v when the snapshot lacks it and an update when it
// differs.
func appendUpsert[T any](ops []operation, kind string, c store.Collection[T], snapshot []T, v T, idOf func(T) string, apply func(*Assets)) []operation {
	id := idOf(v)
	i := indexOf(snapshot, id, idOf)
	switch {
	case i < 0:
		return append(ops, operation{
			name:  "create " + kind + " " + id,
			run:   func(ctx context.Context) error { return c.Create(ctx, v) },
			apply: apply,
		})
	case !cmp.Equal(snapshot[i], v, equalOpts):
		return append(ops, operation{
			name:  "update " + kind + " " + id,
			run:   func(ctx context.Context) error { return c.Update(ctx, v) },
			apply: apply,
		})
	}
	return ops
}

func put[T any](items []T, v T, idOf func(T) string) []T {
	if i := indexOf(items, idOf(v), idOf); i >= 0 {
		out := append([]T(nil), items...)
		out[i] = v
		return out
	}
	return append(append([]T(nil), items...), v)
}

func drop[T any](items []T, id string, idOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if idOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}

// remaining keeps the pending deletions whose asset is still in the snapshot.
func remaining[T any](pending []string, snapshot []T, idOf func(T) string) []string {
	var out []string
	for _, id := range pending {
		if indexOf(snapshot, id, idOf) >= 0 {
			out = append(out, id)
		}
	}
	return out
}

func without(ids, done []string) []string {
	var out []string
	for _, id := range ids {
		if !slices.Contains(done, id) {
			out = append(out, id)
		}
	}
	return out
}
