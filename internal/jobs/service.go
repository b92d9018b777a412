// Package jobs quotes and saves production jobs and keeps material stock in step with
// what saved jobs consume.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/pricing"
	"github.com/Simplici0/printfleet/internal/store"
)

var (
	ErrInsufficientStock = store.ErrInsufficientStock
	ErrFolderRequired    = errors.New("a folder must be selected")
	ErrNameRequired      = errors.New("a job name is required")
	ErrSelectionRequired = errors.New("equipment and material must be selected")
	// ErrStockNotAdjusted reports a job that was saved while its material stock was
	// left untouched. The saved project is returned alongside.
	ErrStockNotAdjusted = errors.New("job saved but material stock was not adjusted")
)

// Draft is a job about to be saved.
type Draft struct {
	FolderID    string
	Name        string
	EquipmentID string
	MaterialID  string
	Job         pricing.Job
}

// Service quotes and records jobs for one account.
type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(s store.Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log, now: time.Now}
}

// Quote prices job on the selected equipment and material. An empty selection yields a
// zero result.
func (s *Service) Quote(ctx context.Context, equipmentID, materialID string, job pricing.Job) (pricing.Result, entity.Settings, error) {
	refs, err := s.resolve(ctx, equipmentID, materialID, "")
	if err != nil {
		return pricing.Result{}, entity.Settings{}, err
	}

	result, err := refs.calculate(job)
	if err != nil {
		return pricing.Result{}, refs.settings, err
	}
	return result, refs.settings, nil
}

// Save validates d, freezes its cost breakdown and records it, consuming the job weight
// from the material stock. When stock is short nothing is written.
func (s *Service) Save(ctx context.Context, d Draft) (entity.Project, error) {
	d.Name = strings.TrimSpace(d.Name)
	switch {
	case d.Name == "":
		return entity.Project{}, ErrNameRequired
	case d.FolderID == "":
		return entity.Project{}, ErrFolderRequired
	case d.EquipmentID == "" || d.MaterialID == "":
		return entity.Project{}, ErrSelectionRequired
	}

	refs, err := s.resolve(ctx, d.EquipmentID, d.MaterialID, d.FolderID)
	if err != nil {
		return entity.Project{}, err
	}

	if refs.material.CurrentStock < d.Job.WeightGrams {
		return entity.Project{}, fmt.Errorf("%w: %s has %.2fg, job needs %.2fg",
			ErrInsufficientStock, refs.material.Name, refs.material.CurrentStock, d.Job.WeightGrams)
	}

	results, err := refs.calculate(d.Job)
	if err != nil {
		return entity.Project{}, err
	}

	p := entity.Project{
		ID:              entity.NewID(),
		FolderID:        d.FolderID,
		Name:            d.Name,
		CreatedAt:       s.now().UTC(),
		EquipmentID:     d.EquipmentID,
		MaterialID:      d.MaterialID,
		PrintHours:      d.Job.PrintHours,
		PrintMinutes:    d.Job.PrintMinutes,
		WeightGrams:     d.Job.WeightGrams,
		FailureRate:     d.Job.FailureRate,
		LaborHours:      d.Job.LaborHours,
		LaborMinutes:    d.Job.LaborMinutes,
		LaborRate:       d.Job.LaborRate,
		AdditionalItems: d.Job.AdditionalItems,
		Markup:          d.Job.Markup,
		Results:         results,
	}
	if err := p.Validate(); err != nil {
		return entity.Project{}, err
	}

	if s.store.Committer != nil {
		if err := s.store.Committer.CommitJob(ctx, p, p.MaterialID, p.WeightGrams); err != nil {
			return entity.Project{}, fmt.Errorf("commit job: %w", err)
		}
		s.log.Info("job saved", zap.String("project_id", p.ID), zap.Float64("grams", p.WeightGrams))
		return p, nil
	}

	if err := s.store.Projects.Create(ctx, p); err != nil {
		return entity.Project{}, fmt.Errorf("create project: %w", err)
	}

	m := refs.material
	m.CurrentStock -= p.WeightGrams
	if err := s.store.Materials.Update(ctx, *m); err != nil {
		s.log.Warn("job saved without stock adjustment",
			zap.String("project_id", p.ID),
			zap.String("material_id", m.ID),
			zap.Float64("grams", p.WeightGrams),
			zap.Error(err),
		)
		return p, fmt.Errorf("%w: %w", ErrStockNotAdjusted, err)
	}

	s.log.Info("job saved", zap.String("project_id", p.ID), zap.Float64("grams", p.WeightGrams))
	return p, nil
}

// List returns saved jobs newest first, restricted to folderID when it is not empty.
func (s *Service) List(ctx context.Context, folderID string) ([]entity.Project, error) {
	all, err := s.store.Projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]entity.Project, 0, len(all))
	for _, p := range all {
		if folderID == "" || p.FolderID == folderID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns the saved job id.
func (s *Service) Get(ctx context.Context, id string) (entity.Project, error) {
	all, err := s.store.Projects.List(ctx)
	if err != nil {
		return entity.Project{}, fmt.Errorf("list projects: %w", err)
	}
	p, ok := store.Find(all, id, store.ProjectID)
	if !ok {
		return entity.Project{}, fmt.Errorf("project %s: %w", id, store.ErrNotFound)
	}
	return p, nil
}

// Delete removes a saved job. Consumed stock is not given back.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

type references struct {
	equipment *entity.Equipment
	material  *entity.Material
	settings  entity.Settings
}

func (r references) calculate(job pricing.Job) (pricing.Result, error) {
	var (
		machine *pricing.Machine
		spool   *pricing.Spool
	)
	if r.equipment != nil {
		m := r.equipment.Machine()
		machine = &m
	}
	if r.material != nil {
		sp := r.material.Spool()
		spool = &sp
	}
	return pricing.Calculate(machine, spool, r.settings.Pricing(), job)
}

// resolve loads the referenced records concurrently. Empty ids are skipped.
func (s *Service) resolve(ctx context.Context, equipmentID, materialID, folderID string) (references, error) {
	var (
		refs      references
		equipment []entity.Equipment
		materials []entity.Material
		folders   []entity.Folder
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if refs.settings, err = s.store.Settings.Get(gctx); err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return nil
	})
	if equipmentID != "" {
		g.Go(func() error {
			var err error
			if equipment, err = s.store.Equipment.List(gctx); err != nil {
				return fmt.Errorf("list equipment: %w", err)
			}
			return nil
		})
	}
	if materialID != "" {
		g.Go(func() error {
			var err error
			if materials, err = s.store.Materials.List(gctx); err != nil {
				return fmt.Errorf("list materials: %w", err)
			}
			return nil
		})
	}
	if folderID != "" {
		g.Go(func() error {
			var err error
			if folders, err = s.store.Folders.List(gctx); err != nil {
				return fmt.Errorf("list folders: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return references{}, err
	}

	if equipmentID != "" {
		e, ok := store.Find(equipment, equipmentID, store.EquipmentID)
		if !ok {
			return references{}, fmt.Errorf("equipment %s: %w", equipmentID, store.ErrNotFound)
		}
		refs.equipment = &e
	}
	if materialID != "" {
		m, ok := store.Find(materials, materialID, store.MaterialID)
		if !ok {
			return references{}, fmt.Errorf("material %s: %w", materialID, store.ErrNotFound)
		}
		refs.material = &m
	}
	if folderID != "" {
		if _, ok := store.Find(folders, folderID, store.FolderID); !ok {
			return references{}, fmt.Errorf("folder %s: %w", folderID, store.ErrNotFound)
		}
	}
	return refs, nil
}
