// Package store defines the persistence collaborator used by the services. Backends live
// under internal/repository.
package store

import (
	"context"
	"errors"

	"github.com/Simplici0/printfleet/internal/entity"
)

var (
	// ErrNotFound is returned when an update or delete targets an id that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when a material holds less stock than a job consumes.
	ErrInsufficientStock = errors.New("insufficient material stock")
)

// Collection is the CRUD surface every entity kind exposes.
type Collection[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) error
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, id string) error
}

type (
	EquipmentStore = Collection[entity.Equipment]
	MaterialStore  = Collection[entity.Material]
	ProjectStore   = Collection[entity.Project]
	FolderStore    = Collection[entity.Folder]
)

// SettingsStore holds the per-account settings singleton. Get returns
// entity.DefaultSettings when nothing was saved yet.
type SettingsStore interface {
	Get(ctx context.Context) (entity.Settings, error)
	Upsert(ctx context.Context, s entity.Settings) error
}

// JobCommitter is implemented by backends able to persist a project and consume its
// material stock in a single transaction.
type JobCommitter interface {
	CommitJob(ctx context.Context, p entity.Project, materialID string, grams float64) error
}

// Store bundles the collections of one account.
type Store struct {
	Equipment EquipmentStore
	Materials MaterialStore
	Projects  ProjectStore
	Folders   FolderStore
	Settings  SettingsStore

	// Committer is nil when the backend cannot commit a job atomically.
	Committer JobCommitter
}

// Find returns the element of items whose id matches.
func Find[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func EquipmentID(e entity.Equipment) string { return e.ID }
func MaterialID(m entity.Material) string   { return m.ID }
func ProjectID(p entity.Project) string     { return p.ID }
func FolderID(f entity.Folder) string       { return f.ID }
