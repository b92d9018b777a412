// Package storetest provides an in-memory store.Store for tests, with call recording and
// failure injection.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/store"
)

// Collection is an in-memory store.Collection.
type Collection[T any] struct {
	mu    sync.Mutex
	items []T
	idOf  func(T) string
	calls []string
	fail  map[string]error
}

func newCollection[T any](idOf func(T) string) *Collection[T] {
	return &Collection[T]{idOf: idOf, fail: map[string]error{}}
}

// Seed replaces the contents without recording calls.
func (c *Collection[T]) Seed(items ...T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T(nil), items...)
}

// FailOn makes op ("list", "create", "update", "delete") fail with err. An empty id
// matches every record.
func (c *Collection[T]) FailOn(op, id string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[op+":"+id] = err
}

// Calls returns the recorded write calls as "op:id".
func (c *Collection[T]) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Items returns a copy of the stored records.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) failure(op, id string) error {
	if err, ok := c.fail[op+":"+id]; ok {
		return err
	}
	return c.fail[op+":"]
}

func (c *Collection[T]) List(_ context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("list", ""); err != nil {
		return nil, err
	}
	return append([]T{}, c.items...), nil
}

func (c *Collection[T]) Create(_ context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(v)
	c.calls = append(c.calls, "create:"+id)
	if err := c.failure("create", id); err != nil {
		return err
	}
	if c.index(id) >= 0 {
		return fmt.Errorf("duplicate id %s", id)
	}
	c.items = append(c.items, v)
	return nil
}

func (c *Collection[T]) Update(_ context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(v)
	c.calls = append(c.calls, "update:"+id)
	if err := c.failure("update", id); err != nil {
		return err
	}
	i := c.index(id)
	if i < 0 {
		return store.ErrNotFound
	}
	c.items[i] = v
	return nil
}

func (c *Collection[T]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "delete:"+id)
	if err := c.failure("delete", id); err != nil {
		return err
	}
	i := c.index(id)
	if i < 0 {
		return store.ErrNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

func (c *Collection[T]) index(id string) int {
	for i, it := range c.items {
		if c.idOf(it) == id {
			return i
		}
	}
	return -1
}

// Settings is an in-memory store.SettingsStore.
type Settings struct {
	mu      sync.Mutex
	value   *entity.Settings
	upserts int
	fail    error
}

// FailUpserts makes every Upsert return err.
func (s *Settings) FailUpserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Upserts reports how many times Upsert was called.
func (s *Settings) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

func (s *Settings) Get(_ context.Context) (entity.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil {
		return entity.DefaultSettings(), nil
	}
	return *s.value, nil
}

func (s *Settings) Upsert(_ context.Context, v entity.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.fail != nil {
		return s.fail
	}
	s.value = &v
	return nil
}

// Backend groups in-memory collections of one account.
type Backend struct {
	Equipment *Collection[entity.Equipment]
	Materials *Collection[entity.Material]
	Projects  *Collection[entity.Project]
	Folders   *Collection[entity.Folder]
	Settings  *Settings
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		Equipment: newCollection(store.EquipmentID),
		Materials: newCollection(store.MaterialID),
		Projects:  newCollection(store.ProjectID),
		Folders:   newCollection(store.FolderID),
		Settings:  &Settings{},
	}
}

// Store exposes b as a store.Store without a JobCommitter.
func (b *Backend) Store() store.Store {
	return store.Store{
		Equipment: b.Equipment,
		Materials: b.Materials,
		Projects:  b.Projects,
		Folders:   b.Folders,
		Settings:  b.Settings,
	}
}

// Writes counts every recorded write across collections.
func (b *Backend) Writes() int {
	return len(b.Equipment.Calls()) + len(b.Materials.Calls()) + len(b.Projects.Calls()) +
		len(b.Folders.Calls()) + b.Settings.Upserts()
}
