package jobs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/printfleet/internal/entity"
)

// CreateFolder adds a folder named name.
func (s *Service) CreateFolder(ctx context.Context, name string) (entity.Folder, error) {
	f := entity.Folder{ID: entity.NewID(), Name: strings.TrimSpace(name), CreatedAt: s.now().UTC()}
	if err := f.Validate(); err != nil {
		return entity.Folder{}, err
	}
	if err := s.store.Folders.Create(ctx, f); err != nil {
		return entity.Folder{}, fmt.Errorf("create folder: %w", err)
	}
	s.log.Info("folder created", zap.String("folder_id", f.ID))
	return f, nil
}

// Folders lists the account's folders.
func (s *Service) Folders(ctx context.Context) ([]entity.Folder, error) {
	folders, err := s.store.Folders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// DeleteFolder removes a folder. Jobs filed in it are kept; reports list them as unfiled.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	if err := s.store.Folders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	return nil
}
