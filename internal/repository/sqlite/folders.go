package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/printfleet/internal/entity"
)

type folderRepo struct {
	db      *sql.DB
	account string
}

func (r *folderRepo) List(ctx context.Context) ([]entity.Folder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM folders
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
	`, r.account)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := make([]entity.Folder, 0)
	for rows.Next() {
		var f entity.Folder
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

func (r *folderRepo) Create(ctx context.Context, f entity.Folder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO folders (id, account_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, f.ID, r.account, f.Name, FormatTime(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

func (r *folderRepo) Update(ctx context.Context, f entity.Folder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE folders SET name = ? WHERE id = ? AND account_id = ?
	`, f.Name, f.ID, r.account)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	return expectAffected(res, "update folder")
}

func (r *folderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND account_id = ?`, id, r.account)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return expectAffected(res, "delete folder")
}
