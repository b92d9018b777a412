package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/printfleet/internal/entity"
)

type materialRepo struct {
	db      *sql.DB
	account string
}

func (r *materialRepo) List(ctx context.Context) ([]entity.Material, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, name, spool_price, spool_weight, current_stock
		FROM materials
		WHERE account_id = ?
		ORDER BY created_at, id
	`, r.account)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]entity.Material, 0)
	for rows.Next() {
		var m entity.Material
		if err := rows.Scan(&m.ID, &m.Kind, &m.Name, &m.SpoolPrice, &m.SpoolWeight, &m.CurrentStock); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

func (r *materialRepo) Create(ctx context.Context, m entity.Material) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO materials (id, account_id, kind, name, spool_price, spool_weight, current_stock)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, r.account, m.Kind, m.Name, m.SpoolPrice, m.SpoolWeight, m.CurrentStock)
	if err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

func (r *materialRepo) Update(ctx context.Context, m entity.Material) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE materials
		SET
			kind = ?,
			name = ?,
			spool_price = ?,
			spool_weight = ?,
			current_stock = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND account_id = ?
	`, m.Kind, m.Name, m.SpoolPrice, m.SpoolWeight, m.CurrentStock, m.ID, r.account)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return expectAffected(res, "update material")
}

func (r *materialRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ? AND account_id = ?`, id, r.account)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return expectAffected(res, "delete material")
}
