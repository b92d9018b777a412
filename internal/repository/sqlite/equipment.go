package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/printfleet/internal/entity"
)

type equipmentRepo struct {
	db      *sql.DB
	account string
}

func (r *equipmentRepo) List(ctx context.Context) ([]entity.Equipment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, acquisition_cost, lifespan_hours, power_watts, maintenance_cost_per_hour
		FROM equipment
		WHERE account_id = ?
		ORDER BY created_at, id
	`, r.account)
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer rows.Close()

	items := make([]entity.Equipment, 0)
	for rows.Next() {
		var e entity.Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.AcquisitionCost, &e.LifespanHours, &e.PowerWatts, &e.MaintenanceCostPerHour); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}

	return items, nil
}

func (r *equipmentRepo) Create(ctx context.Context, e entity.Equipment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO equipment (id, account_id, name, acquisition_cost, lifespan_hours, power_watts, maintenance_cost_per_hour)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, r.account, e.Name, e.AcquisitionCost, e.LifespanHours, e.PowerWatts, e.MaintenanceCostPerHour)
	if err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

func (r *equipmentRepo) Update(ctx context.Context, e entity.Equipment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE equipment
		SET
			name = ?,
			acquisition_cost = ?,
			lifespan_hours = ?,
			power_watts = ?,
			maintenance_cost_per_hour = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND account_id = ?
	`, e.Name, e.AcquisitionCost, e.LifespanHours, e.PowerWatts, e.MaintenanceCostPerHour, e.ID, r.account)
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	return expectAffected(res, "update equipment")
}

func (r *equipmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ? AND account_id = ?`, id, r.account)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return expectAffected(res, "delete equipment")
}
