package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/pricing"
	"github.com/Simplici0/printfleet/internal/store"
)

type projectRepo struct {
	db      *sql.DB
	account string
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *projectRepo) List(ctx context.Context) ([]entity.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id,
			COALESCE(folder_id, ''),
			name,
			created_at,
			equipment_id,
			material_id,
			print_hours,
			print_minutes,
			weight,
			failure_rate,
			labor_hours,
			labor_minutes,
			labor_rate,
			markup,
			additional_items_json,
			results_json
		FROM projects
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
	`, r.account)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]entity.Project, 0)
	for rows.Next() {
		var (
			p                      entity.Project
			createdAt              string
			itemsJSON, resultsJSON string
		)
		if err := rows.Scan(
			&p.ID,
			&p.FolderID,
			&p.Name,
			&createdAt,
			&p.EquipmentID,
			&p.MaterialID,
			&p.PrintHours,
			&p.PrintMinutes,
			&p.WeightGrams,
			&p.FailureRate,
			&p.LaborHours,
			&p.LaborMinutes,
			&p.LaborRate,
			&p.Markup,
			&itemsJSON,
			&resultsJSON,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(itemsJSON), &p.AdditionalItems); err != nil {
			return nil, fmt.Errorf("decode additional items of project %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(resultsJSON), &p.Results); err != nil {
			return nil, fmt.Errorf("decode results of project %s: %w", p.ID, err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

func (r *projectRepo) Create(ctx context.Context, p entity.Project) error {
	return r.insert(ctx, r.db, p)
}

func (r *projectRepo) insert(ctx context.Context, db execer, p entity.Project) error {
	items := p.AdditionalItems
	if items == nil {
		items = []pricing.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode additional items: %w", err)
	}
	resultsJSON, err := json.Marshal(p.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	var folderID any
	if p.FolderID != "" {
		folderID = p.FolderID
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO projects (
			id, account_id, folder_id, name, created_at, equipment_id, material_id,
			print_hours, print_minutes, weight, failure_rate, labor_hours, labor_minutes, labor_rate, markup,
			additional_items_json, results_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, r.account, folderID, p.Name, FormatTime(p.CreatedAt), p.EquipmentID, p.MaterialID,
		p.PrintHours, p.PrintMinutes, p.WeightGrams, p.FailureRate, p.LaborHours, p.LaborMinutes, p.LaborRate, p.Markup,
		string(itemsJSON), string(resultsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Update only renames or refiles a project; the parameters and frozen results of a
// saved job never change.
func (r *projectRepo) Update(ctx context.Context, p entity.Project) error {
	var folderID any
	if p.FolderID != "" {
		folderID = p.FolderID
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, folder_id = ? WHERE id = ? AND account_id = ?
	`, p.Name, folderID, p.ID, r.account)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return expectAffected(res, "update project")
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND account_id = ?`, id, r.account)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectAffected(res, "delete project")
}

// CommitJob inserts p and consumes grams of materialID in one transaction.
func (r *projectRepo) CommitJob(ctx context.Context, p entity.Project, materialID string, grams float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin job transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE materials
		SET
			current_stock = current_stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND account_id = ? AND current_stock >= ?
	`, grams, materialID, r.account, grams)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("consume material stock: %w", err)
	}
	if err := expectAffected(res, "consume material stock"); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrInsufficientStock
		}
		return err
	}

	if err := r.insert(ctx, tx, p); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit job transaction: %w", err)
	}
	return nil
}
