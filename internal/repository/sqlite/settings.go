package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/printfleet/internal/entity"
)

type settingsRepo struct {
	db      *sql.DB
	account string
}

func (r *settingsRepo) Get(ctx context.Context) (entity.Settings, error) {
	var s entity.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT electricity_cost, currency_symbol
		FROM settings
		WHERE account_id = ?
	`, r.account).Scan(&s.ElectricityCostPerKWh, &s.CurrencySymbol)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DefaultSettings(), nil
	}
	if err != nil {
		return entity.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	return s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s entity.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (account_id, electricity_cost, currency_symbol)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			electricity_cost = excluded.electricity_cost,
			currency_symbol = excluded.currency_symbol,
			updated_at = CURRENT_TIMESTAMP
	`, r.account, s.ElectricityCostPerKWh, s.CurrencySymbol)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
