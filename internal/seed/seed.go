// Package seed prepares a fresh account so it can quote right away.
package seed

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/repository/sqlite"
)

const (
	defaultMaterialName = "PLA (Generic)"
	defaultPrinterName  = "Sample printer"
	defaultFolderName   = "General"
)

// Config contains the values required by startup seed.
type Config struct {
	// AccountID receives the seed data. Seeding is skipped when it is empty.
	AccountID string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	// Updates counts repaired rows, such as a blank currency symbol.
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	if cfg.AccountID == "" {
		return Stats{}, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	steps := []func(*sql.Tx, string, *Stats) error{
		ensureSettings,
		ensureMaterial,
		ensurePrinter,
		ensureFolder,
	}
	for _, step := range steps {
		if err := step(tx, cfg.AccountID, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSettings(tx *sql.Tx, account string, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM settings WHERE account_id = ?)`, account).Scan(&exists); err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}

	def := entity.DefaultSettings()
	if exists {
		res, err := tx.Exec(`
			UPDATE settings
			SET currency_symbol = ?, updated_at = CURRENT_TIMESTAMP
			WHERE account_id = ? AND TRIM(currency_symbol) = ''
		`, def.CurrencySymbol, account)
		if err != nil {
			return fmt.Errorf("repair currency symbol: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repair currency symbol: %w", err)
		}
		stats.Updates += int(n)
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO settings (account_id, electricity_cost, currency_symbol)
		VALUES (?, ?, ?)
	`, account, def.ElectricityCostPerKWh, def.CurrencySymbol); err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureMaterial(tx *sql.Tx, account string, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM materials WHERE account_id = ? AND name = ? LIMIT 1)`, account, defaultMaterialName).Scan(&exists); err != nil {
		return fmt.Errorf("check default material existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO materials (id, account_id, kind, name, spool_price, spool_weight, current_stock)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entity.NewID(), account, entity.KindPLA, defaultMaterialName, 120, 1000, 1000); err != nil {
		return fmt.Errorf("insert default material: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensurePrinter(tx *sql.Tx, account string, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM equipment WHERE account_id = ? LIMIT 1)`, account).Scan(&exists); err != nil {
		return fmt.Errorf("check equipment existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO equipment (id, account_id, name, acquisition_cost, lifespan_hours, power_watts, maintenance_cost_per_hour)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entity.NewID(), account, defaultPrinterName, 2000, 3000, 300, 2); err != nil {
		return fmt.Errorf("insert sample printer: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureFolder(tx *sql.Tx, account string, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM folders WHERE account_id = ? LIMIT 1)`, account).Scan(&exists); err != nil {
		return fmt.Errorf("check folder existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO folders (id, account_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, entity.NewID(), account, defaultFolderName, sqlite.FormatTime(time.Now())); err != nil {
		return fmt.Errorf("insert default folder: %w", err)
	}
	stats.Inserts++
	return nil
}
