// Package sqlite persists account data in the embedded SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Simplici0/printfleet/internal/store"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// New returns the collections of accountID backed by db.
func New(db *sql.DB, accountID string) store.Store {
	projects := &projectRepo{db: db, account: accountID}
	return store.Store{
		Equipment: &equipmentRepo{db: db, account: accountID},
		Materials: &materialRepo{db: db, account: accountID},
		Projects:  projects,
		Folders:   &folderRepo{db: db, account: accountID},
		Settings:  &settingsRepo{db: db, account: accountID},
		Committer: projects,
	}
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FormatTime renders t the way timestamp columns store it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
