package rest

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/store"
)

// New returns the collections of accountID on the backend behind c. The backend has no
// multi-row transactions, so the store carries no JobCommitter.
func New(c *Client, accountID string) store.Store {
	return store.Store{
		Equipment: &table[entity.Equipment]{c: c, name: "equipment", account: accountID, order: "name.asc"},
		Materials: &table[entity.Material]{c: c, name: "materials", account: accountID, order: "name.asc"},
		Projects:  &table[entity.Project]{c: c, name: "projects", account: accountID, order: "created_at.desc"},
		Folders:   &table[entity.Folder]{c: c, name: "folders", account: accountID, order: "name.asc"},
		Settings:  &settings{c: c, account: accountID},
	}
}

// table is one account-scoped PostgREST resource. Records carry an "id" column.
type table[T any] struct {
	c       *Client
	name    string
	account string
	order   string
}

func (t *table[T]) path() string { return pathPrefix + t.name }

func (t *table[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	resp, err := t.c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select":     "*",
			"account_id": "eq." + t.account,
			"order":      t.order,
		}).
		SetResult(&out).
		Get(t.path())
	if err := check("list "+t.name, resp, err); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (t *table[T]) Create(ctx context.Context, v T) error {
	body, err := row(v, t.account)
	if err != nil {
		return fmt.Errorf("create %s: %w", t.name, err)
	}
	resp, err := t.c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(body).
		Post(t.path())
	return check("create "+t.name, resp, err)
}

func (t *table[T]) Update(ctx context.Context, v T) error {
	body, err := row(v, t.account)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	id, _ := body["id"].(string)

	var changed []map[string]any
	resp, err := t.c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(t.match(id)).
		SetBody(body).
		SetResult(&changed).
		Patch(t.path())
	if err := check("update "+t.name, resp, err); err != nil {
		return err
	}
	if len(changed) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	var removed []map[string]any
	resp, err := t.c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(t.match(id)).
		SetResult(&removed).
		Delete(t.path())
	if err := check("delete "+t.name, resp, err); err != nil {
		return err
	}
	if len(removed) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *table[T]) match(id string) map[string]string {
	return map[string]string{
		"id":         "eq." + id,
		"account_id": "eq." + t.account,
	}
}

// row encodes v as a column map tagged with the owning account.
func row(v any, account string) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["account_id"] = account
	return out, nil
}

type settings struct {
	c       *Client
	account string
}

const settingsPath = pathPrefix + "settings"

func (s *settings) Get(ctx context.Context) (entity.Settings, error) {
	var rows []entity.Settings
	resp, err := s.c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select":     "*",
			"account_id": "eq." + s.account,
		}).
		SetResult(&rows).
		Get(settingsPath)
	if err := check("get settings", resp, err); err != nil {
		return entity.Settings{}, err
	}
	if len(rows) == 0 {
		return entity.DefaultSettings(), nil
	}
	return rows[0], nil
}

func (s *settings) Upsert(ctx context.Context, v entity.Settings) error {
	body, err := row(v, s.account)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	resp, err := s.c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "account_id").
		SetBody(body).
		Post(settingsPath)
	return check("upsert settings", resp, err)
}
