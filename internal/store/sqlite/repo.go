// Package sqlite implements store.Store on SQLite via database/sql.
// It is the default backend for local use and the backend the test
// suites run against; moderate volumes make transaction-batched
// statements perfectly adequate here.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"cantina/internal/store"
	"cantina/internal/wine"
)

const schema = `
CREATE TABLE IF NOT EXISTS wines (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT    NOT NULL,
	name        TEXT    NOT NULL,
	name_key    TEXT    NOT NULL,
	type        TEXT    NOT NULL DEFAULT '',
	supplier    TEXT    NOT NULL DEFAULT '',
	inventory   INTEGER NOT NULL DEFAULT 0,
	min_stock   INTEGER NOT NULL DEFAULT 0,
	price       REAL    NOT NULL DEFAULT 0,
	vintage     TEXT    NOT NULL DEFAULT '',
	region      TEXT    NOT NULL DEFAULT '',
	description TEXT    NOT NULL DEFAULT '',
	UNIQUE (user_id, name_key)
);
CREATE TABLE IF NOT EXISTS suppliers (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	name    TEXT NOT NULL,
	UNIQUE (user_id, name)
);`

// Repository is a SQLite-backed store.Store.
type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

// Open opens (and bootstraps) a SQLite database at the given DSN and
// returns the repository plus a close function.
//
// DSN examples:
//
//	"cantina.db"
//	"file:cantina.db?cache=shared"
//	"file::memory:?cache=shared"
func Open(ctx context.Context, dsn string) (*Repository, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: bootstrap schema: %w", err)
	}

	return &Repository{db: db}, func() { db.Close() }, nil
}

const wineColumns = `id, user_id, name, type, supplier, inventory, min_stock, price, vintage, region, description`

func scanWine(row interface{ Scan(...any) error }) (wine.Wine, error) {
	var w wine.Wine
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &w.Supplier,
		&w.Stock, &w.MinStock, &w.Price, &w.Vintage, &w.Region, &w.Description)
	return w, err
}

// WineByKey implements store.Store.
func (r *Repository) WineByKey(ctx context.Context, userID, key string) (*wine.Wine, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+wineColumns+` FROM wines WHERE user_id = ? AND name_key = ?`,
		userID, key)
	w, err := scanWine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: wine by key: %w", err)
	}
	return &w, nil
}

// WinesByUser implements store.Store.
func (r *Repository) WinesByUser(ctx context.Context, userID string) ([]wine.Wine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+wineColumns+` FROM wines WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: wines by user: %w", err)
	}
	defer rows.Close()

	var out []wine.Wine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan wine: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: wines by user: %w", err)
	}
	return out, nil
}

// InsertWine implements store.Store.
func (r *Repository) InsertWine(ctx context.Context, w *wine.Wine) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO wines (user_id, name, name_key, type, supplier, inventory, min_stock, price, vintage, region, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.UserID, w.Name, wine.MatchKey(w.Name), w.Type, w.Supplier,
		w.Stock, w.MinStock, w.Price, w.Vintage, w.Region, w.Description)
	if err != nil {
		return fmt.Errorf("sqlite: insert wine %q: %w", w.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: insert wine %q: %w", w.Name, err)
	}
	w.ID = id
	return nil
}

// UpdateWine implements store.Store.
func (r *Repository) UpdateWine(ctx context.Context, w wine.Wine) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE wines SET name = ?, name_key = ?, type = ?, supplier = ?, inventory = ?,
		 min_stock = ?, price = ?, vintage = ?, region = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		w.Name, wine.MatchKey(w.Name), w.Type, w.Supplier, w.Stock,
		w.MinStock, w.Price, w.Vintage, w.Region, w.Description,
		w.ID, w.UserID)
	if err != nil {
		return fmt.Errorf("sqlite: update wine %q: %w", w.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update wine %q: %w", w.Name, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteWinesByType implements store.Store.
func (r *Repository) DeleteWinesByType(ctx context.Context, userID, wineType string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wines WHERE user_id = ? AND type = ?`, userID, wineType)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete wines of type %q: %w", wineType, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete wines of type %q: %w", wineType, err)
	}
	return n, nil
}

// Suppliers implements store.Store.
func (r *Repository) Suppliers(ctx context.Context, userID string) ([]wine.Supplier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM suppliers WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: suppliers: %w", err)
	}
	defer rows.Close()

	var out []wine.Supplier
	for rows.Next() {
		var s wine.Supplier
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scan supplier: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: suppliers: %w", err)
	}
	return out, nil
}

// UpsertSupplier implements store.Store.
func (r *Repository) UpsertSupplier(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO suppliers (user_id, name) VALUES (?, ?)
		 ON CONFLICT (user_id, name) DO NOTHING`, userID, name)
	if err != nil {
		return fmt.Errorf("sqlite: upsert supplier %q: %w", name, err)
	}
	return nil
}
