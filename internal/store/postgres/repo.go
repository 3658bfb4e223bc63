// Package postgres implements store.Store on PostgreSQL via pgxpool,
// for deployments where the inventory is shared by several venues.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cantina/internal/store"
	"cantina/internal/wine"
)

const schema = `
CREATE TABLE IF NOT EXISTS wines (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT             NOT NULL,
	name        TEXT             NOT NULL,
	name_key    TEXT             NOT NULL,
	type        TEXT             NOT NULL DEFAULT '',
	supplier    TEXT             NOT NULL DEFAULT '',
	inventory   INTEGER          NOT NULL DEFAULT 0,
	min_stock   INTEGER          NOT NULL DEFAULT 0,
	price       DOUBLE PRECISION NOT NULL DEFAULT 0,
	vintage     TEXT             NOT NULL DEFAULT '',
	region      TEXT             NOT NULL DEFAULT '',
	description TEXT             NOT NULL DEFAULT '',
	UNIQUE (user_id, name_key)
);
CREATE TABLE IF NOT EXISTS suppliers (
	id      BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	name    TEXT NOT NULL,
	UNIQUE (user_id, name)
);`

// Repository is a PostgreSQL-backed store.Store.
type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Repository)(nil)

// Open connects to PostgreSQL, verifies the connection and ensures the
// schema exists. The returned close function releases the pool.
func Open(ctx context.Context, dsn string) (*Repository, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: bootstrap schema: %w", err)
	}

	return &Repository{pool: pool}, pool.Close, nil
}

const wineColumns = `id, user_id, name, type, supplier, inventory, min_stock, price, vintage, region, description`

func scanWine(row pgx.Row) (wine.Wine, error) {
	var w wine.Wine
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &w.Supplier,
		&w.Stock, &w.MinStock, &w.Price, &w.Vintage, &w.Region, &w.Description)
	return w, err
}

// WineByKey implements store.Store.
func (r *Repository) WineByKey(ctx context.Context, userID, key string) (*wine.Wine, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+wineColumns+` FROM wines WHERE user_id = $1 AND name_key = $2`,
		userID, key)
	w, err := scanWine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: wine by key: %w", err)
	}
	return &w, nil
}

// WinesByUser implements store.Store.
func (r *Repository) WinesByUser(ctx context.Context, userID string) ([]wine.Wine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+wineColumns+` FROM wines WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: wines by user: %w", err)
	}
	defer rows.Close()

	var out []wine.Wine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan wine: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: wines by user: %w", err)
	}
	return out, nil
}

// InsertWine implements store.Store.
func (r *Repository) InsertWine(ctx context.Context, w *wine.Wine) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO wines (user_id, name, name_key, type, supplier, inventory, min_stock, price, vintage, region, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		w.UserID, w.Name, wine.MatchKey(w.Name), w.Type, w.Supplier,
		w.Stock, w.MinStock, w.Price, w.Vintage, w.Region, w.Description).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("postgres: insert wine %q: %w", w.Name, err)
	}
	return nil
}

// UpdateWine implements store.Store.
func (r *Repository) UpdateWine(ctx context.Context, w wine.Wine) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE wines SET name = $1, name_key = $2, type = $3, supplier = $4, inventory = $5,
		 min_stock = $6, price = $7, vintage = $8, region = $9, description = $10
		 WHERE id = $11 AND user_id = $12`,
		w.Name, wine.MatchKey(w.Name), w.Type, w.Supplier, w.Stock,
		w.MinStock, w.Price, w.Vintage, w.Region, w.Description,
		w.ID, w.UserID)
	if err != nil {
		return fmt.Errorf("postgres: update wine %q: %w", w.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteWinesByType implements store.Store.
func (r *Repository) DeleteWinesByType(ctx context.Context, userID, wineType string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM wines WHERE user_id = $1 AND type = $2`, userID, wineType)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete wines of type %q: %w", wineType, err)
	}
	return tag.RowsAffected(), nil
}

// Suppliers implements store.Store.
func (r *Repository) Suppliers(ctx context.Context, userID string) ([]wine.Supplier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name FROM suppliers WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: suppliers: %w", err)
	}
	defer rows.Close()

	var out []wine.Supplier
	for rows.Next() {
		var s wine.Supplier
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name); err != nil {
			return nil, fmt.Errorf("postgres: scan supplier: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: suppliers: %w", err)
	}
	return out, nil
}

// UpsertSupplier implements store.Store.
func (r *Repository) UpsertSupplier(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO suppliers (user_id, name) VALUES ($1, $2)
		 ON CONFLICT (user_id, name) DO NOTHING`, userID, name)
	if err != nil {
		return fmt.Errorf("postgres: upsert supplier %q: %w", name, err)
	}
	return nil
}
