// Package store contains the storage-agnostic contract for the wine
// inventory. All access is scoped by user id; backends are expected to
// keep rows invisible across users. The merge engine is the only
// writer from the import pipeline.
package store

import (
	"context"
	"errors"

	"cantina/internal/wine"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence collaborator consumed by the pipeline.
type Store interface {
	// WineByKey looks up a wine by its merge key (wine.MatchKey of the
	// name) for the given user. Returns ErrNotFound when absent.
	WineByKey(ctx context.Context, userID, key string) (*wine.Wine, error)

	// WinesByUser lists the user's full inventory.
	WinesByUser(ctx context.Context, userID string) ([]wine.Wine, error)

	// InsertWine stores a new wine and fills in w.ID.
	InsertWine(ctx context.Context, w *wine.Wine) error

	// UpdateWine overwrites the stored row identified by w.ID.
	UpdateWine(ctx context.Context, w wine.Wine) error

	// DeleteWinesByType removes every wine of the given stored type for
	// the user and reports how many rows went away.
	DeleteWinesByType(ctx context.Context, userID, wineType string) (int64, error)

	// Suppliers lists the user's suppliers.
	Suppliers(ctx context.Context, userID string) ([]wine.Supplier, error)

	// UpsertSupplier records a supplier name, ignoring duplicates.
	UpsertSupplier(ctx context.Context, userID, name string) error
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend: "sqlite" or "postgres".
	Kind string `json:"kind"`

	// DSN is the backend connection string: a file path or
	// ":memory:" URI for sqlite, a pgx URL for postgres.
	DSN string `json:"dsn"`
}
