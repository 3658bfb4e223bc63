// Package all links every storage backend and exposes a single
// kind-switched constructor, so command wiring does not import the
// drivers directly.
package all

import (
	"context"
	"fmt"

	"cantina/internal/store"
	"cantina/internal/store/postgres"
	"cantina/internal/store/sqlite"
)

// Open builds the backend named by cfg.Kind. The returned close
// function is always safe to call once.
func Open(ctx context.Context, cfg store.Config) (store.Store, func(), error) {
	switch cfg.Kind {
	case "", "sqlite":
		repo, closeFn, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, closeFn, nil
	case "postgres":
		repo, closeFn, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store.kind=%s", cfg.Kind)
	}
}
