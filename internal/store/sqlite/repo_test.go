package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cantina/internal/store"
	"cantina/internal/wine"
)

// openTest opens a fresh named in-memory database per test so tests
// can run in parallel without sharing state.
func openTest(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ToLower(t.Name()))
	repo, closeFn, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(closeFn)
	return repo
}

func TestInsertAndLookup(t *testing.T) {
	t.Parallel()
	repo := openTest(t)
	ctx := context.Background()

	w := &wine.Wine{
		UserID:  "u1",
		Name:    "BAROLO BUSSIA",
		Type:    "rosso",
		Stock:   6,
		Price:   48,
		Vintage: "2019",
		Region:  "Piemonte",
	}
	if err := repo.InsertWine(ctx, w); err != nil {
		t.Fatalf("InsertWine() error = %v", err)
	}
	if w.ID == 0 {
		t.Fatal("InsertWine() did not backfill ID")
	}

	got, err := repo.WineByKey(ctx, "u1", wine.MatchKey("barolo bussia"))
	if err != nil {
		t.Fatalf("WineByKey() error = %v", err)
	}
	if got.Name != w.Name || got.Stock != 6 || got.Vintage != "2019" {
		t.Errorf("WineByKey() = %+v, want matching insert", got)
	}

	// Other users never see it.
	if _, err := repo.WineByKey(ctx, "u2", wine.MatchKey(w.Name)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("WineByKey(other user) error = %v, want ErrNotFound", err)
	}
}

func TestWineByKeyNotFound(t *testing.T) {
	t.Parallel()
	repo := openTest(t)

	_, err := repo.WineByKey(context.Background(), "u1", "NOPE")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("WineByKey() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateWine(t *testing.T) {
	t.Parallel()
	repo := openTest(t)
	ctx := context.Background()

	w := &wine.Wine{UserID: "u1", Name: "ETNA ROSSO", Type: "rosso", Stock: 3}
	if err := repo.InsertWine(ctx, w); err != nil {
		t.Fatalf("InsertWine() error = %v", err)
	}

	w.Stock = 9
	w.Price = 22.5
	if err := repo.UpdateWine(ctx, *w); err != nil {
		t.Fatalf("UpdateWine() error = %v", err)
	}

	got, err := repo.WineByKey(ctx, "u1", wine.MatchKey(w.Name))
	if err != nil {
		t.Fatalf("WineByKey() error = %v", err)
	}
	if got.Stock != 9 || got.Price != 22.5 {
		t.Errorf("after update got stock=%d price=%v, want 9, 22.5", got.Stock, got.Price)
	}

	missing := wine.Wine{ID: 9999, UserID: "u1", Name: "GHOST"}
	if err := repo.UpdateWine(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateWine(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteWinesByType(t *testing.T) {
	t.Parallel()
	repo := openTest(t)
	ctx := context.Background()

	for _, w := range []wine.Wine{
		{UserID: "u1", Name: "A", Type: "rosso"},
		{UserID: "u1", Name: "B", Type: "rosso"},
		{UserID: "u1", Name: "C", Type: "bianco"},
		{UserID: "u2", Name: "D", Type: "rosso"},
	} {
		w := w
		if err := repo.InsertWine(ctx, &w); err != nil {
			t.Fatalf("InsertWine(%s) error = %v", w.Name, err)
		}
	}

	n, err := repo.DeleteWinesByType(ctx, "u1", "rosso")
	if err != nil {
		t.Fatalf("DeleteWinesByType() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteWinesByType() = %d, want 2", n)
	}

	left, err := repo.WinesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("WinesByUser() error = %v", err)
	}
	if len(left) != 1 || left[0].Name != "C" {
		t.Errorf("remaining wines = %+v, want only C", left)
	}

	// u2's rosso untouched.
	others, err := repo.WinesByUser(ctx, "u2")
	if err != nil {
		t.Fatalf("WinesByUser(u2) error = %v", err)
	}
	if len(others) != 1 {
		t.Errorf("u2 wines = %+v, want 1", others)
	}
}

func TestUpsertSupplier(t *testing.T) {
	t.Parallel()
	repo := openTest(t)
	ctx := context.Background()

	for _, name := range []string{"VINARIA SRL", "VINARIA SRL", "  ", "ENOTECA NORD"} {
		if err := repo.UpsertSupplier(ctx, "u1", name); err != nil {
			t.Fatalf("UpsertSupplier(%q) error = %v", name, err)
		}
	}

	got, err := repo.Suppliers(ctx, "u1")
	if err != nil {
		t.Fatalf("Suppliers() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Suppliers() = %+v, want 2 distinct names", got)
	}
	if got[0].Name != "ENOTECA NORD" || got[1].Name != "VINARIA SRL" {
		t.Errorf("Suppliers() order = %q, %q; want name-sorted", got[0].Name, got[1].Name)
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	t.Parallel()
	repo := openTest(t)
	ctx := context.Background()

	a := &wine.Wine{UserID: "u1", Name: "Brunello di Montalcino"}
	if err := repo.InsertWine(ctx, a); err != nil {
		t.Fatalf("InsertWine() error = %v", err)
	}
	// Same name in different case maps to the same key.
	b := &wine.Wine{UserID: "u1", Name: "BRUNELLO DI MONTALCINO"}
	if err := repo.InsertWine(ctx, b); err == nil {
		t.Error("InsertWine(duplicate key) error = nil, want constraint violation")
	}
}
