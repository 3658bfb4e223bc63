// Package merge reconciles confirmed import records against the stored
// inventory. Matching is by (user, canonical name); updates never touch
// the stored stock count, so re-importing a list cannot zero out what
// is actually in the cellar.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cantina/internal/store"
	"cantina/internal/wine"
)

// ErrReplaceNotConfirmed is returned when replace mode is requested
// without both acknowledgement phrases. Nothing is deleted.
var ErrReplaceNotConfirmed = errors.New("replace not confirmed")

// Acknowledgement phrases for replace mode. Both must be typed by the
// operator; a single checkbox is too easy to click through for an
// irreversible bulk delete.
const (
	PhraseReplace      = "SOSTITUISCI LA LISTA"
	PhraseIrreversible = "OPERAZIONE IRREVERSIBILE"
)

// Confirmation carries the operator's two acknowledgements for replace
// mode.
type Confirmation struct {
	Replace      string `json:"replace"`
	Irreversible string `json:"irreversible"`
}

// OK reports whether both phrases were supplied verbatim (modulo case
// and surrounding whitespace).
func (c Confirmation) OK() bool {
	norm := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
	return norm(c.Replace) == PhraseReplace && norm(c.Irreversible) == PhraseIrreversible
}

// Action distinguishes what the engine did with a record.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

// Result describes the outcome for one record.
type Result struct {
	Name   string `json:"name"`
	Action Action `json:"action"`
	Stock  int    `json:"stock"`
}

// Merger applies confirmed records to a store.
type Merger struct {
	store store.Store
}

func New(s store.Store) *Merger {
	return &Merger{store: s}
}

// Dedup removes intra-batch duplicates by match key, keeping the last
// occurrence (later lines in a pasted list are treated as corrections
// of earlier ones). Order of the survivors follows the input.
func Dedup(recs []wine.Confirmed) []wine.Confirmed {
	last := make(map[uint64]int, len(recs))
	for i, r := range recs {
		last[wine.KeyHash(r.Name)] = i
	}
	out := make([]wine.Confirmed, 0, len(last))
	for i, r := range recs {
		if last[wine.KeyHash(r.Name)] == i {
			out = append(out, r)
		}
	}
	return out
}

// Apply reconciles each record in order, one persistence call at a
// time. The sequential discipline keeps the stock-preserving
// read-then-write consistent: the batch is deduplicated first, so no
// two writes in one Apply ever target the same key.
//
// The first persistence error aborts the batch; results for the
// records already applied are returned alongside the error.
func (m *Merger) Apply(ctx context.Context, userID string, recs []wine.Confirmed) ([]Result, error) {
	recs = Dedup(recs)
	results := make([]Result, 0, len(recs))

	for _, r := range recs {
		res, err := m.applyOne(ctx, userID, r)
		if err != nil {
			return results, fmt.Errorf("merge %q: %w", r.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Replace deletes the user's wines of the category's mapped type, then
// inserts the batch fresh. Requires both acknowledgement phrases; with
// either missing it returns ErrReplaceNotConfirmed before touching
// anything.
func (m *Merger) Replace(ctx context.Context, userID, category string, confirm Confirmation, recs []wine.Confirmed) ([]Result, error) {
	if !confirm.OK() {
		return nil, ErrReplaceNotConfirmed
	}

	wineType, ok := wine.TypeForCategory(category)
	if !ok {
		return nil, fmt.Errorf("replace: unknown category %q", category)
	}
	if _, err := m.store.DeleteWinesByType(ctx, userID, wineType); err != nil {
		return nil, fmt.Errorf("replace %s: %w", wineType, err)
	}

	recs = Dedup(recs)
	results := make([]Result, 0, len(recs))
	for _, r := range recs {
		w := m.toWine(userID, r)
		if err := m.store.InsertWine(ctx, &w); err != nil {
			return results, fmt.Errorf("merge %q: %w", r.Name, err)
		}
		if err := m.rememberSupplier(ctx, userID, r.Supplier); err != nil {
			return results, err
		}
		results = append(results, Result{Name: w.Name, Action: ActionInsert, Stock: w.Stock})
	}
	return results, nil
}

func (m *Merger) applyOne(ctx context.Context, userID string, r wine.Confirmed) (Result, error) {
	if err := m.rememberSupplier(ctx, userID, r.Supplier); err != nil {
		return Result{}, err
	}

	existing, err := m.store.WineByKey(ctx, userID, wine.MatchKey(r.Name))
	switch {
	case err == nil:
		// Overwrite descriptive fields, keep the stored stock.
		updated := m.toWine(userID, r)
		updated.ID = existing.ID
		updated.Stock = existing.Stock
		updated.MinStock = existing.MinStock
		if err := m.store.UpdateWine(ctx, updated); err != nil {
			return Result{}, err
		}
		return Result{Name: updated.Name, Action: ActionUpdate, Stock: updated.Stock}, nil

	case errors.Is(err, store.ErrNotFound):
		w := m.toWine(userID, r)
		if err := m.store.InsertWine(ctx, &w); err != nil {
			return Result{}, err
		}
		return Result{Name: w.Name, Action: ActionInsert, Stock: w.Stock}, nil

	default:
		return Result{}, err
	}
}

func (m *Merger) rememberSupplier(ctx context.Context, userID, supplier string) error {
	if strings.TrimSpace(supplier) == "" {
		return nil
	}
	if err := m.store.UpsertSupplier(ctx, userID, supplier); err != nil {
		return fmt.Errorf("supplier %q: %w", supplier, err)
	}
	return nil
}

// toWine maps a confirmed record onto the stored shape. The store has
// no producer column; producer lands in the description field.
func (m *Merger) toWine(userID string, r wine.Confirmed) wine.Wine {
	stock := r.Stock
	if stock < 0 {
		stock = 0
	}
	wineType, ok := wine.TypeForCategory(r.Category)
	if !ok {
		wineType = strings.ToLower(strings.TrimSpace(r.Category))
	}
	return wine.Wine{
		UserID:      userID,
		Name:        strings.ToUpper(strings.TrimSpace(r.Name)),
		Type:        wineType,
		Supplier:    strings.TrimSpace(r.Supplier),
		Stock:       stock,
		Price:       r.SellPrice,
		Vintage:     r.Vintage,
		Region:      strings.TrimSpace(r.Provenance),
		Description: strings.TrimSpace(r.Producer),
	}
}
