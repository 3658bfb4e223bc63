// Package importer ties the ingestion pieces together: session gate,
// normalizer, extractor, sheet parser, remote fetch, confirmation flow
// and merge engine. It is the surface the CLI and HTTP layers call.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cantina/internal/extract"
	"cantina/internal/fetch"
	"cantina/internal/flow"
	"cantina/internal/merge"
	"cantina/internal/metrics"
	"cantina/internal/session"
	"cantina/internal/sheet"
	"cantina/internal/store"
	"cantina/internal/textnorm"
	"cantina/internal/wine"
)

// Mode selects append-vs-replace for direct imports.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeReplace Mode = "replace"
)

// Report is the outcome of a direct (non-interactive) import.
type Report struct {
	Results []merge.Result `json:"results"`

	// SkippedRows counts source rows dropped as unparsable.
	SkippedRows int `json:"skipped_rows"`

	// ExistingBefore and KnownSuppliers describe the inventory as it
	// stood when the import started.
	ExistingBefore int `json:"existing_before"`
	KnownSuppliers int `json:"known_suppliers"`
}

// Importer runs import operations for the currently signed-in user.
// Every entry point validates the session first.
type Importer struct {
	sessions  *session.Manager
	store     store.Store
	merger    *merge.Merger
	extractor *extract.Extractor
	fetcher   *fetch.Client
}

func New(sessions *session.Manager, st store.Store, fetcher *fetch.Client, extractor *extract.Extractor) *Importer {
	return &Importer{
		sessions:  sessions,
		store:     st,
		merger:    merge.New(st),
		extractor: extractor,
		fetcher:   fetcher,
	}
}

// AnalyzeText runs the optimize pre-pass and the analyze step over
// pasted text: normalize into candidate lines, extract fields from
// each, and open a confirmation flow over the resulting batch.
func (im *Importer) AnalyzeText(ctx context.Context, text, category string) (_ *wine.Batch, _ *flow.Flow, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep("analyze", err, time.Since(start)) }()

	if _, err = im.sessions.Validate(ctx); err != nil {
		return nil, nil, err
	}

	lines := textnorm.Lines(text)
	cands := make([]wine.Candidate, 0, len(lines))
	for _, ln := range lines {
		c := im.extractor.Candidate(ln.Text, ln.N)
		c.Category = category
		cands = append(cands, c)
	}

	batch := wine.NewBatch(category, cands)
	fl := flow.New()
	if err = fl.Start(batch); err != nil {
		return nil, nil, err
	}
	metrics.RecordRecords("candidates", int64(len(cands)))
	log.Printf("importer: analyzed %d lines into %d candidates", len(lines), len(cands))
	return batch, fl, nil
}

// ImportSheet imports a remote spreadsheet directly, bypassing the
// per-record confirmation: derive the CSV export URL, fetch, parse,
// merge. Replace mode is gated by the merge engine's double
// confirmation.
func (im *Importer) ImportSheet(ctx context.Context, url, category string, mode Mode, confirm merge.Confirmation) (*Report, error) {
	userID, err := im.sessions.Validate(ctx)
	if err != nil {
		return nil, err
	}

	export, err := fetch.ExportURL(url)
	if err != nil {
		return nil, err
	}
	body, err := im.fetcher.CSV(ctx, export)
	if err != nil {
		return nil, err
	}

	cands, skipped, err := sheet.Parse(bytes.NewReader(body), category)
	if err != nil {
		return nil, err
	}
	return im.reconcile(ctx, userID, category, cands, skipped, mode, confirm)
}

// ImportCSV imports a local file. Readers named *.xlsx route through
// the workbook parser; everything else is treated as CSV.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, filename, category string, mode Mode, confirm merge.Confirmation) (*Report, error) {
	userID, err := im.sessions.Validate(ctx)
	if err != nil {
		return nil, err
	}

	var (
		cands   []wine.Candidate
		skipped int
	)
	if strings.EqualFold(path.Ext(filename), ".xlsx") {
		cands, err = sheet.ParseXLSX(r, category)
	} else {
		cands, skipped, err = sheet.Parse(r, category)
	}
	if err != nil {
		return nil, err
	}
	return im.reconcile(ctx, userID, category, cands, skipped, mode, confirm)
}

func (im *Importer) reconcile(ctx context.Context, userID, category string, cands []wine.Candidate, skipped int, mode Mode, confirm merge.Confirmation) (*Report, error) {
	report := &Report{SkippedRows: skipped}

	// Snapshot the current inventory and supplier list before writing;
	// the two loads are independent.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		existing, err := im.store.WinesByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		report.ExistingBefore = len(existing)
		return nil
	})
	g.Go(func() error {
		sups, err := im.store.Suppliers(gctx, userID)
		if err != nil {
			return fmt.Errorf("load suppliers: %w", err)
		}
		report.KnownSuppliers = len(sups)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs := make([]wine.Confirmed, 0, len(cands))
	for _, c := range cands {
		if c.Empty() {
			continue
		}
		if c.Category == "" {
			c.Category = category
		}
		recs = append(recs, wine.Confirmed{Candidate: c})
	}
	if len(recs) == 0 {
		return nil, flow.ErrNothingToImport
	}

	var (
		results []merge.Result
		err     error
	)
	start := time.Now()
	switch mode {
	case ModeReplace:
		results, err = im.merger.Replace(ctx, userID, category, confirm, recs)
	case ModeAppend, "":
		results, err = im.merger.Apply(ctx, userID, recs)
	default:
		return nil, fmt.Errorf("unsupported import mode %q", mode)
	}
	metrics.RecordStep("merge", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	var inserted, updated int64
	for _, r := range results {
		switch r.Action {
		case merge.ActionInsert:
			inserted++
		case merge.ActionUpdate:
			updated++
		}
	}
	metrics.RecordRecords("inserted", inserted)
	metrics.RecordRecords("updated", updated)
	metrics.RecordRecords("skipped_rows", int64(skipped))

	report.Results = results
	log.Printf("importer: merged %d records for user %s (%d skipped rows, %d already stored)",
		len(results), userID, skipped, report.ExistingBefore)
	return report, nil
}
