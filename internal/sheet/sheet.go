// Package sheet parses spreadsheet-shaped wine lists (CSV exports and
// Excel workbooks) into candidate records. List exports are messy:
// they open with category banner rows ("BOLLICINE ITALIANE"), repeat
// column-heading rows ("NOME VINO", "PRODUTTORE", ...), and pad with
// blank rows. The parser locates the true data start, skips every
// non-data row, and maps fixed column positions to named fields.
package sheet

import (
	"encoding/csv"
	"io"
	"log"
	"strconv"
	"strings"

	"cantina/internal/extract"
	"cantina/internal/wine"
)

// GridSize is the fixed number of rows the editable UI grid displays.
// PadGrid fills up to this size; padding is a display concern only and
// the merge path ignores empty rows.
const GridSize = 100

// Fixed column mapping of the list exports.
const (
	colName = iota
	colVintage
	colProducer
	colProvenance
	colSupplier
	colStock // optional giacenza column
)

const utf8BOM = "\ufeff"

// headerWords are fragments of known column-heading rows. A row whose
// joined upper-cased text contains at least two of them is a heading
// banner, not data; one hit alone is too weak (names can embed short
// words like ANNO).
var headerWords = []string{
	"NOME VINO", "PRODUTTORE", "PROVENIENZA", "GIACENZA",
	"FORNITORE", "ANNO", "ANNATA", "PREZZO", "COSTO", "SCORTA", "TIPO",
}

// Parse reads comma-separated rows and returns the candidate records
// for the given category label, plus the number of rows skipped due to
// read errors. Empty or totally unparsable input yields a zero-length
// result, not an error.
func Parse(r io.Reader, category string) ([]wine.Candidate, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var (
		rows    [][]string
		skipped int
	)
	for line := 0; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Soft-fail the row and keep going; banners and stray
			// formatting must not abort the whole import.
			log.Printf("sheet: skipping row %d: %v", line, err)
			skipped++
			continue
		}
		if line == 0 && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], utf8BOM)
		}
		rows = append(rows, row)
	}

	return fromRows(rows, category), skipped, nil
}

// fromRows applies banner detection and the fixed column mapping to
// pre-split rows. Shared by the CSV and XLSX paths.
func fromRows(rows [][]string, category string) []wine.Candidate {
	out := []wine.Candidate{}
	started := false

	for i, row := range rows {
		if isBanner(row) {
			continue
		}
		if !started {
			if !isDataShaped(row) {
				continue
			}
			started = true
		}
		if cell(row, colName) == "" {
			continue // grid padding
		}
		out = append(out, candidateFromRow(row, category, i))
	}
	return out
}

func candidateFromRow(row []string, category string, sourceLine int) wine.Candidate {
	stock := -1
	if s := cell(row, colStock); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			stock = n
		}
	}
	return wine.Candidate{
		Name:       strings.ToUpper(cell(row, colName)),
		Vintage:    extract.NormalizeVintage(cell(row, colVintage)),
		Producer:   cell(row, colProducer),
		Provenance: cell(row, colProvenance),
		Supplier:   cell(row, colSupplier),
		Category:   category,
		Stock:      stock,
		SourceLine: sourceLine,
	}
}

// isBanner reports whether the row is a non-data row: a category
// title in the first cell, or a column-heading row.
func isBanner(row []string) bool {
	first := strings.ToUpper(cell(row, 0))
	if wine.IsCategory(first) {
		return true
	}

	joined := strings.ToUpper(strings.Join(row, " "))
	hits := 0
	for _, w := range headerWords {
		if strings.Contains(joined, w) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// isDataShaped reports whether the row looks like the first genuine
// data row: non-empty first cell, longer than 3 characters, not a
// category keyword.
func isDataShaped(row []string) bool {
	first := cell(row, 0)
	return len(first) > 3 && !wine.IsCategory(first)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// PadGrid pads candidates with empty placeholder rows up to size for
// UI-grid consumption. The input is returned unchanged when already
// long enough.
func PadGrid(cands []wine.Candidate, size int) []wine.Candidate {
	for len(cands) < size {
		cands = append(cands, wine.Candidate{Stock: -1, SourceLine: -1})
	}
	return cands
}
