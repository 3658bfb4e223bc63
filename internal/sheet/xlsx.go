package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cantina/internal/wine"
)

// ParseXLSX reads the first worksheet of an Excel workbook and applies
// the same banner detection and column mapping as the CSV path. Excel
// exports of the same lists carry the same shape, only the container
// differs.
func ParseXLSX(r io.Reader, category string) ([]wine.Candidate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("sheet: open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []wine.Candidate{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet: read xlsx rows: %w", err)
	}

	return fromRows(rows, category), nil
}
