package staging

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads transaction rows from the first sheet of a workbook.
// The sheet must carry the same header row as the CSV export.
func readXLSX(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet %q", sheets[0])
	}

	idx, err := headerIndex(rows[0])
	if err != nil {
		return nil, fmt.Errorf("XLSX header: %w", err)
	}

	var out []RawRow
	for i, record := range rows[1:] {
		out = append(out, RawRow{
			Date:       rowAt(record, idx[colDate]),
			CustomerID: rowAt(record, idx[colCustomer]),
			OrderID:    rowAt(record, idx[colOrder]),
			Amount:     rowAt(record, idx[colAmount]),
			SourceFile: filepath.Base(path),
			Line:       i + 2,
		})
	}
	return out, nil
}
