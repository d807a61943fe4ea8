package staging

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source column names as exported by the upstream system. The unnamed
// first column is the exporter's dataframe index and is ignored.
const (
	colDate     = "Date"
	colCustomer = "Customer ID"
	colOrder    = "Order ID"
	colAmount   = "Sales"
)

// Supported reports whether the file extension maps to a known reader.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Read dispatches on file extension and returns the raw rows of a
// transaction file.
func Read(path string) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("reading %s: unsupported input format", path)
	}
}

// headerIndex maps the expected source columns to their positions.
// Missing required columns are an error; extra columns are ignored.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colCustomer, colOrder, colAmount} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	return idx, nil
}

func rowAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func readCSV(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // trailing index column varies between exports

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, fmt.Errorf("CSV header: %w", err)
	}

	var rows []RawRow
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line+1, err)
		}
		line++
		rows = append(rows, RawRow{
			Date:       rowAt(record, idx[colDate]),
			CustomerID: rowAt(record, idx[colCustomer]),
			OrderID:    rowAt(record, idx[colOrder]),
			Amount:     rowAt(record, idx[colAmount]),
			SourceFile: filepath.Base(path),
			Line:       line,
		})
	}
	return rows, nil
}
