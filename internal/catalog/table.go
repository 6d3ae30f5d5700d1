package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadTable reads a tabular source into rows, header first.
// The format is chosen by the file extension; unknown extensions are tried
// as XLSX and then as CSV.
func ReadTable(name string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	switch strings.ToLower(strings.TrimSpace(filepath.Ext(name))) {
	case ".csv", ".txt":
		return parseCSVRows(data)
	case ".xlsx", ".xlsm":
		return parseExcelRows(data)
	default:
		if rows, err := parseExcelRows(data); err == nil {
			return rows, nil
		}
		rows, err := parseCSVRows(data)
		if err != nil {
			return nil, fmt.Errorf("unsupported or invalid table format: %w", err)
		}
		return rows, nil
	}
}

func parseCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	return rows, nil
}

func parseExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}
	return rows, nil
}

// HeaderKey normalizes a column header for matching: lowercased with runs
// of whitespace collapsed to one space.
func HeaderKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ColumnIndex maps normalized header names to their column index.
// The first occurrence of a repeated header wins.
func ColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := HeaderKey(strings.TrimPrefix(h, "\ufeff"))
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return index
}

// Cell returns the trimmed cell at index, or "" when the row is short.
func Cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
