// Package stock tracks units sold and units available per product code on a
// copy of the catalog sheet, and exports the updated sheet.
package stock

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/catalog"
	"github.com/sureshodi/anandhaa/internal/enum"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/xuri/excelize/v2"
)

// ErrNoCodeColumn is returned when the sheet has no product code column.
var ErrNoCodeColumn = errors.New("stock sheet has no product code column")

// Levels is the stock position of one product.
type Levels struct {
	Code      string `json:"code"`
	Sold      int    `json:"sold"`
	Available int    `json:"available"`
}

// SaleResult reports what ApplySale could not apply cleanly.
type SaleResult struct {
	Unknown  []string `json:"unknown,omitempty"`
	Oversold []string `json:"oversold,omitempty"`
}

// Sheet is a mutable copy of the catalog table with stock columns.
// Safe for concurrent use.
type Sheet struct {
	mu       sync.Mutex
	header   []string
	rows     [][]string
	codeCol  int
	soldCol  int
	availCol int
	index    map[string]int
}

// LoadFile reads the catalog file at path into a Sheet.
func LoadFile(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stock sheet: %w", err)
	}
	defer f.Close()
	rows, err := catalog.ReadTable(path, f)
	if err != nil {
		return nil, fmt.Errorf("read stock sheet: %w", err)
	}
	return FromTable(rows)
}

// FromTable builds a sheet from header-first rows. Missing stock columns are
// appended and start at zero. With duplicate codes the last row is tracked,
// matching the catalog.
func FromTable(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, ErrNoCodeColumn
	}
	header := append([]string(nil), rows[0]...)
	cols := catalog.ColumnIndex(header)
	codeCol, ok := cols[catalog.HeaderKey(enum.ColumnProductCode)]
	if !ok {
		return nil, ErrNoCodeColumn
	}

	column := func(name string) int {
		if i, ok := cols[catalog.HeaderKey(name)]; ok {
			return i
		}
		header = append(header, name)
		return len(header) - 1
	}
	s := &Sheet{
		codeCol:  codeCol,
		soldCol:  column(enum.ColumnStockSold),
		availCol: column(enum.ColumnStockAvailable),
		index:    make(map[string]int),
	}
	s.header = header

	for _, r := range rows[1:] {
		row := make([]string, len(header))
		copy(row, r)
		code := catalog.NormalizeCode(catalog.Cell(row, codeCol))
		if code == "" {
			continue
		}
		s.index[code] = len(s.rows)
		s.rows = append(s.rows, row)
	}
	return s, nil
}

// ApplySale books each item's quantity as sold.
func (s *Sheet) ApplySale(items []ledger.LineItem) SaleResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res SaleResult
	oversold := map[string]bool{}
	for _, it := range items {
		code := catalog.NormalizeCode(it.ProductCode)
		i, ok := s.index[code]
		if !ok {
			res.Unknown = append(res.Unknown, code)
			continue
		}
		row := s.rows[i]
		sold := parseCount(row[s.soldCol]) + it.Quantity
		avail := parseCount(row[s.availCol]) - it.Quantity
		row[s.soldCol] = strconv.Itoa(sold)
		row[s.availCol] = strconv.Itoa(avail)
		if avail < 0 && !oversold[code] {
			oversold[code] = true
			res.Oversold = append(res.Oversold, code)
		}
	}
	return res
}

// Levels returns the stock position of code.
func (s *Sheet) Levels(code string) (Levels, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = catalog.NormalizeCode(code)
	i, ok := s.index[code]
	if !ok {
		return Levels{}, false
	}
	return s.levelsAt(code, i), true
}

// All returns every product's stock position sorted by code.
func (s *Sheet) All() []Levels {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Levels, 0, len(s.index))
	for code, i := range s.index {
		out = append(out, s.levelsAt(code, i))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *Sheet) levelsAt(code string, i int) Levels {
	return Levels{
		Code:      code,
		Sold:      parseCount(s.rows[i][s.soldCol]),
		Available: parseCount(s.rows[i][s.availCol]),
	}
}

func (s *Sheet) snapshot() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, 0, len(s.rows)+1)
	out = append(out, append([]string(nil), s.header...))
	for _, r := range s.rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// WriteCSV writes the sheet as CSV.
func (s *Sheet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(s.snapshot()); err != nil {
		return fmt.Errorf("write stock csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the sheet as a single-sheet workbook.
func (s *Sheet) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range s.snapshot() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(r))
		for j, v := range r {
			if n, err := strconv.Atoi(v); err == nil && i > 0 {
				row[j] = n
				continue
			}
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write stock row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write stock xlsx: %w", err)
	}
	return nil
}

// parseCount reads an integer cell; blanks and junk count as zero.
// Spreadsheet exports like "12.0" are accepted.
func parseCount(raw string) int {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}
