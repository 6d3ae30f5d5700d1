package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/enum"
)

// ErrCatalogLoad is returned when the catalog source is unreadable or lacks
// the product code column.
var ErrCatalogLoad = errors.New("catalog load failed")

// Product is a catalog entry. Rate is the price per unit.
type Product struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	PerCase   string          `json:"per_case"`
	Rate      decimal.Decimal `json:"rate"`
	ImagePath string          `json:"image_path,omitempty"`
}

// Catalog is an immutable product code → product mapping.
type Catalog struct {
	products map[string]Product
	skipped  int
}

var rateReplacer = strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", "INR", "", ",", "", " ", "")

// NormalizeCode trims and uppercases a product code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New builds a catalog from already-typed products. Later duplicates
// overwrite earlier ones.
func New(products ...Product) *Catalog {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		p.Code = NormalizeCode(p.Code)
		if p.Code == "" {
			c.skipped++
			continue
		}
		if p.Rate.IsNegative() {
			p.Rate = decimal.Zero
		}
		c.products[p.Code] = p
	}
	return c
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrCatalogLoad, path, err)
	}
	defer f.Close()
	return Load(path, f)
}

// Load parses a tabular catalog source. name is used only to pick the
// format (by extension).
func Load(name string, r io.Reader) (*Catalog, error) {
	rows, err := ReadTable(name, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}
	return FromRows(rows)
}

// FromRows builds a catalog from header-first rows.
func FromRows(rows [][]string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrCatalogLoad)
	}
	cols := ColumnIndex(rows[0])
	codeIdx, ok := cols[HeaderKey(enum.ColumnProductCode)]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrCatalogLoad, enum.ColumnProductCode)
	}
	nameIdx := lookupColumn(cols, enum.ColumnProductName)
	perCaseIdx := lookupColumn(cols, enum.ColumnPerCase)
	rateIdx := lookupColumn(cols, enum.ColumnRate)
	imageIdx := lookupColumn(cols, enum.ColumnImage, "Image Path", "Image URL")

	c := &Catalog{products: make(map[string]Product, len(rows)-1)}
	for _, row := range rows[1:] {
		code := NormalizeCode(Cell(row, codeIdx))
		if code == "" {
			c.skipped++
			continue
		}
		c.products[code] = Product{
			Code:      code,
			Name:      Cell(row, nameIdx),
			PerCase:   Cell(row, perCaseIdx),
			Rate:      ParseRate(Cell(row, rateIdx)),
			ImagePath: Cell(row, imageIdx),
		}
	}
	return c, nil
}

func lookupColumn(cols map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := cols[HeaderKey(n)]; ok {
			return i
		}
	}
	return -1
}

// ParseRate coerces a rate cell into a non-negative decimal.
// Blank, unparseable and negative values become zero.
func ParseRate(raw string) decimal.Decimal {
	cleaned := rateReplacer.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Lookup finds a product by code after trimming and uppercasing it.
func (c *Catalog) Lookup(code string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.products[NormalizeCode(code)]
	return p, ok
}

// Products returns every product sorted by code.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len is the number of distinct product codes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// Skipped counts source rows dropped for a blank product code.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}
