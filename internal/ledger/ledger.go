package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/catalog"
)

// Errors returned by ledger operations.
var (
	ErrUnknownProduct  = errors.New("product code not found")
	ErrInvalidQuantity = errors.New("quantity must be a whole number >= 1")
	ErrIndexOutOfRange = errors.New("line position out of range")
	ErrCorruptItem     = errors.New("line item is inconsistent")
)

// Lookuper resolves a product code. Satisfied by *catalog.Catalog.
type Lookuper interface {
	Lookup(code string) (catalog.Product, bool)
}

// LineItem is one product/quantity entry. Name, per-case and rate are frozen
// when the item is added; Amount is Rate*Quantity at that moment.
type LineItem struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	PerCase     string          `json:"per_case"`
	Quantity    int             `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Line is a LineItem with its 1-based serial number.
type Line struct {
	Serial int `json:"serial"`
	LineItem
}

// Ledger is the ordered list of line items for one invoice.
// It is not safe for concurrent use; the owning session serializes access.
type Ledger struct {
	items []LineItem
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// FromItems rebuilds a ledger from previously captured items.
func FromItems(items []LineItem) (*Ledger, error) {
	l := &Ledger{items: make([]LineItem, 0, len(items))}
	for i, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item[%d]: %w: quantity %d", i, ErrCorruptItem, it.Quantity)
		}
		if it.Rate.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w: negative rate", i, ErrCorruptItem)
		}
		if want := it.Rate.Mul(decimal.NewFromInt(int64(it.Quantity))); !it.Amount.Equal(want) {
			return nil, fmt.Errorf("item[%d]: %w: amount %s != %s", i, ErrCorruptItem, it.Amount, want)
		}
		it.ProductCode = catalog.NormalizeCode(it.ProductCode)
		l.items = append(l.items, it)
	}
	return l, nil
}

// ParseQuantity parses operator input into a quantity.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	if q < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, q)
	}
	return q, nil
}

// Add looks code up in cat and appends a new item for quantity units.
func (l *Ledger) Add(cat Lookuper, code string, quantity int) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	p, ok := cat.Lookup(code)
	if !ok {
		return LineItem{}, fmt.Errorf("%w: %q", ErrUnknownProduct, catalog.NormalizeCode(code))
	}

	item := LineItem{
		ProductCode: p.Code,
		ProductName: p.Name,
		PerCase:     p.PerCase,
		Quantity:    quantity,
		Rate:        p.Rate,
		Amount:      p.Rate.Mul(decimal.NewFromInt(int64(quantity))),
	}
	l.items = append(l.items, item)
	return item, nil
}

// RemoveAt removes the item shown at the 1-based serial position.
func (l *Ledger) RemoveAt(position int) (LineItem, error) {
	if position < 1 || position > len(l.items) {
		return LineItem{}, fmt.Errorf("%w: %d not in [1, %d]", ErrIndexOutOfRange, position, len(l.items))
	}
	i := position - 1
	removed := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return removed, nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.items = nil
}

// Len is the number of items.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Items returns a copy of the items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Lines returns the items numbered 1..N.
func (l *Ledger) Lines() []Line {
	return Number(l.items)
}

// Number assigns serial numbers 1..N to items.
func Number(items []LineItem) []Line {
	out := make([]Line, len(items))
	for i, it := range items {
		out[i] = Line{Serial: i + 1, LineItem: it}
	}
	return out
}
