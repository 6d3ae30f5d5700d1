// Package invoice turns a checked-out session into a printable invoice.
package invoice

import (
	"time"

	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/totals"
)

// Shop is the seller header printed on every invoice.
type Shop struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Document is everything a renderer needs. It never changes after creation.
type Document struct {
	Number        string           `json:"number"`
	IssuedAt      time.Time        `json:"issued_at"`
	Shop          Shop             `json:"shop"`
	Customer      session.Customer `json:"customer"`
	Lines         []ledger.Line    `json:"lines"`
	Totals        totals.Breakdown `json:"totals"`
	CurrencyLabel string           `json:"currency_label"`
}

// NewDocument builds a document from a session view.
func NewDocument(number string, issuedAt time.Time, shop Shop, currency string, v session.View) Document {
	lines := make([]ledger.Line, len(v.Lines))
	copy(lines, v.Lines)
	return Document{
		Number:        number,
		IssuedAt:      issuedAt,
		Shop:          shop,
		Customer:      v.Customer,
		Lines:         lines,
		Totals:        v.Totals,
		CurrencyLabel: currency,
	}
}

// TotalQuantity sums the quantities of all lines.
func (d Document) TotalQuantity() int {
	n := 0
	for _, ln := range d.Lines {
		n += ln.Quantity
	}
	return n
}

// totalRows lists the totals block in print order. Discount and package
// rows are omitted when their percentage is zero.
func (d Document) totalRows() [][2]string {
	b := d.Totals
	rows := [][2]string{{"Sub Total", totals.Money(b.SubTotal)}}
	if !b.DiscountPercent.IsZero() {
		rows = append(rows,
			[2]string{"Discount (" + b.DiscountPercent.String() + "%)", "-" + totals.Money(b.DiscountValue)},
			[2]string{"After Discount", totals.Money(b.DiscountedTotal)},
		)
	}
	if !b.PackagePercent.IsZero() {
		rows = append(rows, [2]string{"Packing (" + b.PackagePercent.String() + "%)", totals.Money(b.PackageAmount)})
	}
	rows = append(rows, [2]string{"Grand Total", totals.Money(b.GrandTotal)})
	return rows
}
