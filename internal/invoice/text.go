package invoice

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/sureshodi/anandhaa/internal/totals"
)

const textWidth = 72

// RenderText writes a plain-text transcript of the invoice.
func RenderText(w io.Writer, d Document) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("-", textWidth)

	if d.Shop.Name != "" {
		fmt.Fprintln(bw, center(strings.ToUpper(d.Shop.Name)))
	}
	for _, s := range []string{d.Shop.Address, d.Shop.Phone} {
		if s != "" {
			fmt.Fprintln(bw, center(s))
		}
	}
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Invoice: %s\n", d.Number)
	fmt.Fprintf(bw, "Date:    %s\n", d.IssuedAt.Format("02-01-2006 15:04"))
	fmt.Fprintf(bw, "Customer: %s\n", d.Customer.Name)
	fmt.Fprintf(bw, "Mobile:   %s\n", d.Customer.Mobile)
	if d.Customer.Address != "" {
		fmt.Fprintf(bw, "Address:  %s\n", d.Customer.Address)
	}
	fmt.Fprintln(bw, rule)

	tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "S.No\tCode\tProduct\tPer Case\tQty\tRate\tAmount\t\n")
	for _, ln := range d.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t\n",
			ln.Serial, ln.ProductCode, ln.ProductName, ln.PerCase,
			ln.Quantity, totals.Money(ln.Rate), totals.Money(ln.Amount))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(bw, rule)

	tw = tabwriter.NewWriter(bw, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total Quantity\t%d\t\n", d.TotalQuantity())
	for _, row := range d.totalRows() {
		fmt.Fprintf(tw, "%s\t%s %s\t\n", row[0], d.CurrencyLabel, row[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(bw, rule)
	return bw.Flush()
}

// center pads s to the middle of the page, measuring width in runes.
func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= textWidth {
		return s
	}
	return strings.Repeat(" ", (textWidth-n)/2) + s
}
