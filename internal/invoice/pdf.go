package invoice

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/sureshodi/anandhaa/internal/totals"
)

const (
	pageMargin   = 10.0
	footerMargin = 15.0
	rowHeight    = 7.0
)

type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"S.No", 12, "C"},
	{"Code", 22, "L"},
	{"Product", 62, "L"},
	{"Per Case", 22, "C"},
	{"Qty", 16, "R"},
	{"Rate", 26, "R"},
	{"Amount", 30, "R"},
}

// RenderPDF writes the invoice as an A4 PDF. Long ledgers continue on
// further pages with the table header repeated.
func RenderPDF(w io.Writer, d Document) error {
	pdf := buildPDF(d)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func buildPDF(d Document) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, footerMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle(tr("Invoice "+d.Number), false)
	if d.Shop.Name != "" {
		pdf.SetAuthor(tr(d.Shop.Name), false)
	}
	pdf.SetCreationDate(d.IssuedAt)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 15)
		pdf.CellFormat(0, 8, tr(d.Shop.Name), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, s := range []string{d.Shop.Address, d.Shop.Phone} {
			if s != "" {
				pdf.CellFormat(0, 5, tr(s), "", 1, "C", false, 0, "")
			}
		}
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerMargin + 3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s - Page %d/{nb}", tr(d.Number), pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	_, pageHeight := pdf.GetPageSize()
	limit := pageHeight - footerMargin - 2

	pdf.SetFont("Helvetica", "", 10)
	left := [][2]string{
		{"Customer", d.Customer.Name},
		{"Mobile", d.Customer.Mobile},
		{"Address", d.Customer.Address},
	}
	right := [][2]string{
		{"Invoice", d.Number},
		{"Date", d.IssuedAt.Format("02-01-2006")},
		{"Time", d.IssuedAt.Format("15:04")},
	}
	for i := range left {
		pdf.CellFormat(22, 6, left[i][0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(88, 6, tr(left[i][1]), "", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, right[i][0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(right[i][1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	tableHeader()

	for _, ln := range d.Lines {
		if pdf.GetY()+rowHeight > limit {
			pdf.AddPage()
			tableHeader()
		}
		cells := []string{
			strconv.Itoa(ln.Serial),
			tr(ln.ProductCode),
			fit(pdf, tr, ln.ProductName, columns[2].width-2),
			tr(ln.PerCase),
			strconv.Itoa(ln.Quantity),
			totals.Money(ln.Rate),
			totals.Money(ln.Amount),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, rowHeight, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	rows := d.totalRows()
	if pdf.GetY()+float64(len(rows)+2)*rowHeight > limit {
		pdf.AddPage()
	}
	labelWidth := 0.0
	for _, c := range columns[:len(columns)-1] {
		labelWidth += c.width
	}
	pdf.CellFormat(labelWidth, rowHeight, "Total Quantity", "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[len(columns)-1].width, rowHeight, strconv.Itoa(d.TotalQuantity()), "1", 1, "R", false, 0, "")
	for i, row := range rows {
		if i == len(rows)-1 {
			pdf.SetFont("Helvetica", "B", 11)
		}
		pdf.CellFormat(labelWidth, rowHeight, tr(row[0]+" ("+d.CurrencyLabel+")"), "1", 0, "R", false, 0, "")
		pdf.CellFormat(columns[len(columns)-1].width, rowHeight, row[1], "1", 1, "R", false, 0, "")
	}
	return pdf
}

// fit shortens s with a trailing ".." until its translated form fits width.
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if pdf.GetStringWidth(tr(s)) <= width {
		return tr(s)
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"..")) > width {
		r = r[:len(r)-1]
	}
	return tr(string(r) + "..")
}
