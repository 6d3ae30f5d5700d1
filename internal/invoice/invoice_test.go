package invoice

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/catalog"
	"github.com/sureshodi/anandhaa/internal/session"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var issued = time.Date(2024, 10, 30, 18, 45, 0, 0, time.UTC)

func testDocument(t *testing.T, lines int, discount, pkg string) Document {
	t.Helper()
	cat := catalog.New(
		catalog.Product{Code: "SP10E", Name: "Sparkler", PerCase: "10", Rate: dec("12.50")},
		catalog.Product{Code: "FP01", Name: "Flower Pot Special Colour Deluxe Giant Edition", PerCase: "5", Rate: dec("80")},
	)
	s := session.NewManager(nil).Create()
	s.SetCustomer(session.Customer{Name: "Ravi", Mobile: "9840000000", Address: "Sivakasi"})
	if err := s.SetAdjustments(dec(discount), dec(pkg)); err != nil {
		t.Fatal(err)
	}
	codes := []string{"SP10E", "FP01"}
	for i := 0; i < lines; i++ {
		qty := 4
		if i > 0 {
			qty = 1
		}
		if _, err := s.AddItem(cat, codes[i%2], qty); err != nil {
			t.Fatal(err)
		}
	}
	v, err := s.View()
	if err != nil {
		t.Fatal(err)
	}
	shop := Shop{Name: "Anandhaa Crackers", Address: "Sivakasi", Phone: "04562 000000"}
	return NewDocument("INV-20241030-0001", issued, shop, "Rs.", v)
}

func TestRenderText(t *testing.T) {
	d := testDocument(t, 1, "10", "5")
	var buf bytes.Buffer
	if err := RenderText(&buf, d); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"ANANDHAA CRACKERS",
		"Invoice: INV-20241030-0001",
		"Date:    30-10-2024 18:45",
		"Customer: Ravi",
		"Sparkler",
		"12.50",
		"50.00",
		"Discount (10%)",
		"-5.00",
		"After Discount",
		"45.00",
		"Packing (5%)",
		"2.25",
		"Grand Total",
		"Rs. 47.25",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderText_OmitsZeroAdjustments(t *testing.T) {
	d := testDocument(t, 1, "0", "0")
	var buf bytes.Buffer
	if err := RenderText(&buf, d); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "Discount") || strings.Contains(out, "Packing") {
		t.Errorf("zero adjustments should be omitted:\n%s", out)
	}
	if !strings.Contains(out, "Rs. 50.00") {
		t.Errorf("missing grand total:\n%s", out)
	}
}

func TestRenderText_SerialOrder(t *testing.T) {
	d := testDocument(t, 3, "0", "0")
	var buf bytes.Buffer
	if err := RenderText(&buf, d); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, line := range strings.Split(buf.String(), "\n") {
		f := strings.Fields(line)
		if len(f) >= 2 && (f[1] == "SP10E" || f[1] == "FP01") {
			got = append(got, f[0]+":"+f[1])
		}
	}
	want := []string{"1:SP10E", "2:FP01", "3:SP10E"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows: got %v, want %v", got, want)
	}
}

func TestCenter_CountsRunes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"Anandhaa", (textWidth - 8) / 2},
		{"ஆனந்தா பட்டாசு", (textWidth - 14) / 2},
		{"₹ Rate", (textWidth - 6) / 2},
		{strings.Repeat("x", textWidth+1), 0},
	}
	for _, tt := range tests {
		got := center(tt.in)
		pad := len(got) - len(strings.TrimLeft(got, " "))
		if pad != tt.want {
			t.Errorf("center(%q): padding %d, want %d", tt.in, pad, tt.want)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	d := testDocument(t, 2, "10", "5")
	var buf bytes.Buffer
	if err := RenderPDF(&buf, d); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestBuildPDF_Paginates(t *testing.T) {
	short := buildPDF(testDocument(t, 3, "0", "0"))
	if short.Err() {
		t.Fatal(short.Error())
	}
	if short.PageCount() != 1 {
		t.Errorf("short invoice pages: got %d, want 1", short.PageCount())
	}

	long := buildPDF(testDocument(t, 90, "10", "5"))
	if long.Err() {
		t.Fatal(long.Error())
	}
	if long.PageCount() < 3 {
		t.Errorf("long invoice pages: got %d, want >= 3", long.PageCount())
	}
}

func TestDocument_TotalQuantity(t *testing.T) {
	d := testDocument(t, 3, "0", "0")
	if got := d.TotalQuantity(); got != 6 {
		t.Errorf("TotalQuantity: got %d, want 6", got)
	}
}
