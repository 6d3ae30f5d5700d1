// Package totals computes invoice sub-totals, discount and packaging charges.
//
// Packaging is charged on the discounted total, not the sub-total, so the
// two percentages compound. Amounts keep full precision; round only when
// rendering.
package totals

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/ledger"
)

// ErrInvalidPercent is returned for percentages outside [0, 100].
var ErrInvalidPercent = errors.New("percent must be between 0 and 100")

var hundred = decimal.NewFromInt(100)

// Breakdown is the derived totals for one ledger snapshot.
type Breakdown struct {
	SubTotal        decimal.Decimal `json:"sub_total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
	PackagePercent  decimal.Decimal `json:"package_percent"`
	PackageAmount   decimal.Decimal `json:"package_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// ValidatePercent checks that p lies in [0, 100].
func ValidatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidPercent, p)
	}
	return nil
}

// ParsePercent parses form input; a blank value means zero.
func ParsePercent(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if raw == "" {
		return decimal.Zero, nil
	}
	p, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPercent, raw)
	}
	if err := ValidatePercent(p); err != nil {
		return decimal.Zero, err
	}
	return p, nil
}

// Compute derives the breakdown for items. It has no side effects.
func Compute(items []ledger.LineItem, discountPercent, packagePercent decimal.Decimal) (Breakdown, error) {
	if err := ValidatePercent(discountPercent); err != nil {
		return Breakdown{}, fmt.Errorf("discount: %w", err)
	}
	if err := ValidatePercent(packagePercent); err != nil {
		return Breakdown{}, fmt.Errorf("package: %w", err)
	}

	subTotal := decimal.Zero
	for _, it := range items {
		subTotal = subTotal.Add(it.Amount)
	}

	discountValue := subTotal.Mul(discountPercent).Shift(-2)
	discountedTotal := subTotal.Sub(discountValue)
	packageAmount := discountedTotal.Mul(packagePercent).Shift(-2)
	grandTotal := discountedTotal.Add(packageAmount)

	return Breakdown{
		SubTotal:        subTotal,
		DiscountPercent: discountPercent,
		DiscountValue:   discountValue,
		DiscountedTotal: discountedTotal,
		PackagePercent:  packagePercent,
		PackageAmount:   packageAmount,
		GrandTotal:      grandTotal,
	}, nil
}

// Rounded returns the breakdown with every amount rounded to 2 places.
// Percentages are left untouched.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		SubTotal:        b.SubTotal.Round(2),
		DiscountPercent: b.DiscountPercent,
		DiscountValue:   b.DiscountValue.Round(2),
		DiscountedTotal: b.DiscountedTotal.Round(2),
		PackagePercent:  b.PackagePercent,
		PackageAmount:   b.PackageAmount.Round(2),
		GrandTotal:      b.GrandTotal.Round(2),
	}
}

// Equal reports whether two breakdowns hold the same values.
func (b Breakdown) Equal(o Breakdown) bool {
	return b.SubTotal.Equal(o.SubTotal) &&
		b.DiscountPercent.Equal(o.DiscountPercent) &&
		b.DiscountValue.Equal(o.DiscountValue) &&
		b.DiscountedTotal.Equal(o.DiscountedTotal) &&
		b.PackagePercent.Equal(o.PackagePercent) &&
		b.PackageAmount.Equal(o.PackageAmount) &&
		b.GrandTotal.Equal(o.GrandTotal)
}

// Money formats an amount with exactly 2 decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
