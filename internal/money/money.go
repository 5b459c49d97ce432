// Package money holds the fixed-point helpers shared by billing, purchase and reporting.
// Every monetary rounding point rounds half away from zero to 2 places, the same as
// ROUND_HALF_UP on positive amounts.
package money

import "github.com/shopspring/decimal"

var (
	Hundred = decimal.NewFromInt(100)
	Two     = decimal.NewFromInt(2)
)

func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Gross is price × quantity, unrounded.
func Gross(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// LineGST = round2(price × qty × percent / 100)
func LineGST(price decimal.Decimal, qty int, percent decimal.Decimal) decimal.Decimal {
	return Round2(Gross(price, qty).Mul(percent).Div(Hundred))
}

// LineTotal = round2(price × qty + gst)
func LineTotal(price decimal.Decimal, qty int, gst decimal.Decimal) decimal.Decimal {
	return Round2(Gross(price, qty).Add(gst))
}

// Percent = round2(part / whole × 100), zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return Round2(part.Div(whole).Mul(Hundred))
}

// HalfSplit returns round2(total / 2) for each half. The halves are not re-balanced,
// so their sum can differ from total by a cent.
func HalfSplit(total decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	half := Round2(total.Div(Two))
	return half, half
}

// Normalize parses user input into a 2-place amount.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return Round2(d)
}
