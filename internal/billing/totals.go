package billing

import (
	"footwear-backend/internal/money"

	"github.com/shopspring/decimal"
)

// MaxDiscountRate caps the per-unit manual discount as a fraction of MRP.
var MaxDiscountRate = decimal.RequireFromString("0.15")

// AllowedDiscount is the largest per-unit discount allowed on a product with this MRP,
// rounded to paise before comparison.
func AllowedDiscount(mrp decimal.Decimal) decimal.Decimal {
	return money.Round2(mrp.Mul(MaxDiscountRate))
}

// DiscountAllowed reports whether selling at unitPrice stays within the ceiling.
func DiscountAllowed(mrp, unitPrice decimal.Decimal) bool {
	return mrp.Sub(unitPrice).LessThanOrEqual(AllowedDiscount(mrp))
}

// LineAmounts are the snapshot values stored on a sales line.
type LineAmounts struct {
	DiscountPerUnit decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	GSTAmount       decimal.Decimal
	LineTotal       decimal.Decimal
}

func ComputeLine(mrp, unitPrice decimal.Decimal, qty int, gstPercent decimal.Decimal) LineAmounts {
	perUnit := mrp.Sub(unitPrice)
	gst := money.LineGST(unitPrice, qty, gstPercent)
	return LineAmounts{
		DiscountPerUnit: perUnit,
		DiscountAmount:  money.Round2(perUnit.Mul(decimal.NewFromInt(int64(qty)))),
		DiscountPercent: money.Percent(perUnit, mrp),
		GSTAmount:       gst,
		LineTotal:       money.LineTotal(unitPrice, qty, gst),
	}
}

// Totals accumulates line values for the bill header.
type Totals struct {
	Qty      int
	Amount   decimal.Decimal
	GST      decimal.Decimal
	Discount decimal.Decimal
}

func (t *Totals) Add(qty int, l LineAmounts) {
	t.Qty += qty
	t.Amount = t.Amount.Add(l.LineTotal)
	t.GST = t.GST.Add(l.GSTAmount)
	t.Discount = t.Discount.Add(l.DiscountAmount)
}

// Final is what gets written to the bill header.
type Final struct {
	Qty      int
	Amount   decimal.Decimal
	Discount decimal.Decimal
	GST      decimal.Decimal
	CGST     decimal.Decimal
	SGST     decimal.Decimal
}

func (t Totals) Finalize() Final {
	gst := money.Round2(t.GST)
	cgst, sgst := money.HalfSplit(gst)
	return Final{
		Qty:      t.Qty,
		Amount:   money.Round2(t.Amount),
		Discount: money.Round2(t.Discount),
		GST:      gst,
		CGST:     cgst,
		SGST:     sgst,
	}
}
