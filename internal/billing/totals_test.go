package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedDiscount(t *testing.T) {
	assert.Equal(t, "150.00", AllowedDiscount(dec("1000")).StringFixed(2))
	assert.Equal(t, "15.00", AllowedDiscount(dec("99.99")).StringFixed(2))
	assert.True(t, DiscountAllowed(dec("1000"), dec("850")))
	assert.False(t, DiscountAllowed(dec("1000"), dec("849.99")))
	assert.True(t, DiscountAllowed(dec("99.99"), dec("84.99")))
	assert.False(t, DiscountAllowed(dec("99.99"), dec("84.98")))
}

// The ceiling is compared after rounding to paise, so 15% of 999.99 allows 150.00.
func TestAllowedDiscountIsQuantized(t *testing.T) {
	assert.Equal(t, "150.00", AllowedDiscount(dec("999.99")).StringFixed(2))
	assert.True(t, DiscountAllowed(dec("999.99"), dec("849.99")))
	assert.False(t, DiscountAllowed(dec("999.99"), dec("849.98")))
	assert.Equal(t, "0.15", AllowedDiscount(dec("0.99")).StringFixed(2))
}

func TestComputeLineRoundsOnlyAtStoragePoints(t *testing.T) {
	l := ComputeLine(dec("100.00"), dec("99.995"), 3, dec("12"))
	assert.Equal(t, "36.00", l.GSTAmount.StringFixed(2))
	assert.Equal(t, "335.99", l.LineTotal.StringFixed(2))
	assert.Equal(t, "0.02", l.DiscountAmount.StringFixed(2))
	assert.Equal(t, "0.01", l.DiscountPercent.StringFixed(2))
}

func TestComputeLineZeroMRP(t *testing.T) {
	l := ComputeLine(dec("0"), dec("0"), 2, dec("5"))
	assert.True(t, l.DiscountPercent.IsZero())
	assert.True(t, l.LineTotal.IsZero())
}

func TestFinalizeSplitsGSTWithoutRebalancing(t *testing.T) {
	var tot Totals
	tot.Add(1, ComputeLine(dec("1"), dec("0.50"), 1, dec("10")))
	final := tot.Finalize()

	assert.Equal(t, "0.05", final.GST.StringFixed(2))
	assert.Equal(t, "0.03", final.CGST.StringFixed(2))
	assert.Equal(t, "0.03", final.SGST.StringFixed(2))
	assert.Equal(t, "0.55", final.Amount.StringFixed(2))
}

func TestErrorBodyHidesUnexpectedCause(t *testing.T) {
	body := unexpected(assert.AnError).Body()
	assert.Equal(t, "Server error while creating bill.", body["error"])
	assert.NotContains(t, body, "item")

	n := 4
	body = insufficient(2, 7, "Bata Formal 8", n).Body()
	assert.Equal(t, KindInsufficientStock, body["kind"])
	assert.Equal(t, 2, body["item"])
	assert.Equal(t, uint(7), body["product_id"])
	assert.Equal(t, 4, body["available"])
}
