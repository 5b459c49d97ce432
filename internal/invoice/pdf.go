// Package invoice renders a committed sales bill as an A4 PDF.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"footwear-backend/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("sales bill not found")

// Shop is the letterhead printed at the top of every invoice.
type Shop struct {
	Name    string
	Address string
	Phone   string
}

const (
	marginX   = 10.0
	pageWidth = 210.0
	rowHeight = 6.0
	pageLimit = 270.0 // y after which rows continue on a new page

	colItem   = 100.0
	colQty    = 20.0
	colRate   = 35.0
	colAmount = 35.0
)

// Load fetches a bill with everything the renderer prints.
func Load(ctx context.Context, db *gorm.DB, id uint) (*models.SalesBill, error) {
	var bill models.SalesBill
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("sales_items.id") }).
		Preload("Items.Product.Brand").
		Preload("Items.Product.Section").
		Preload("Items.Product.Size").
		First(&bill, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load bill %d: %w", id, err)
	}
	return &bill, nil
}

// Render writes the invoice PDF. Line amounts are the stored pre-tax value
// (selling price x qty); the totals block prints the header values as committed.
func Render(w io.Writer, shop Shop, bill *models.SalesBill) error {
	pdf := document(shop, bill)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice %s: %w", bill.BillNumber, err)
	}
	return pdf.Output(w)
}

// document lays out the invoice. The core fonts are cp1252, so all dynamic
// text goes through tr.
func document(shop Shop, bill *models.SalesBill) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+bill.BillNumber, true)
	pdf.SetMargins(marginX, 10, marginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, tr(shop.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(shop.Address), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Phone: "+tr(shop.Phone), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5, "Invoice No: "+tr(bill.BillNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+bill.BillDate.Format("02-01-2006 15:04"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Payment: "+string(bill.PaymentMode), "", 1, "L", false, 0, "")
	if bill.Customer != nil {
		customer := bill.Customer.Name
		if bill.Customer.Phone != "" {
			customer += " (" + bill.Customer.Phone + ")"
		}
		pdf.CellFormat(0, 5, "Customer: "+tr(customer), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	columns(pdf)

	subTotal := decimal.Zero
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range bill.Items {
		if pdf.GetY() > pageLimit {
			pdf.AddPage()
			columns(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}

		amount := item.SellingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subTotal = subTotal.Add(amount)

		pdf.CellFormat(colItem, rowHeight, tr(truncate(item.Product.DisplayName(), 45)), "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, rowHeight, fmt.Sprint(item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(colRate, rowHeight, item.SellingPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colAmount, rowHeight, amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if pdf.GetY() > pageLimit-40 {
		pdf.AddPage()
	}
	pdf.Ln(2)
	rule(pdf)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	total(pdf, "Sub Total:", subTotal)
	if bill.TotalDiscount.IsPositive() {
		total(pdf, "Discount on MRP:", bill.TotalDiscount)
	}
	total(pdf, "GST:", bill.TotalGST)
	pdf.SetFont("Helvetica", "", 9)
	total(pdf, "CGST:", bill.CGST)
	total(pdf, "SGST:", bill.SGST)
	pdf.SetFont("Helvetica", "B", 11)
	total(pdf, "Grand Total:", bill.TotalAmount)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Thank you for shopping with "+tr(shop.Name)+"!", "", 1, "L", false, 0, "")

	return pdf
}

func columns(pdf *fpdf.Fpdf) {
	rule(pdf)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colItem, rowHeight, "Item", "", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, rowHeight, "Qty", "", 0, "R", false, 0, "")
	pdf.CellFormat(colRate, rowHeight, "Rate", "", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, rowHeight, "Amount", "", 1, "R", false, 0, "")
	rule(pdf)
}

func rule(pdf *fpdf.Fpdf) {
	y := pdf.GetY()
	pdf.Line(marginX, y, pageWidth-marginX, y)
}

func total(pdf *fpdf.Fpdf, label string, v decimal.Decimal) {
	pdf.CellFormat(colItem+colQty, rowHeight, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(colRate, rowHeight, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, rowHeight, v.StringFixed(2), "", 1, "R", false, 0, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
