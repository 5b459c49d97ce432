// Package purchase records supplier bills. A purchase creates missing products, refreshes
// the MRP and GST of existing ones and adds the bought quantity to stock, all in one
// transaction.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"footwear-backend/internal/metrics"
	"footwear-backend/internal/models"
	"footwear-backend/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalid          = errors.New("invalid purchase")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrDuplicateBill    = errors.New("bill number already recorded for this supplier")
)

type ItemInput struct {
	BrandID         uint
	CategoryID      uint
	SectionID       uint
	SizeID          uint
	ArticleNo       string
	Quantity        int
	MRP             decimal.Decimal
	BillingPrice    decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	GSTPercent      decimal.Decimal
	MSP             decimal.Decimal
}

type Request struct {
	ActorID     uint
	SupplierID  uint
	BillNumber  string
	BillDate    time.Time
	PaymentMode models.PaymentMode
	Items       []ItemInput
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type pricedLine struct {
	in        ItemInput
	mrp       decimal.Decimal
	price     decimal.Decimal
	gstAmount decimal.Decimal
	lineTotal decimal.Decimal
}

func (s *Service) validate(req Request) (models.PaymentMode, []pricedLine, error) {
	if req.SupplierID == 0 {
		return "", nil, invalidf("supplier is required")
	}
	if strings.TrimSpace(req.BillNumber) == "" {
		return "", nil, invalidf("bill number is required")
	}
	if req.BillDate.IsZero() {
		return "", nil, invalidf("bill date is required")
	}
	mode := req.PaymentMode
	if mode == "" {
		mode = models.PaymentCash
	}
	if !mode.ValidForPurchase() {
		return "", nil, invalidf("payment mode must be CASH or CREDIT")
	}
	if len(req.Items) == 0 {
		return "", nil, invalidf("no items in purchase")
	}

	lines := make([]pricedLine, 0, len(req.Items))
	for i, it := range req.Items {
		n := i + 1
		if it.BrandID == 0 || it.CategoryID == 0 || it.SectionID == 0 || it.SizeID == 0 {
			return "", nil, invalidf("item #%d needs brand, category, section and size", n)
		}
		if it.Quantity <= 0 {
			return "", nil, invalidf("quantity must be positive for item #%d", n)
		}
		if it.MRP.IsNegative() || it.BillingPrice.IsNegative() || it.GSTPercent.IsNegative() {
			return "", nil, invalidf("amounts must not be negative for item #%d", n)
		}

		price := money.Normalize(it.BillingPrice)
		gst := money.LineGST(price, it.Quantity, it.GSTPercent)
		lines = append(lines, pricedLine{
			in:        it,
			mrp:       money.Normalize(it.MRP),
			price:     price,
			gstAmount: gst,
			lineTotal: money.LineTotal(price, it.Quantity, gst),
		})
	}
	return mode, lines, nil
}

// Record saves the bill and its stock effects atomically.
func (s *Service) Record(ctx context.Context, req Request) (*models.PurchaseBill, error) {
	mode, lines, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	billNumber := strings.TrimSpace(req.BillNumber)

	var bill models.PurchaseBill
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, req.SupplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierNotFound
			}
			return err
		}

		dup, err := billExists(tx, req.SupplierID, billNumber)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateBill
		}

		totalQty := 0
		totalAmount, totalGST, totalDiscount := decimal.Zero, decimal.Zero, decimal.Zero
		for _, l := range lines {
			totalQty += l.in.Quantity
			totalAmount = totalAmount.Add(l.lineTotal)
			totalGST = totalGST.Add(l.gstAmount)
			totalDiscount = totalDiscount.Add(money.Round2(l.in.DiscountAmount))
		}
		totalAmount = money.Round2(totalAmount)

		cash, credit := totalAmount, decimal.Zero
		if mode == models.PaymentCredit {
			cash, credit = decimal.Zero, totalAmount
		}

		var createdBy *uint
		if req.ActorID != 0 {
			id := req.ActorID
			createdBy = &id
		}

		bill = models.PurchaseBill{
			SupplierID:    req.SupplierID,
			BillNumber:    billNumber,
			BillDate:      req.BillDate,
			EntryDate:     s.now(),
			TotalQty:      totalQty,
			TotalAmount:   totalAmount,
			TotalDiscount: money.Round2(totalDiscount),
			TotalGST:      money.Round2(totalGST),
			PaymentMode:   mode,
			CashPaid:      cash,
			CreditAmount:  credit,
			CreatedByID:   createdBy,
		}
		if err := tx.Omit(clause.Associations).Create(&bill).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateBill
			}
			return err
		}

		for i, l := range lines {
			product, err := upsertProduct(tx, l)
			if err != nil {
				return fmt.Errorf("item #%d: %w", i+1, err)
			}

			item := models.PurchaseItem{
				PurchaseBillID:  bill.ID,
				ProductID:       product.ID,
				Quantity:        l.in.Quantity,
				MRP:             l.mrp,
				BillingPrice:    l.price,
				DiscountPercent: money.Round2(l.in.DiscountPercent),
				DiscountAmount:  money.Round2(l.in.DiscountAmount),
				GSTPercent:      money.Round2(l.in.GSTPercent),
				GSTAmount:       l.gstAmount,
				LineTotal:       l.lineTotal,
				MSP:             money.Round2(l.in.MSP),
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return err
			}

			if err := addStock(tx, product.ID, l.in.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StockUnitsMoved.WithLabelValues("in").Add(float64(bill.TotalQty))
	return &bill, nil
}

// upsertProduct finds the pricing record for the hierarchy tuple (oldest row wins) or
// creates it, then applies the purchase's MRP and GST. Last purchase wins.
func upsertProduct(tx *gorm.DB, l pricedLine) (*models.Product, error) {
	in := l.in
	if err := checkHierarchy(tx, in); err != nil {
		return nil, err
	}

	var found []models.Product
	err := tx.Where("brand_id = ? AND category_id = ? AND section_id = ? AND size_id = ?",
		in.BrandID, in.CategoryID, in.SectionID, in.SizeID).
		Order("id asc").Limit(1).Find(&found).Error
	if err != nil {
		return nil, err
	}

	gst := money.Round2(in.GSTPercent)
	if len(found) == 0 {
		p := models.Product{
			BrandID:                in.BrandID,
			CategoryID:             in.CategoryID,
			SectionID:              in.SectionID,
			SizeID:                 in.SizeID,
			ArticleNo:              strings.TrimSpace(in.ArticleNo),
			MRP:                    l.mrp,
			DefaultDiscountPercent: decimal.NewFromInt(10),
			GSTPercent:             gst,
		}
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}

	p := found[0]
	updates := map[string]any{"mrp": l.mrp, "gst_percent": gst}
	if a := strings.TrimSpace(in.ArticleNo); a != "" {
		updates["article_no"] = a
	}
	if err := tx.Model(&p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// checkHierarchy rejects a size that does not sit under the given section, category and brand.
func checkHierarchy(tx *gorm.DB, in ItemInput) error {
	var n int64
	err := tx.Table("sizes").
		Joins("JOIN sections ON sections.id = sizes.section_id").
		Joins("JOIN categories ON categories.id = sections.category_id").
		Where("sizes.id = ? AND sections.id = ? AND categories.id = ? AND categories.brand_id = ?",
			in.SizeID, in.SectionID, in.CategoryID, in.BrandID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return invalidf("size %d is not under section %d / category %d / brand %d",
			in.SizeID, in.SectionID, in.CategoryID, in.BrandID)
	}
	return nil
}

// addStock creates the stock row on first purchase, otherwise increments it in place.
func addStock(tx *gorm.DB, productID uint, qty int) error {
	st := models.Stock{ProductID: productID, Quantity: qty}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("stocks.quantity + excluded.quantity"),
			"updated_at": time.Now(),
		}),
	}).Create(&st).Error
}

func billExists(db *gorm.DB, supplierID uint, billNumber string) (bool, error) {
	var n int64
	err := db.Model(&models.PurchaseBill{}).
		Where("supplier_id = ? AND LOWER(bill_number) = LOWER(?)", supplierID, strings.TrimSpace(billNumber)).
		Count(&n).Error
	return n > 0, err
}

// BillExists is the duplicate check the purchase screen runs before submitting.
func (s *Service) BillExists(ctx context.Context, supplierID uint, billNumber string) (bool, error) {
	if supplierID == 0 || strings.TrimSpace(billNumber) == "" {
		return false, nil
	}
	return billExists(s.db.WithContext(ctx), supplierID, billNumber)
}
