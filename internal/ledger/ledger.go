// Package ledger is the read side of stock: on-hand quantity per product with its
// valuation at MRP and the supplier it was last bought from.
package ledger

import (
	"context"

	"footwear-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Filter struct {
	BrandID    uint
	CategoryID uint
	SectionID  uint
	SizeID     uint
	SupplierID uint
}

type Row struct {
	ProductID  uint            `json:"product_id"`
	Brand      string          `json:"brand"`
	Category   string          `json:"category"`
	Section    string          `json:"section"`
	Size       string          `json:"size"`
	ArticleNo  string          `json:"article_no"`
	Quantity   int             `json:"quantity"`
	MRP        decimal.Decimal `json:"mrp"`
	Valuation  decimal.Decimal `json:"valuation"`
	Supplier   string          `json:"supplier"`
	BillNumber string          `json:"bill_number"`
}

type Report struct {
	Rows           []Row           `json:"rows"`
	TotalQty       int             `json:"total_qty"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

// latestPurchase is the most recent purchase line of a product.
type latestPurchase struct {
	ProductID    uint
	SupplierName string
	BillNumber   string
}

func Build(ctx context.Context, db *gorm.DB, f Filter) (*Report, error) {
	db = db.WithContext(ctx)

	q := db.Model(&models.Stock{}).
		Select("stocks.*").
		Joins("JOIN products ON products.id = stocks.product_id")
	if f.BrandID > 0 {
		q = q.Where("products.brand_id = ?", f.BrandID)
	}
	if f.CategoryID > 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	if f.SectionID > 0 {
		q = q.Where("products.section_id = ?", f.SectionID)
	}
	if f.SizeID > 0 {
		q = q.Where("products.size_id = ?", f.SizeID)
	}
	if f.SupplierID > 0 {
		bought := db.Model(&models.PurchaseItem{}).
			Select("purchase_items.product_id").
			Joins("JOIN purchase_bills ON purchase_bills.id = purchase_items.purchase_bill_id").
			Where("purchase_bills.supplier_id = ?", f.SupplierID)
		q = q.Where("stocks.product_id IN (?)", bought)
	}

	var stocks []models.Stock
	if err := q.Order("stocks.product_id asc").Find(&stocks).Error; err != nil {
		return nil, err
	}

	report := &Report{Rows: make([]Row, 0, len(stocks)), TotalValuation: decimal.Zero}
	if len(stocks) == 0 {
		return report, nil
	}

	ids := make([]uint, 0, len(stocks))
	for _, s := range stocks {
		ids = append(ids, s.ProductID)
	}

	var products []models.Product
	err := db.Preload("Brand").Preload("Category").Preload("Section").Preload("Size").
		Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	latest, err := latestPurchases(db, ids)
	if err != nil {
		return nil, err
	}

	for _, s := range stocks {
		p := byID[s.ProductID]
		valuation := p.MRP.Mul(decimal.NewFromInt(int64(s.Quantity))).Round(2)
		lp := latest[s.ProductID]
		report.Rows = append(report.Rows, Row{
			ProductID:  p.ID,
			Brand:      p.Brand.Name,
			Category:   p.Category.Name,
			Section:    p.Section.Name,
			Size:       p.Size.Value,
			ArticleNo:  p.ArticleNo,
			Quantity:   s.Quantity,
			MRP:        p.MRP,
			Valuation:  valuation,
			Supplier:   lp.SupplierName,
			BillNumber: lp.BillNumber,
		})
		report.TotalQty += s.Quantity
		report.TotalValuation = report.TotalValuation.Add(valuation)
	}
	return report, nil
}

// latestPurchases orders newest first, so the first row seen per product wins.
func latestPurchases(db *gorm.DB, productIDs []uint) (map[uint]latestPurchase, error) {
	var rows []latestPurchase
	err := db.Table("purchase_items").
		Select("purchase_items.product_id, suppliers.name AS supplier_name, purchase_bills.bill_number").
		Joins("JOIN purchase_bills ON purchase_bills.id = purchase_items.purchase_bill_id").
		Joins("JOIN suppliers ON suppliers.id = purchase_bills.supplier_id").
		Where("purchase_items.product_id IN ?", productIDs).
		Order("purchase_bills.bill_date DESC, purchase_bills.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]latestPurchase, len(productIDs))
	for _, r := range rows {
		if _, seen := out[r.ProductID]; !seen {
			out[r.ProductID] = r
		}
	}
	return out, nil
}
