package report

import (
	"context"
	"time"

	"footwear-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 200
)

type KPIs struct {
	TodaySales decimal.Decimal `json:"today_sales"`
	Last7Sales decimal.Decimal `json:"last_7_sales"`
	TotalSales decimal.Decimal `json:"total_sales"`
	TotalQty   int             `json:"total_qty"`
}

type PaymentTotal struct {
	Mode   string          `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
}

type BestSeller struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Amount    decimal.Decimal `json:"amount"`
}

type TableRow struct {
	BillNo   string          `json:"bill_no"`
	Date     string          `json:"date"`
	Article  string          `json:"article"`
	Category string          `json:"category"`
	Size     string          `json:"size"`
	Qty      int             `json:"qty"`
	Amount   decimal.Decimal `json:"amount"`
	Payment  string          `json:"payment"`
}

type Table struct {
	Rows       []TableRow `json:"rows"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalRows  int64      `json:"total_rows"`
	TotalPages int        `json:"total_pages"`
}

type Meta struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type Dashboard struct {
	KPIs        KPIs           `json:"kpis"`
	Payments    []PaymentTotal `json:"payments"`
	BestSelling *BestSeller    `json:"best_selling"`
	Table       Table          `json:"table"`
	Meta        Meta           `json:"meta"`
}

type DashboardQuery struct {
	Range    Range
	Search   string
	Page     int
	PageSize int
	Now      time.Time
}

func sumBills(db *gorm.DB, r Range) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	q := db.Model(&models.SalesBill{}).Select("COALESCE(SUM(total_amount), 0) AS total")
	err := r.billsIn(q).Scan(&row).Error
	return row.Total.Round(2), err
}

func BuildDashboard(ctx context.Context, db *gorm.DB, dq DashboardQuery) (*Dashboard, error) {
	db = db.WithContext(ctx)
	if dq.Page < 1 {
		dq.Page = 1
	}
	if dq.PageSize < 1 || dq.PageSize > maxPageSize {
		dq.PageSize = defaultPageSize
	}

	today := startOfDay(dq.Now)
	out := &Dashboard{
		Payments: []PaymentTotal{},
		Meta:     Meta{StartDate: dq.Range.Start.Format(DayLayout), EndDate: dq.Range.End.Format(DayLayout)},
	}

	var err error
	if out.KPIs.TodaySales, err = sumBills(db, Range{Start: today, End: today}); err != nil {
		return nil, err
	}
	if out.KPIs.Last7Sales, err = sumBills(db, Range{Start: today.AddDate(0, 0, -6), End: today}); err != nil {
		return nil, err
	}
	if out.KPIs.TotalSales, err = sumBills(db, dq.Range); err != nil {
		return nil, err
	}

	var qty int64
	err = dq.Range.billsIn(db.Table("sales_items").
		Joins("JOIN sales_bills ON sales_bills.id = sales_items.sales_bill_id")).
		Select("COALESCE(SUM(sales_items.quantity), 0)").Scan(&qty).Error
	if err != nil {
		return nil, err
	}
	out.KPIs.TotalQty = int(qty)

	var payments []struct {
		PaymentMode string
		Amount      decimal.Decimal
	}
	err = dq.Range.billsIn(db.Model(&models.SalesBill{})).
		Select("payment_mode, COALESCE(SUM(total_amount), 0) AS amount").
		Group("payment_mode").Order("payment_mode").
		Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, PaymentTotal{Mode: p.PaymentMode, Amount: p.Amount.Round(2)})
	}

	if out.BestSelling, err = bestSeller(db, dq.Range); err != nil {
		return nil, err
	}

	if out.Table, err = table(db, dq); err != nil {
		return nil, err
	}
	return out, nil
}

// bestSeller is the product with the most units sold in r; ties go to the lower id.
func bestSeller(db *gorm.DB, r Range) (*BestSeller, error) {
	var top []struct {
		ProductID uint
		Qty       int
		Amount    decimal.Decimal
	}
	err := r.billsIn(db.Table("sales_items").
		Joins("JOIN sales_bills ON sales_bills.id = sales_items.sales_bill_id")).
		Select("sales_items.product_id, SUM(sales_items.quantity) AS qty, SUM(sales_items.line_total) AS amount").
		Group("sales_items.product_id").
		Order("qty DESC, sales_items.product_id ASC").
		Limit(1).
		Scan(&top).Error
	if err != nil || len(top) == 0 {
		return nil, err
	}

	var p models.Product
	err = db.Preload("Brand").Preload("Category").Preload("Section").Preload("Size").First(&p, top[0].ProductID).Error
	if err != nil {
		return nil, err
	}
	return &BestSeller{
		ProductID: p.ID,
		Name:      p.Brand.Name + " / " + p.Category.Name + " / " + p.Section.Name + " / " + p.Size.Value,
		Qty:       top[0].Qty,
		Amount:    top[0].Amount.Round(2),
	}, nil
}

func table(db *gorm.DB, dq DashboardQuery) (Table, error) {
	t := Table{Rows: []TableRow{}, Page: dq.Page, PageSize: dq.PageSize}

	if err := lineQuery(db, dq.Range, dq.Search).Count(&t.TotalRows).Error; err != nil {
		return t, err
	}
	t.TotalPages = int((t.TotalRows + int64(dq.PageSize) - 1) / int64(dq.PageSize))

	var lines []LineRow
	err := orderedLines(lineQuery(db, dq.Range, dq.Search)).
		Offset((dq.Page - 1) * dq.PageSize).Limit(dq.PageSize).
		Scan(&lines).Error
	if err != nil {
		return t, err
	}

	for _, l := range lines {
		t.Rows = append(t.Rows, TableRow{
			BillNo:   l.BillNumber,
			Date:     l.BillDate.Format(DayLayout),
			Article:  l.Article(),
			Category: l.Category,
			Size:     l.Size,
			Qty:      l.Quantity,
			Amount:   l.LineTotal,
			Payment:  l.PaymentMode,
		})
	}
	return t, nil
}
