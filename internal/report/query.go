// Package report reads committed sales: the dashboard, exports, the period chart and
// the end-of-day summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DayLayout is the date format the sales screens send and receive.
const DayLayout = "02-01-2006"

// Range is an inclusive span of calendar days in local time.
type Range struct {
	Start time.Time
	End   time.Time
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseRange reads DD-MM-YYYY bounds; a missing bound defaults to today.
func ParseRange(start, end string, now time.Time) (Range, error) {
	today := startOfDay(now)
	r := Range{Start: today, End: today}

	if s := strings.TrimSpace(start); s != "" {
		d, err := time.ParseInLocation(DayLayout, s, now.Location())
		if err != nil {
			return Range{}, fmt.Errorf("start_date must be DD-MM-YYYY: %w", err)
		}
		r.Start = d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, err := time.ParseInLocation(DayLayout, s, now.Location())
		if err != nil {
			return Range{}, fmt.Errorf("end_date must be DD-MM-YYYY: %w", err)
		}
		r.End = d
	}
	if r.End.Before(r.Start) {
		return Range{}, fmt.Errorf("end_date is before start_date")
	}
	return r, nil
}

// until is the exclusive upper bound.
func (r Range) until() time.Time { return r.End.AddDate(0, 0, 1) }

func (r Range) billsIn(q *gorm.DB) *gorm.DB {
	return q.Where("sales_bills.bill_date >= ? AND sales_bills.bill_date < ?", r.Start, r.until())
}

// LineRow is a sales line joined with its bill and product names.
type LineRow struct {
	ItemID         uint
	ProductID      uint
	BillNumber     string
	BillDate       time.Time
	PaymentMode    string
	CustomerPhone  string
	ArticleNo      string
	Brand          string
	Category       string
	Section        string
	Size           string
	Quantity       int
	MRP            decimal.Decimal
	SellingPrice   decimal.Decimal
	DiscountAmount decimal.Decimal
	GSTAmount      decimal.Decimal
	LineTotal      decimal.Decimal
}

// Article falls back to brand/section/size when no article number was recorded.
func (l LineRow) Article() string {
	if l.ArticleNo != "" {
		return l.ArticleNo
	}
	return l.Brand + "/" + l.Section + "/" + l.Size
}

const lineColumns = `sales_items.id AS item_id, sales_items.product_id, sales_bills.bill_number,
	sales_bills.bill_date, sales_bills.payment_mode, COALESCE(customers.phone, '') AS customer_phone,
	products.article_no, brands.name AS brand, categories.name AS category, sections.name AS section,
	sizes.value AS size, sales_items.quantity, sales_items.mrp, sales_items.selling_price,
	sales_items.discount_amount, sales_items.gst_amount, sales_items.line_total`

// likeEscaper makes search text match literally under ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// lineQuery selects sales lines in r whose bill number or product names contain search.
func lineQuery(db *gorm.DB, r Range, search string) *gorm.DB {
	q := db.Table("sales_items").
		Joins("JOIN sales_bills ON sales_bills.id = sales_items.sales_bill_id").
		Joins("JOIN products ON products.id = sales_items.product_id").
		Joins("JOIN brands ON brands.id = products.brand_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("JOIN sections ON sections.id = products.section_id").
		Joins("JOIN sizes ON sizes.id = products.size_id").
		Joins("LEFT JOIN customers ON customers.id = sales_bills.customer_id")
	q = r.billsIn(q)

	if s := strings.TrimSpace(search); s != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		q = q.Where(`(LOWER(sales_bills.bill_number) LIKE ? ESCAPE '\' OR LOWER(brands.name) LIKE ? ESCAPE '\'
			OR LOWER(categories.name) LIKE ? ESCAPE '\' OR LOWER(sections.name) LIKE ? ESCAPE '\'
			OR LOWER(sizes.value) LIKE ? ESCAPE '\')`,
			like, like, like, like, like)
	}
	return q
}

func orderedLines(q *gorm.DB) *gorm.DB {
	return q.Select(lineColumns).Order("sales_bills.bill_date DESC, sales_items.id DESC")
}
