package report

import (
	"context"
	"fmt"
	"time"

	"footwear-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ChartPoint struct {
	Label  string          `json:"label"` // day, week start or month start
	Cash   decimal.Decimal `json:"cash"`
	Credit decimal.Decimal `json:"credit"`
	UPI    decimal.Decimal `json:"upi"`
	Card   decimal.Decimal `json:"card"`
	Total  decimal.Decimal `json:"total"`
}

type Chart struct {
	Period      string       `json:"period"` // daily | weekly | monthly
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartPoint   `json:"grand_totals"`
}

func defaultCount(period string) int {
	switch period {
	case "weekly":
		return 8
	case "monthly":
		return 12
	default:
		return 7
	}
}

// bucketStart maps t to its bucket: the day, the Monday of its week or the 1st of its month.
func bucketStart(period string, t time.Time) time.Time {
	day := startOfDay(t)
	switch period {
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

func nextBucket(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func newPoint(label string) ChartPoint {
	z := decimal.Zero
	return ChartPoint{Label: label, Cash: z, Credit: z, UPI: z, Card: z, Total: z}
}

func (p *ChartPoint) add(mode models.PaymentMode, amount decimal.Decimal) {
	switch mode {
	case models.PaymentCash:
		p.Cash = p.Cash.Add(amount)
	case models.PaymentCredit:
		p.Credit = p.Credit.Add(amount)
	case models.PaymentUPI:
		p.UPI = p.UPI.Add(amount)
	case models.PaymentCard:
		p.Card = p.Card.Add(amount)
	}
	p.Total = p.Total.Add(amount)
}

// BuildChart buckets sales of the last count periods (the current one included) by
// payment mode. Buckets are computed here rather than in SQL so the query is the same
// on every database.
func BuildChart(ctx context.Context, db *gorm.DB, period string, count int, now time.Time) (*Chart, error) {
	switch period {
	case "daily", "weekly", "monthly":
	case "":
		period = "daily"
	default:
		return nil, fmt.Errorf("period must be daily, weekly or monthly")
	}
	if count <= 0 {
		count = defaultCount(period)
	}

	last := bucketStart(period, now)
	first := last
	for i := 1; i < count; i++ {
		switch period {
		case "weekly":
			first = first.AddDate(0, 0, -7)
		case "monthly":
			first = first.AddDate(0, -1, 0)
		default:
			first = first.AddDate(0, 0, -1)
		}
	}
	until := nextBucket(period, last)

	var bills []struct {
		BillDate    time.Time
		PaymentMode models.PaymentMode
		TotalAmount decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&models.SalesBill{}).
		Select("bill_date, payment_mode, total_amount").
		Where("bill_date >= ? AND bill_date < ?", first, until).
		Scan(&bills).Error
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, count)
	index := make(map[time.Time]int, count)
	for b := first; b.Before(until); b = nextBucket(period, b) {
		index[b] = len(points)
		points = append(points, newPoint(b.Format("2006-01-02")))
	}

	grand := newPoint("total")
	for _, b := range bills {
		i, ok := index[bucketStart(period, b.BillDate.In(now.Location()))]
		if !ok {
			continue
		}
		points[i].add(b.PaymentMode, b.TotalAmount)
		grand.add(b.PaymentMode, b.TotalAmount)
	}

	return &Chart{
		Period:      period,
		From:        first.Format("2006-01-02"),
		To:          until.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}, nil
}
