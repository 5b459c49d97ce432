package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"footwear-backend/internal/models"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Summarize computes the totals for one calendar day and stores them, replacing any
// earlier summary of the same day.
func Summarize(ctx context.Context, db *gorm.DB, day time.Time) (*models.DailySummary, error) {
	db = db.WithContext(ctx)
	day = startOfDay(day)
	r := Range{Start: day, End: day}

	var sales struct {
		Bills    int64
		Qty      int64
		Sales    decimal.Decimal
		GST      decimal.Decimal
		Discount decimal.Decimal
	}
	err := r.billsIn(db.Model(&models.SalesBill{})).
		Select(`COUNT(*) AS bills, COALESCE(SUM(total_qty), 0) AS qty, COALESCE(SUM(total_amount), 0) AS sales,
			COALESCE(SUM(total_gst), 0) AS gst, COALESCE(SUM(total_discount), 0) AS discount`).
		Scan(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("sum sales: %w", err)
	}

	var expenses struct{ Total decimal.Decimal }
	err = db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("expense_date >= ? AND expense_date < ?", day, day.AddDate(0, 0, 1)).
		Scan(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}

	var payments []struct {
		PaymentMode string
		Amount      decimal.Decimal
	}
	err = r.billsIn(db.Model(&models.SalesBill{})).
		Select("payment_mode, COALESCE(SUM(total_amount), 0) AS amount").
		Group("payment_mode").
		Scan(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	byMode := make(map[string]string, len(payments))
	for _, p := range payments {
		byMode[p.PaymentMode] = p.Amount.StringFixed(2)
	}
	paymentJSON, err := json.Marshal(byMode)
	if err != nil {
		return nil, err
	}

	s := models.DailySummary{
		Day:         day,
		Bills:       int(sales.Bills),
		Qty:         int(sales.Qty),
		Sales:       sales.Sales.Round(2),
		GST:         sales.GST.Round(2),
		Discount:    sales.Discount.Round(2),
		Expenses:    expenses.Total.Round(2),
		Net:         sales.Sales.Sub(expenses.Total).Round(2),
		PaymentData: string(paymentJSON),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"bills", "qty", "sales", "gst", "discount", "expenses", "net", "payment_data", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	return &s, nil
}

// StartScheduler runs Summarize for the current day every day at "HH:MM" local time.
// An empty or "off" at disables the job and returns nil.
func StartScheduler(db *gorm.DB, at string) (*gocron.Scheduler, error) {
	if at == "" || strings.EqualFold(at, "off") {
		return nil, nil
	}

	s := gocron.NewScheduler(time.Local)
	_, err := s.Every(1).Day().At(at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		sum, err := Summarize(ctx, db, time.Now())
		if err != nil {
			log.Errorw("daily summary failed", "err", err)
			return
		}
		log.Infow("daily summary",
			"day", sum.Day.Format(DayLayout),
			"bills", sum.Bills,
			"qty", sum.Qty,
			"sales", sum.Sales.StringFixed(2),
			"expenses", sum.Expenses.StringFixed(2),
			"net", sum.Net.StringFixed(2),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule daily summary at %q: %w", at, err)
	}

	s.StartAsync()
	return s, nil
}
