package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary is the end-of-day snapshot written by the scheduled summary job.
// Re-running the job for a day overwrites that day's row.
type DailySummary struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Day      time.Time       `gorm:"type:date;not null;uniqueIndex" json:"-"`
	Bills    int             `gorm:"not null;default:0" json:"bills"`
	Qty      int             `gorm:"not null;default:0" json:"qty"`
	Sales    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"sales"`
	GST      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"gst"`
	Discount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	Expenses decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"expenses"`
	Net      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"net"`

	// JSON: sales amount per payment mode
	PaymentData string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
