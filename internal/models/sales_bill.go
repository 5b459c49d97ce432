package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentCash   PaymentMode = "CASH"
	PaymentCredit PaymentMode = "CREDIT"
	PaymentUPI    PaymentMode = "UPI"
	PaymentCard   PaymentMode = "CARD"
)

func (m PaymentMode) ValidForSale() bool {
	switch m {
	case PaymentCash, PaymentCredit, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

func (m PaymentMode) ValidForPurchase() bool {
	return m == PaymentCash || m == PaymentCredit
}

type SalesBill struct {
	ID            uint            `gorm:"primaryKey"`
	BillNumber    string          `gorm:"size:50;not null;uniqueIndex"`
	BillDate      time.Time       `gorm:"not null;index"`
	CustomerID    *uint           `gorm:"index"`
	Customer      *Customer       `gorm:"constraint:OnDelete:SET NULL"`
	PaymentMode   PaymentMode     `gorm:"size:10;not null"`
	TotalQty      int             `gorm:"not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalDiscount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalGST      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CGST          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SGST          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedByID   uint            `gorm:"not null;index"`
	CreatedBy     User            `gorm:"constraint:OnDelete:RESTRICT"`
	Items         []SalesItem     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SalesItem keeps a snapshot of pricing at sale time; it is never re-derived from Product.
type SalesItem struct {
	ID              uint            `gorm:"primaryKey"`
	SalesBillID     uint            `gorm:"not null;index"`
	ProductID       uint            `gorm:"not null;index"`
	Product         Product         `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity        int             `gorm:"not null"`
	MRP             decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	SellingPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	GSTPercent      decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	GSTAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
