package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseBill struct {
	ID            uint            `gorm:"primaryKey"`
	SupplierID    uint            `gorm:"not null;uniqueIndex:idx_purchase_bills_supplier_number"`
	Supplier      Supplier        `gorm:"constraint:OnDelete:RESTRICT"`
	BillNumber    string          `gorm:"size:50;not null;uniqueIndex:idx_purchase_bills_supplier_number"`
	BillDate      time.Time       `gorm:"type:date;not null;index"`
	EntryDate     time.Time       `gorm:"not null"`
	TotalQty      int             `gorm:"not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalDiscount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalGST      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentMode   PaymentMode     `gorm:"size:10;not null"`
	CashPaid      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreditAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedByID   *uint           `gorm:"index"`
	CreatedBy     *User           `gorm:"constraint:OnDelete:SET NULL"`
	Items         []PurchaseItem  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PurchaseItem struct {
	ID              uint            `gorm:"primaryKey"`
	PurchaseBillID  uint            `gorm:"not null;index"`
	ProductID       uint            `gorm:"not null;index"`
	Product         Product         `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity        int             `gorm:"not null"`
	MRP             decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	BillingPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	GSTPercent      decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	GSTAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MSP             decimal.Decimal `gorm:"type:numeric(10,2);not null"` // minimum selling price
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
