package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpensePaymentMode string

const (
	ExpensePaidCash ExpensePaymentMode = "CASH"
	ExpensePaidBank ExpensePaymentMode = "BANK"
	ExpensePaidUPI  ExpensePaymentMode = "UPI"
)

type ExpenseCategory struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Expense struct {
	ID          uint               `gorm:"primaryKey"`
	CategoryID  uint               `gorm:"index;not null"`
	Category    ExpenseCategory    `gorm:"constraint:OnDelete:RESTRICT"`
	Amount      decimal.Decimal    `gorm:"type:numeric(10,2);not null"`
	ExpenseDate time.Time          `gorm:"type:date;index;not null"`
	PaymentMode ExpensePaymentMode `gorm:"size:20;not null"`
	Notes       string             `gorm:"type:text"`
	CreatedByID uint               `gorm:"index;not null"`
	CreatedBy   User               `gorm:"constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
