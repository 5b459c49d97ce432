package models

import "time"

// Stock: aggregated on-hand quantity, one row per product.
// Only purchases and sales change Quantity.
type Stock struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;uniqueIndex"`
	Quantity  int  `gorm:"not null;default:0;check:chk_stocks_quantity,quantity >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
