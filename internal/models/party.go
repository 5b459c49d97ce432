package models

import "time"

type Supplier struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	Mobile    string `gorm:"size:20"`
	Address   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer: a non-empty phone is the customer key (partial unique index).
type Customer struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"size:200;not null"`
	Phone     string     `gorm:"size:20;uniqueIndex:idx_customers_phone,where:phone <> ''"`
	Address   string     `gorm:"type:text"`
	DueDate   *time.Time `gorm:"type:date"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
