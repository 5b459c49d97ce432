package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product: one article at one size. (brand, category, section, size) is indexed but
// not unique; lookups use the oldest matching row as the pricing record.
type Product struct {
	ID                     uint            `gorm:"primaryKey"`
	BrandID                uint            `gorm:"not null;index:idx_products_hierarchy,priority:1"`
	Brand                  Brand           `gorm:"constraint:OnDelete:RESTRICT"`
	CategoryID             uint            `gorm:"not null;index:idx_products_hierarchy,priority:2"`
	Category               Category        `gorm:"constraint:OnDelete:RESTRICT"`
	SectionID              uint            `gorm:"not null;index:idx_products_hierarchy,priority:3"`
	Section                Section         `gorm:"constraint:OnDelete:RESTRICT"`
	SizeID                 uint            `gorm:"not null;index:idx_products_hierarchy,priority:4"`
	Size                   Size            `gorm:"constraint:OnDelete:RESTRICT"`
	ArticleNo              string          `gorm:"size:100"`
	MRP                    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DefaultDiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:10"`
	GSTPercent             decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Stock                  *Stock          `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DisplayName needs Brand, Section and Size preloaded.
func (p Product) DisplayName() string {
	return fmt.Sprintf("%s %s %s", p.Brand.Name, p.Section.Name, p.Size.Value)
}

// Article falls back to brand/section/size when no article number was recorded.
func (p Product) Article() string {
	if p.ArticleNo != "" {
		return p.ArticleNo
	}
	return fmt.Sprintf("%s/%s/%s", p.Brand.Name, p.Section.Name, p.Size.Value)
}
