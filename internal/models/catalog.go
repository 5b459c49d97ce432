package models

import "time"

// Brand → Category → Section → Size. Each level is unique by name under its parent.

type Brand struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BrandID   uint   `gorm:"not null;uniqueIndex:idx_categories_brand_name" json:"brand_id"`
	Brand     Brand  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_categories_brand_name" json:"name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Section struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	CategoryID uint     `gorm:"not null;uniqueIndex:idx_sections_category_name" json:"category_id"`
	Category   Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name       string   `gorm:"size:100;not null;uniqueIndex:idx_sections_category_name" json:"name"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Size struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	SectionID uint    `gorm:"not null;uniqueIndex:idx_sizes_section_value" json:"section_id"`
	Section   Section `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Value     string  `gorm:"size:20;not null;uniqueIndex:idx_sizes_section_value" json:"value"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
