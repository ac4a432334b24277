package models

// Budget represents a monthly spending limit for a category. At most one
// budget may exist per (category, month, year) within each scope.
type Budget struct {
	Base
	UserID     uint  `gorm:"not null;index" json:"user_id"`
	CategoryID uint  `gorm:"not null;index" json:"category_id"`
	Amount     int64 `gorm:"type:bigint;not null" json:"-"`
	Month      int   `gorm:"not null" json:"month"`
	Year       int   `gorm:"not null" json:"year"`
	IsFamily   bool  `gorm:"not null;default:false;index" json:"is_family"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
