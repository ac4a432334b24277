package models

import "time"

// Transfer represents a movement of money between two accounts. It debits
// the source account and credits the destination account by the same
// amount, so the combined balance of the pair is unchanged.
type Transfer struct {
	Base
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	FromAccountID uint      `gorm:"not null;index" json:"from_account_id"`
	ToAccountID   uint      `gorm:"not null;index" json:"to_account_id"`
	Amount        int64     `gorm:"type:bigint;not null" json:"-"`
	Description   string    `json:"description"`
	Date          time.Time `gorm:"not null" json:"date"`
	IsFamily      bool      `gorm:"not null;default:false;index" json:"is_family"`

	// Relationships
	FromAccount Account `gorm:"foreignKey:FromAccountID" json:"from_account,omitempty"`
	ToAccount   Account `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
}
