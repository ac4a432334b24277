package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash    AccountType = "cash"
	AccountTypeCard    AccountType = "card"
	AccountTypeDeposit AccountType = "deposit"
)

// Account represents a financial account in the system. Balance is stored
// in minor units (cents) and only ever changed through the ledger, inside
// the same database transaction as the row that justifies the change.
type Account struct {
	Base
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	Name        string      `gorm:"not null" json:"name"`
	Type        AccountType `gorm:"not null" json:"type"`
	Description string      `json:"description"`
	Balance     int64       `gorm:"type:bigint;not null;default:0" json:"-"`
	Currency    string      `gorm:"not null;default:'USD'" json:"currency"`
	IsFamily    bool        `gorm:"not null;default:false;index" json:"is_family"`

	// Relationships
	User         User          `gorm:"foreignKey:UserID" json:"-"`
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
