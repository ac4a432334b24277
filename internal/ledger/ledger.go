// Package ledger implements the balance bookkeeping shared by the
// transaction and transfer services. Every balance change goes through
// here, inside the same database transaction as the row that justifies
// it, so an account balance always equals the net effect of its history.
package ledger

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hearth/internal/errors"
	"hearth/internal/models"
)

// Fetch loads an account by ID inside tx, taking a row-level lock on
// dialects that support SELECT ... FOR UPDATE. SQLite serializes writers
// at the connection level, so the lock clause is skipped there.
func Fetch(tx *gorm.DB, id uint) (*models.Account, error) {
	var account models.Account
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&account, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAccountNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &account, nil
}

// FetchPair loads two distinct accounts, locking them in ascending ID
// order so concurrent transfers over the same pair cannot deadlock.
func FetchPair(tx *gorm.DB, a, b uint) (*models.Account, *models.Account, error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	lo, err := Fetch(tx, first)
	if err != nil {
		return nil, nil, err
	}
	hi, err := Fetch(tx, second)
	if err != nil {
		return nil, nil, err
	}
	if a == first {
		return lo, hi, nil
	}
	return hi, lo, nil
}

// Delta returns the signed balance effect of a posting: positive for
// income, negative for expense.
func Delta(t models.TransactionType, amount int64) int64 {
	if t == models.TransactionTypeExpense {
		return -amount
	}
	return amount
}

// Apply adjusts the in-memory balance by delta. A debit that would take
// the balance below zero is rejected with ErrInsufficientBalance.
func Apply(account *models.Account, delta int64) error {
	next := account.Balance + delta
	if delta < 0 && next < 0 {
		return errors.ErrInsufficientBalance
	}
	account.Balance = next
	return nil
}

// Revert undoes a previously applied delta without a floor check.
// Reverting an income posting may legitimately drive the balance
// negative when the money has since been spent.
func Revert(account *models.Account, delta int64) {
	account.Balance -= delta
}

// RevertChecked undoes a previously applied delta, rejecting the revert
// with ErrRevertUnderflow when it would take the balance below zero.
// Used for the credited side of a transfer.
func RevertChecked(account *models.Account, delta int64) error {
	next := account.Balance - delta
	if next < 0 {
		return errors.ErrRevertUnderflow
	}
	account.Balance = next
	return nil
}

// Save persists the balances of the given accounts. Callers pass each
// distinct account exactly once, after all in-memory adjustments.
func Save(tx *gorm.DB, accounts ...*models.Account) error {
	for _, account := range accounts {
		if err := tx.Model(account).Update("balance", account.Balance).Error; err != nil {
			return errors.Wrap(errors.ErrInternalServer, err)
		}
	}
	return nil
}
