package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/ledger"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// transactionService posts income and expense entries against accounts.
// Every posting adjusts the account balance inside the same database
// transaction that writes the row, so balances and history never drift.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction posts a new income or expense entry. The account,
// and the category when one is given, must be accessible in the
// requested scope, the category type must match the transaction type,
// and an expense may not overdraw the account.
func (s *transactionService) CreateTransaction(userID uint, family bool, accountID, categoryID uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryRef(categoryID),
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
		IsFamily:    family,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := ledger.Fetch(tx, accountID)
		if err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, account.UserID, account.IsFamily, family); err != nil {
			return err
		}

		if err := s.checkCategory(tx, userID, categoryID, transactionType, family); err != nil {
			return err
		}

		if err := ledger.Apply(account, ledger.Delta(transactionType, amount)); err != nil {
			return err
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return ledger.Save(tx, account)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns the transactions visible in the requested
// scope, newest first, with optional filters.
func (s *transactionService) ListTransactions(userID uint, family bool, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query, err := s.scopedQuery(userID, family)
	if err != nil {
		return nil, err
	}
	query = applyTransactionFilter(query, filter)

	var total int64
	if err := query.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	err = query.
		Preload("Account").
		Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("transactions.created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(transactions, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetTransaction returns a single transaction after scope authorization.
func (s *transactionService) GetTransaction(userID, transactionID uint, family bool) (*models.Transaction, error) {
	return s.loadAuthorized(s.db, userID, transactionID, family, true)
}

// UpdateTransaction rewrites a posting. The old balance effect is
// reverted first, without a floor check, then the new effect is applied
// with the usual overdraw guard. When the posting moves between
// accounts both balances change; when it stays put the new effect sees
// the reverted balance.
func (s *transactionService) UpdateTransaction(userID, transactionID uint, family bool, accountID, categoryID uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	var updated *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := s.loadAuthorized(tx, userID, transactionID, family, false)
		if err != nil {
			return err
		}

		var oldAccount, newAccount *models.Account
		if transaction.AccountID == accountID {
			oldAccount, err = ledger.Fetch(tx, accountID)
			if err != nil {
				return err
			}
			newAccount = oldAccount
		} else {
			oldAccount, newAccount, err = ledger.FetchPair(tx, transaction.AccountID, accountID)
			if err != nil {
				return err
			}
		}
		if err := checkScopeAccess(tx, userID, oldAccount.UserID, oldAccount.IsFamily, family); err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, newAccount.UserID, newAccount.IsFamily, family); err != nil {
			return err
		}

		if err := s.checkCategory(tx, userID, categoryID, transactionType, family); err != nil {
			return err
		}

		ledger.Revert(oldAccount, ledger.Delta(transaction.Type, transaction.Amount))
		if err := ledger.Apply(newAccount, ledger.Delta(transactionType, amount)); err != nil {
			return err
		}

		transaction.AccountID = accountID
		transaction.CategoryID = categoryRef(categoryID)
		transaction.Type = transactionType
		transaction.Amount = amount
		transaction.Description = description
		transaction.UserID = userID
		if !date.IsZero() {
			transaction.Date = date
		}
		if err := tx.Save(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if oldAccount == newAccount {
			err = ledger.Save(tx, oldAccount)
		} else {
			err = ledger.Save(tx, oldAccount, newAccount)
		}
		if err != nil {
			return err
		}
		updated = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a posting and reverts its balance effect.
// The revert has no floor check; deleting an income posting may leave
// the account negative when the money was already spent.
func (s *transactionService) DeleteTransaction(userID, transactionID uint, family bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := s.loadAuthorized(tx, userID, transactionID, family, false)
		if err != nil {
			return err
		}

		account, err := ledger.Fetch(tx, transaction.AccountID)
		if err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, account.UserID, account.IsFamily, family); err != nil {
			return err
		}
		ledger.Revert(account, ledger.Delta(transaction.Type, transaction.Amount))

		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return ledger.Save(tx, account)
	})
}

func (s *transactionService) scopedQuery(userID uint, family bool) (*gorm.DB, error) {
	if !family {
		return s.db.Where("transactions.user_id = ? AND transactions.is_family = ?", userID, false), nil
	}

	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.db.
		Joins("JOIN family_members ON family_members.user_id = transactions.user_id AND family_members.deleted_at IS NULL").
		Where("family_members.family_id = ? AND transactions.is_family = ?", familyID, true), nil
}

func (s *transactionService) loadAuthorized(db *gorm.DB, userID, transactionID uint, family, preload bool) (*models.Transaction, error) {
	var transaction models.Transaction
	query := db
	if preload {
		query = query.Preload("Account").Preload("Category")
	}
	if err := query.First(&transaction, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkScopeAccess(db, userID, transaction.UserID, transaction.IsFamily, family); err != nil {
		return nil, err
	}
	return &transaction, nil
}

// authorizedCategory loads a category and authorizes it for the scope.
func (s *transactionService) authorizedCategory(db *gorm.DB, userID, categoryID uint, family bool) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkScopeAccess(db, userID, category.UserID, category.IsFamily, family); err != nil {
		return nil, err
	}
	return &category, nil
}

// checkCategory authorizes an optional category and verifies its type
// matches the posting. A zero categoryID means no category.
func (s *transactionService) checkCategory(db *gorm.DB, userID, categoryID uint, transactionType models.TransactionType, family bool) error {
	if categoryID == 0 {
		return nil
	}
	category, err := s.authorizedCategory(db, userID, categoryID, family)
	if err != nil {
		return err
	}
	if string(category.Type) != string(transactionType) {
		return apperrors.ErrCategoryTypeMismatch
	}
	return nil
}

// categoryRef converts a zero-means-none category ID to its nullable
// column value.
func categoryRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func applyTransactionFilter(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("transactions.date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transactions.date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("transactions.type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("transactions.category_id = ?", *filter.CategoryID)
	}
	if filter.AccountID != nil {
		query = query.Where("transactions.account_id = ?", *filter.AccountID)
	}
	return query
}
