package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account in the given scope with an
// optional non-negative opening balance. Creating a family account
// requires family membership.
func (s *accountService) CreateAccount(userID uint, family bool, name, description string, accountType models.AccountType, currency string, balance int64) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	switch accountType {
	case models.AccountTypeCash, models.AccountTypeCard, models.AccountTypeDeposit:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported account type")
	}
	if balance < 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	if family {
		if _, err := requireMembership(s.db, userID); err != nil {
			return nil, err
		}
	}

	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Type:        accountType,
		Description: description,
		Balance:     balance,
		Currency:    currency,
		IsFamily:    family,
	}
	if account.Currency == "" {
		account.Currency = "USD"
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// ListAccounts returns the accounts visible in the requested scope:
// the caller's own accounts for the personal scope, or every family
// member's family-scoped accounts for the family scope.
func (s *accountService) ListAccounts(userID uint, family bool, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	query, err := s.scopedQuery(userID, family)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := query.Scopes(pagination.Paginate(page)).Order("accounts.created_at DESC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(accounts, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetAccount returns a single account after scope authorization.
func (s *accountService) GetAccount(userID, accountID uint, family bool) (*models.Account, error) {
	account, err := s.loadAuthorized(userID, accountID, family)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount updates an account's name and description.
func (s *accountService) UpdateAccount(userID, accountID uint, family bool, name, description string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	account, err := s.loadAuthorized(userID, accountID, family)
	if err != nil {
		return nil, err
	}

	account.Name = name
	account.Description = description
	if err := s.db.Save(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// DeleteAccount soft-deletes an account.
func (s *accountService) DeleteAccount(userID, accountID uint, family bool) error {
	account, err := s.loadAuthorized(userID, accountID, family)
	if err != nil {
		return err
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// scopedQuery builds the base query for the requested scope.
func (s *accountService) scopedQuery(userID uint, family bool) (*gorm.DB, error) {
	if !family {
		return s.db.Where("accounts.user_id = ? AND accounts.is_family = ?", userID, false), nil
	}

	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.db.
		Joins("JOIN family_members ON family_members.user_id = accounts.user_id AND family_members.deleted_at IS NULL").
		Where("family_members.family_id = ? AND accounts.is_family = ?", familyID, true), nil
}

// loadAuthorized fetches the account and authorizes the caller for the
// requested scope.
func (s *accountService) loadAuthorized(userID, accountID uint, family bool) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkScopeAccess(s.db, userID, account.UserID, account.IsFamily, family); err != nil {
		return nil, err
	}
	return &account, nil
}
