package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// budgetService handles monthly category budgets.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a monthly budget for a category. Within a scope
// at most one budget may exist per category and month; for the family
// scope the uniqueness spans all members.
func (s *budgetService) CreateBudget(userID uint, family bool, categoryID uint, amount int64, month, year int) (*models.Budget, error) {
	if err := validateBudgetPeriod(month, year); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	if err := s.checkCategory(userID, categoryID, family); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(userID, family, categoryID, month, year, 0); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Month:      month,
		Year:       year,
		IsFamily:   family,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// ListBudgets returns the budgets visible in the requested scope, most
// recent period first.
func (s *budgetService) ListBudgets(userID uint, family bool, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	query, err := s.scopedQuery(userID, family)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Model(&models.Budget{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	err = query.
		Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("budgets.year DESC, budgets.month DESC").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(budgets, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetBudget returns a single budget after scope authorization.
func (s *budgetService) GetBudget(userID, budgetID uint, family bool) (*models.Budget, error) {
	return s.loadAuthorized(userID, budgetID, family, true)
}

// UpdateBudget changes a budget's category, amount, or period. The
// uniqueness rule is re-checked against all other budgets in the scope.
func (s *budgetService) UpdateBudget(userID, budgetID uint, family bool, categoryID uint, amount int64, month, year int) (*models.Budget, error) {
	if err := validateBudgetPeriod(month, year); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	budget, err := s.loadAuthorized(userID, budgetID, family, false)
	if err != nil {
		return nil, err
	}

	if err := s.checkCategory(userID, categoryID, family); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(userID, family, categoryID, month, year, budget.ID); err != nil {
		return nil, err
	}

	budget.CategoryID = categoryID
	budget.Amount = amount
	budget.Month = month
	budget.Year = year
	if err := s.db.Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID uint, family bool) error {
	budget, err := s.loadAuthorized(userID, budgetID, family, false)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *budgetService) scopedQuery(userID uint, family bool) (*gorm.DB, error) {
	if !family {
		return s.db.Where("budgets.user_id = ? AND budgets.is_family = ?", userID, false), nil
	}

	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.db.
		Joins("JOIN family_members ON family_members.user_id = budgets.user_id AND family_members.deleted_at IS NULL").
		Where("family_members.family_id = ? AND budgets.is_family = ?", familyID, true), nil
}

func (s *budgetService) loadAuthorized(userID, budgetID uint, family, preload bool) (*models.Budget, error) {
	var budget models.Budget
	query := s.db
	if preload {
		query = query.Preload("Category")
	}
	if err := query.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkScopeAccess(s.db, userID, budget.UserID, budget.IsFamily, family); err != nil {
		return nil, err
	}
	return &budget, nil
}

// checkCategory verifies the category exists and is accessible in the
// requested scope.
func (s *budgetService) checkCategory(userID, categoryID uint, family bool) error {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return checkScopeAccess(s.db, userID, category.UserID, category.IsFamily, family)
}

// checkDuplicate enforces one budget per (category, month, year) within
// the scope. excludeID skips the budget being updated.
func (s *budgetService) checkDuplicate(userID uint, family bool, categoryID uint, month, year int, excludeID uint) error {
	query, err := s.scopedQuery(userID, family)
	if err != nil {
		return err
	}
	query = query.Model(&models.Budget{}).
		Where("budgets.category_id = ? AND budgets.month = ? AND budgets.year = ?", categoryID, month, year)
	if excludeID != 0 {
		query = query.Where("budgets.id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}

func validateBudgetPeriod(month, year int) error {
	if month < 1 || month > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < 1970 || year > time.Now().Year()+50 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year is out of range")
	}
	return nil
}
