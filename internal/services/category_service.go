package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category in the given scope.
func (s *categoryService) CreateCategory(userID uint, family bool, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	if family {
		if _, err := requireMembership(s.db, userID); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Type:        categoryType,
		Description: description,
		Icon:        icon,
		Color:       color,
		IsFamily:    family,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ListCategories returns the categories visible in the requested scope,
// optionally filtered by type.
func (s *categoryService) ListCategories(userID uint, family bool, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	query, err := s.scopedQuery(userID, family)
	if err != nil {
		return nil, err
	}
	if categoryType != nil {
		query = query.Where("categories.type = ?", *categoryType)
	}

	var total int64
	if err := query.Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := query.Scopes(pagination.Paginate(page)).Order("categories.created_at DESC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(categories, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetCategory returns a single category after scope authorization.
func (s *categoryService) GetCategory(userID, categoryID uint, family bool) (*models.Category, error) {
	return s.loadAuthorized(userID, categoryID, family)
}

// UpdateCategory updates a category's descriptive fields. The type is
// immutable; transactions already posted against it depend on it.
func (s *categoryService) UpdateCategory(userID, categoryID uint, family bool, name, description, icon, color string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.loadAuthorized(userID, categoryID, family)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Description = description
	category.Icon = icon
	category.Color = color
	if err := s.db.Save(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory soft-deletes a category.
func (s *categoryService) DeleteCategory(userID, categoryID uint, family bool) error {
	category, err := s.loadAuthorized(userID, categoryID, family)
	if err != nil {
		return err
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) scopedQuery(userID uint, family bool) (*gorm.DB, error) {
	if !family {
		return s.db.Where("categories.user_id = ? AND categories.is_family = ?", userID, false), nil
	}

	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.db.
		Joins("JOIN family_members ON family_members.user_id = categories.user_id AND family_members.deleted_at IS NULL").
		Where("family_members.family_id = ? AND categories.is_family = ?", familyID, true), nil
}

func (s *categoryService) loadAuthorized(userID, categoryID uint, family bool) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkScopeAccess(s.db, userID, category.UserID, category.IsFamily, family); err != nil {
		return nil, err
	}
	return &category, nil
}
