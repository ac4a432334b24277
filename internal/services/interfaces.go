package services

import (
	"time"

	"hearth/internal/models"
	"hearth/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateProfile(userID uint, firstName, lastName string) (*models.User, error)
	DeleteAccount(userID uint, password string) error
}

// FamilyServicer defines the contract for family membership and the
// scope checks the other services rely on.
type FamilyServicer interface {
	CreateFamily(userID uint, name string) (*models.Family, error)
	GetFamily(userID uint) (*models.Family, error)
	InviteMember(inviterID uint, email string) (*models.FamilyInvite, string, error)
	JoinFamily(token, email, password string) (*models.Family, error)
	LeaveFamily(userID uint) error
	RemoveMember(ownerID, memberUserID uint) error
	ListInvites(email string) ([]models.FamilyInvite, error)
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID uint, family bool, name, description string, accountType models.AccountType, currency string, balance int64) (*models.Account, error)
	ListAccounts(userID uint, family bool, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccount(userID, accountID uint, family bool) (*models.Account, error)
	UpdateAccount(userID, accountID uint, family bool, name, description string) (*models.Account, error)
	DeleteAccount(userID, accountID uint, family bool) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, family bool, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	ListCategories(userID uint, family bool, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategory(userID, categoryID uint, family bool) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, family bool, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint, family bool) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	AccountID  *uint
}

// TransactionServicer defines the contract for income/expense postings.
type TransactionServicer interface {
	CreateTransaction(userID uint, family bool, accountID, categoryID uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	ListTransactions(userID uint, family bool, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransaction(userID, transactionID uint, family bool) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, family bool, accountID, categoryID uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint, family bool) error
}

// TransferServicer defines the contract for account-to-account transfers.
type TransferServicer interface {
	CreateTransfer(userID uint, family bool, fromAccountID, toAccountID uint, amount int64, description string, date time.Time) (*models.Transfer, error)
	ListTransfers(userID uint, family bool, page pagination.PageRequest) (*pagination.PageResponse[models.Transfer], error)
	GetTransfer(userID, transferID uint, family bool) (*models.Transfer, error)
	UpdateTransfer(userID, transferID uint, family bool, fromAccountID, toAccountID uint, amount int64, description string, date time.Time) (*models.Transfer, error)
	DeleteTransfer(userID, transferID uint, family bool) error
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID uint, family bool, categoryID uint, amount int64, month, year int) (*models.Budget, error)
	ListBudgets(userID uint, family bool, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudget(userID, budgetID uint, family bool) (*models.Budget, error)
	UpdateBudget(userID, budgetID uint, family bool, categoryID uint, amount int64, month, year int) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint, family bool) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
