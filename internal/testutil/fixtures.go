package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hearth/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email. The
// password is always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a personal cash account with the given balance (in cents).
func CreateTestAccount(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, balance, false)
}

// CreateTestFamilyAccount creates a family-scoped cash account with the given balance.
func CreateTestFamilyAccount(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, balance, true)
}

func createAccount(t *testing.T, db *gorm.DB, userID uint, balance int64, family bool) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeCash,
		Balance:  balance,
		Currency: "USD",
		IsFamily: family,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a personal category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, userID, categoryType, false)
}

// CreateTestFamilyCategory creates a family-scoped category of the given type.
func CreateTestFamilyCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, userID, categoryType, true)
}

func createCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType, family bool) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		IsFamily: family,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction row directly, without
// touching any account balance.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID, categoryID uint, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: &categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestFamily creates a family owned by the given user and adds the
// owner as its first member.
func CreateTestFamily(t *testing.T, db *gorm.DB, ownerID uint) *models.Family {
	t.Helper()

	family := &models.Family{
		Name:    fmt.Sprintf("Test Family %d", nextID()),
		OwnerID: ownerID,
	}
	if err := db.Create(family).Error; err != nil {
		t.Fatalf("failed to create test family: %v", err)
	}
	member := &models.FamilyMember{FamilyID: family.ID, UserID: ownerID}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add family owner as member: %v", err)
	}
	return family
}

// AddFamilyMember adds a user to an existing family.
func AddFamilyMember(t *testing.T, db *gorm.DB, familyID, userID uint) *models.FamilyMember {
	t.Helper()

	member := &models.FamilyMember{FamilyID: familyID, UserID: userID}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add family member: %v", err)
	}
	return member
}

// CreateTestBudget creates a budget for the given category and month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, month, year int, amount int64) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Month:      month,
		Year:       year,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
