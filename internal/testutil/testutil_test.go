package testutil_test

import (
	"testing"

	"hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "categories", "transactions", "transfers", "families", "family_members", "family_invites", "budgets", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == 0 {
		t.Fatal("user should have a non-zero ID")
	}

	account := testutil.CreateTestAccount(t, db, user.ID, 5000)
	if account.Balance != 5000 {
		t.Errorf("expected balance 5000, got %d", account.Balance)
	}
	if account.IsFamily {
		t.Error("expected personal account")
	}

	famAccount := testutil.CreateTestFamilyAccount(t, db, user.ID, 0)
	if !famAccount.IsFamily {
		t.Error("expected family account")
	}

	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 1000)
	if tx.Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", tx.Amount)
	}

	family := testutil.CreateTestFamily(t, db, user.ID)
	var memberCount int64
	db.Model(&models.FamilyMember{}).Where("family_id = ?", family.ID).Count(&memberCount)
	if memberCount != 1 {
		t.Errorf("expected owner to be the only member, got %d", memberCount)
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, 6, 2025, 10000)
	if budget.Amount != 10000 {
		t.Errorf("expected budget amount 10000, got %d", budget.Amount)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
