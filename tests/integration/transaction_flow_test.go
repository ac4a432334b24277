package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestTransactionFlow_IncomeAndExpense(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "tx@test.com", "password123")

	accountID := app.createAccount(t, token, "Wallet", "")
	salaryID := app.createCategory(t, token, "Salary", "income", "")
	foodID := app.createCategory(t, token, "Food", "expense", "")

	// Income of 1234.56
	body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":"1234.56","description":"Salary"}`, accountID, salaryID)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("income failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	tx := result["transaction"].(map[string]interface{})
	if tx["amount"] != "1234.56" {
		t.Errorf("expected amount 1234.56, got %v", tx["amount"])
	}

	if got := app.accountBalance(t, token, accountID, ""); got != "1234.56" {
		t.Errorf("expected balance 1234.56, got %s", got)
	}

	// Expense of 34.56
	body = fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"expense","amount":"34.56"}`, accountID, foodID)
	rec = app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense failed: %d %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, token, accountID, ""); got != "1200.00" {
		t.Errorf("expected balance 1200.00, got %s", got)
	}
}

func TestTransactionFlow_InsufficientFunds(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "broke@test.com", "password123")

	accountID := app.createAccount(t, token, "Empty", "")
	foodID := app.createCategory(t, token, "Food", "expense", "")

	body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"expense","amount":"0.01"}`, accountID, foodID)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	assertErrorCode(t, rec, http.StatusBadRequest, "INSUFFICIENT_FUNDS")

	if got := app.accountBalance(t, token, accountID, ""); got != "0.00" {
		t.Errorf("expected balance unchanged at 0.00, got %s", got)
	}
}

func TestTransactionFlow_InvalidAmounts(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "amounts@test.com", "password123")

	accountID := app.createAccount(t, token, "Wallet", "")
	salaryID := app.createCategory(t, token, "Salary", "income", "")

	for _, amount := range []string{"0", "-5.00", "1.234", "abc"} {
		body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":%q}`, accountID, salaryID, amount)
		rec := app.request("POST", "/api/v1/transactions", body, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("amount %q: expected 400, got %d: %s", amount, rec.Code, rec.Body.String())
		}
	}
}

func TestTransactionFlow_CategoryTypeMismatch(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "catmismatch@test.com", "password123")

	accountID := app.createAccount(t, token, "Wallet", "")
	foodID := app.createCategory(t, token, "Food", "expense", "")

	body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":"10.00"}`, accountID, foodID)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	assertErrorCode(t, rec, http.StatusBadRequest, "CATEGORY_TYPE_MISMATCH")
}

func TestTransactionFlow_UpdateRewritesBalances(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "txupdate@test.com", "password123")

	accountID := app.createAccount(t, token, "Wallet", "")
	otherID := app.createAccount(t, token, "Savings", "")
	salaryID := app.createCategory(t, token, "Salary", "income", "")

	body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":"100.00"}`, accountID, salaryID)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	txID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(float64)

	// Move the income to the other account with a new amount.
	body = fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":"250.00"}`, otherID, salaryID)
	rec = app.request("PUT", fmt.Sprintf("/api/v1/transactions/%.0f", txID), body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, token, accountID, ""); got != "0.00" {
		t.Errorf("expected old account drained to 0.00, got %s", got)
	}
	if got := app.accountBalance(t, token, otherID, ""); got != "250.00" {
		t.Errorf("expected new account at 250.00, got %s", got)
	}
}

func TestTransactionFlow_DeleteRestoresBalance(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "txdelete@test.com", "password123")

	accountID := app.createAccount(t, token, "Wallet", "")
	salaryID := app.createCategory(t, token, "Salary", "income", "")
	foodID := app.createCategory(t, token, "Food", "expense", "")

	body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":"50.00"}`, accountID, salaryID)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("income failed: %d %s", rec.Code, rec.Body.String())
	}

	body = fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"expense","amount":"20.00"}`, accountID, foodID)
	rec = app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense failed: %d %s", rec.Code, rec.Body.String())
	}
	expenseID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(float64)

	rec = app.request("DELETE", fmt.Sprintf("/api/v1/transactions/%.0f", expenseID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, token, accountID, ""); got != "50.00" {
		t.Errorf("expected balance restored to 50.00, got %s", got)
	}
}

func TestTransactionFlow_FamilyScope(t *testing.T) {
	app := setupApp(t)
	ownerToken, _ := app.registerUser(t, "famowner@test.com", "password123")
	memberToken, memberID := app.registerUser(t, "fammember@test.com", "password123")
	_ = memberID

	rec := app.request("POST", "/api/v1/family", `{"name":"The Tests"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create family failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/family/invite", `{"email":"fammember@test.com"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite failed: %d %s", rec.Code, rec.Body.String())
	}
	invite := parseJSON(t, rec)["invite"].(map[string]interface{})
	joinBody := fmt.Sprintf(`{"token":%q,"email":"fammember@test.com","password":"password123"}`, invite["token"])
	rec = app.request("POST", "/api/v1/family/join", joinBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("join failed: %d %s", rec.Code, rec.Body.String())
	}

	// Owner sets up the shared account and category.
	accountID := app.createAccount(t, ownerToken, "Household", "?family=true")
	groceriesID := app.createCategory(t, ownerToken, "Groceries", "expense", "?family=true")
	salaryID := app.createCategory(t, ownerToken, "Salary", "income", "?family=true")

	body := fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"income","amount":"300.00"}`, accountID, salaryID)
	rec = app.request("POST", "/api/v1/transactions?family=true", body, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("owner income failed: %d %s", rec.Code, rec.Body.String())
	}

	// The member spends from the shared account.
	body = fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"expense","amount":"45.50"}`, accountID, groceriesID)
	rec = app.request("POST", "/api/v1/transactions?family=true", body, memberToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("member expense failed: %d %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, memberToken, accountID, "?family=true"); got != "254.50" {
		t.Errorf("expected shared balance 254.50, got %s", got)
	}

	// Both members see both postings in the family list.
	rec = app.request("GET", "/api/v1/transactions?family=true", "", memberToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("member list failed: %d %s", rec.Code, rec.Body.String())
	}
	if n := len(parseJSON(t, rec)["data"].([]interface{})); n != 2 {
		t.Errorf("expected 2 family transactions, got %d", n)
	}

	// A stranger cannot touch the shared account.
	strangerToken, _ := app.registerUser(t, "stranger@test.com", "password123")
	body = fmt.Sprintf(`{"account_id":%.0f,"category_id":%.0f,"type":"expense","amount":"1.00"}`, accountID, groceriesID)
	rec = app.request("POST", "/api/v1/transactions?family=true", body, strangerToken)
	assertErrorCode(t, rec, http.StatusForbidden, "FORBIDDEN")
}
