package services

import (
	"testing"

	"hearth/internal/testutil"
)

func TestSameFamily(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	owner := testutil.CreateTestUser(t, db)
	member := testutil.CreateTestUser(t, db)
	outsider := testutil.CreateTestUser(t, db)
	family := testutil.CreateTestFamily(t, db, owner.ID)
	testutil.AddFamilyMember(t, db, family.ID, member.ID)

	ok, err := sameFamily(db, owner.ID, member.ID)
	testutil.AssertNoError(t, err)
	if !ok {
		t.Error("expected owner and member to share a family")
	}

	ok, err = sameFamily(db, owner.ID, outsider.ID)
	testutil.AssertNoError(t, err)
	if ok {
		t.Error("expected outsider not to share a family")
	}

	// A user outside any family is not in the same family as themselves.
	ok, err = sameFamily(db, outsider.ID, outsider.ID)
	testutil.AssertNoError(t, err)
	if ok {
		t.Error("expected loner self-check to be false")
	}
}

func TestCheckScopeAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	owner := testutil.CreateTestUser(t, db)
	member := testutil.CreateTestUser(t, db)
	outsider := testutil.CreateTestUser(t, db)
	family := testutil.CreateTestFamily(t, db, owner.ID)
	testutil.AddFamilyMember(t, db, family.ID, member.ID)

	t.Run("personal_owner_ok", func(t *testing.T) {
		testutil.AssertNoError(t, checkScopeAccess(db, owner.ID, owner.ID, false, false))
	})

	t.Run("personal_other_forbidden", func(t *testing.T) {
		err := checkScopeAccess(db, member.ID, owner.ID, false, false)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("scope_flags_must_match", func(t *testing.T) {
		err := checkScopeAccess(db, owner.ID, owner.ID, true, false)
		testutil.AssertAppError(t, err, "SCOPE_MISMATCH")
		err = checkScopeAccess(db, owner.ID, owner.ID, false, true)
		testutil.AssertAppError(t, err, "SCOPE_MISMATCH")
	})

	t.Run("family_member_ok", func(t *testing.T) {
		testutil.AssertNoError(t, checkScopeAccess(db, member.ID, owner.ID, true, true))
	})

	t.Run("family_outsider_forbidden", func(t *testing.T) {
		err := checkScopeAccess(db, outsider.ID, owner.ID, true, true)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
