package services

import (
	"strings"
	"testing"

	"hearth/internal/models"
	"hearth/internal/testutil"
)

func TestCreateFamily(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		user := testutil.CreateTestUser(t, db)

		family, err := svc.CreateFamily(user.ID, "The Does")
		testutil.AssertNoError(t, err)

		if family.OwnerID != user.ID {
			t.Errorf("expected owner %d, got %d", user.ID, family.OwnerID)
		}

		// The owner is enrolled as the first member.
		var member models.FamilyMember
		err = db.Where("family_id = ? AND user_id = ?", family.ID, user.ID).First(&member).Error
		testutil.AssertNoError(t, err)
	})

	t.Run("already_in_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user.ID)

		_, err := svc.CreateFamily(user.ID, "Second Family")
		testutil.AssertAppError(t, err, "ALREADY_IN_FAMILY")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateFamily(user.ID, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetFamily(t *testing.T) {
	t.Run("with_members", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, owner.ID)
		testutil.AddFamilyMember(t, db, family.ID, member.ID)

		got, err := svc.GetFamily(member.ID)
		testutil.AssertNoError(t, err)
		if got.ID != family.ID {
			t.Errorf("expected family %d, got %d", family.ID, got.ID)
		}
		if len(got.Members) != 2 {
			t.Errorf("expected 2 members, got %d", len(got.Members))
		}
	})

	t.Run("not_in_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetFamily(user.ID)
		testutil.AssertAppError(t, err, "NOT_IN_FAMILY")
	})
}

func TestInviteAndJoin(t *testing.T) {
	t.Run("full_flow", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, owner.ID)
		invitee := testutil.CreateTestUserWithEmail(t, db, "invitee@test.com")

		invite, joinURL, err := svc.InviteMember(owner.ID, "invitee@test.com")
		testutil.AssertNoError(t, err)
		if invite.Token == "" {
			t.Fatal("expected non-empty invite token")
		}
		if !strings.Contains(joinURL, invite.Token) {
			t.Errorf("join URL %q should carry the token", joinURL)
		}

		joined, err := svc.JoinFamily(invite.Token, "invitee@test.com", "password123")
		testutil.AssertNoError(t, err)
		if joined.ID != family.ID {
			t.Errorf("expected family %d, got %d", family.ID, joined.ID)
		}

		var member models.FamilyMember
		err = db.Where("family_id = ? AND user_id = ?", family.ID, invitee.ID).First(&member).Error
		testutil.AssertNoError(t, err)

		// The invite is spent.
		var spent models.FamilyInvite
		db.First(&spent, invite.ID)
		if !spent.Used || spent.UsedAt == nil {
			t.Error("expected invite to be marked used")
		}
	})

	t.Run("invite_requires_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		loner := testutil.CreateTestUser(t, db)

		_, _, err := svc.InviteMember(loner.ID, "someone@test.com")
		testutil.AssertAppError(t, err, "NOT_IN_FAMILY")
	})

	t.Run("join_with_bad_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		testutil.CreateTestUserWithEmail(t, db, "somebody@test.com")

		_, err := svc.JoinFamily("no-such-token", "somebody@test.com", "password123")
		testutil.AssertAppError(t, err, "INVITE_NOT_FOUND")
	})

	t.Run("join_with_wrong_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)
		testutil.CreateTestUserWithEmail(t, db, "other@test.com")

		invite, _, err := svc.InviteMember(owner.ID, "invited@test.com")
		testutil.AssertNoError(t, err)

		_, err = svc.JoinFamily(invite.Token, "other@test.com", "password123")
		testutil.AssertAppError(t, err, "INVITE_NOT_FOUND")
	})

	t.Run("join_with_wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)
		testutil.CreateTestUserWithEmail(t, db, "invited@test.com")

		invite, _, err := svc.InviteMember(owner.ID, "invited@test.com")
		testutil.AssertNoError(t, err)

		_, err = svc.JoinFamily(invite.Token, "invited@test.com", "wrong-password")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("token_single_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)
		testutil.CreateTestUserWithEmail(t, db, "invited@test.com")

		invite, _, err := svc.InviteMember(owner.ID, "invited@test.com")
		testutil.AssertNoError(t, err)

		_, err = svc.JoinFamily(invite.Token, "invited@test.com", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.JoinFamily(invite.Token, "invited@test.com", "password123")
		testutil.AssertAppError(t, err, "INVITE_NOT_FOUND")
	})

	t.Run("join_while_in_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)
		occupied := testutil.CreateTestUserWithEmail(t, db, "occupied@test.com")
		testutil.CreateTestFamily(t, db, occupied.ID)

		invite, _, err := svc.InviteMember(owner.ID, "occupied@test.com")
		testutil.AssertNoError(t, err)

		_, err = svc.JoinFamily(invite.Token, "occupied@test.com", "password123")
		testutil.AssertAppError(t, err, "ALREADY_IN_FAMILY")
	})
}

func TestLeaveFamily(t *testing.T) {
	t.Run("member_leaves", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, owner.ID)
		testutil.AddFamilyMember(t, db, family.ID, member.ID)

		testutil.AssertNoError(t, svc.LeaveFamily(member.ID))

		_, err := svc.GetFamily(member.ID)
		testutil.AssertAppError(t, err, "NOT_IN_FAMILY")
	})

	t.Run("owner_cannot_leave", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)

		err := svc.LeaveFamily(owner.ID)
		testutil.AssertAppError(t, err, "OWNER_CANNOT_LEAVE")
	})

	t.Run("rejoin_after_leave", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, owner.ID)
		returning := testutil.CreateTestUserWithEmail(t, db, "returning@test.com")

		invite, _, err := svc.InviteMember(owner.ID, "returning@test.com")
		testutil.AssertNoError(t, err)
		_, err = svc.JoinFamily(invite.Token, "returning@test.com", "password123")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.LeaveFamily(returning.ID))

		// A fresh invite lets the same user back in; the vacated
		// membership slot must not block the second join.
		invite, _, err = svc.InviteMember(owner.ID, "returning@test.com")
		testutil.AssertNoError(t, err)
		rejoined, err := svc.JoinFamily(invite.Token, "returning@test.com", "password123")
		testutil.AssertNoError(t, err)
		if rejoined.ID != family.ID {
			t.Errorf("expected family %d, got %d", family.ID, rejoined.ID)
		}

		var memberships int64
		db.Model(&models.FamilyMember{}).Where("user_id = ?", returning.ID).Count(&memberships)
		if memberships != 1 {
			t.Errorf("expected one membership row, got %d", memberships)
		}
	})
}

func TestRemoveMember(t *testing.T) {
	t.Run("owner_removes_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, owner.ID)
		testutil.AddFamilyMember(t, db, family.ID, member.ID)

		testutil.AssertNoError(t, svc.RemoveMember(owner.ID, member.ID))

		_, err := svc.GetFamily(member.ID)
		testutil.AssertAppError(t, err, "NOT_IN_FAMILY")
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, owner.ID)
		testutil.AddFamilyMember(t, db, family.ID, member.ID)

		err := svc.RemoveMember(member.ID, owner.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("owner_not_removable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)

		err := svc.RemoveMember(owner.ID, owner.ID)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_a_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFamilyService(db)
		owner := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, owner.ID)

		err := svc.RemoveMember(owner.ID, outsider.ID)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestListInvites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewFamilyService(db)
	owner := testutil.CreateTestUser(t, db)
	testutil.CreateTestFamily(t, db, owner.ID)
	testutil.CreateTestUserWithEmail(t, db, "target@test.com")

	first, _, err := svc.InviteMember(owner.ID, "target@test.com")
	testutil.AssertNoError(t, err)
	_, _, err = svc.InviteMember(owner.ID, "target@test.com")
	testutil.AssertNoError(t, err)

	invites, err := svc.ListInvites("target@test.com")
	testutil.AssertNoError(t, err)
	if len(invites) != 2 {
		t.Fatalf("expected 2 pending invites, got %d", len(invites))
	}

	// Spent invites drop out of the listing.
	_, err = svc.JoinFamily(first.Token, "target@test.com", "password123")
	testutil.AssertNoError(t, err)

	invites, err = svc.ListInvites("target@test.com")
	testutil.AssertNoError(t, err)
	if len(invites) != 1 {
		t.Errorf("expected 1 pending invite after join, got %d", len(invites))
	}
}
