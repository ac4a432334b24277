package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
)

// familyIDOf returns the ID of the family the user belongs to, or 0 if
// the user is not a member of any family.
func familyIDOf(db *gorm.DB, userID uint) (uint, error) {
	var member models.FamilyMember
	err := db.Where("user_id = ?", userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member.FamilyID, nil
}

// requireMembership returns the caller's family ID, failing with
// ErrNotInFamily when the caller does not belong to one.
func requireMembership(db *gorm.DB, userID uint) (uint, error) {
	familyID, err := familyIDOf(db, userID)
	if err != nil {
		return 0, err
	}
	if familyID == 0 {
		return 0, apperrors.ErrNotInFamily
	}
	return familyID, nil
}

// sameFamily reports whether both users belong to the same family.
// Users outside any family are never in the same family, including
// with themselves.
func sameFamily(db *gorm.DB, a, b uint) (bool, error) {
	famA, err := familyIDOf(db, a)
	if err != nil {
		return false, err
	}
	if famA == 0 {
		return false, nil
	}
	famB, err := familyIDOf(db, b)
	if err != nil {
		return false, err
	}
	return famA == famB, nil
}

// checkScopeAccess decides whether a caller may act on a resource,
// given the scope the resource carries and the scope the request asked
// for. The two scopes must match exactly; a family resource is then
// visible to every member of the owner's family, a personal resource
// only to its owner.
func checkScopeAccess(db *gorm.DB, callerID, ownerID uint, resourceFamily, requestFamily bool) error {
	if resourceFamily != requestFamily {
		return apperrors.ErrScopeMismatch
	}
	if requestFamily {
		ok, err := sameFamily(db, callerID, ownerID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrForbidden
		}
		return nil
	}
	if callerID != ownerID {
		return apperrors.ErrForbidden
	}
	return nil
}
