package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hearth/internal/config"
	apperrors "hearth/internal/errors"
	"hearth/internal/models"
)

// familyService handles family membership and invitations.
type familyService struct {
	db *gorm.DB
}

// NewFamilyService creates a new FamilyServicer.
func NewFamilyService(db *gorm.DB) FamilyServicer {
	return &familyService{db: db}
}

// CreateFamily creates a new family owned by the user and enrolls the
// owner as its first member.
func (s *familyService) CreateFamily(userID uint, name string) (*models.Family, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "family name is required")
	}

	existing, err := familyIDOf(s.db, userID)
	if err != nil {
		return nil, err
	}
	if existing != 0 {
		return nil, apperrors.ErrAlreadyInFamily
	}

	family := &models.Family{Name: name, OwnerID: userID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(family).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member := &models.FamilyMember{FamilyID: family.ID, UserID: userID}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return family, nil
}

// GetFamily returns the caller's family with its member list.
func (s *familyService) GetFamily(userID uint) (*models.Family, error) {
	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return nil, err
	}

	var family models.Family
	if err := s.db.Preload("Members.User").First(&family, familyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFamilyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &family, nil
}

// InviteMember creates a single-use invite addressed to an email and
// returns it together with the join URL to send out.
func (s *familyService) InviteMember(inviterID uint, email string) (*models.FamilyInvite, string, error) {
	if email == "" {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	familyID, err := requireMembership(s.db, inviterID)
	if err != nil {
		return nil, "", err
	}

	invite := &models.FamilyInvite{
		FamilyID:  familyID,
		InviterID: inviterID,
		Email:     strings.ToLower(email),
		Token:     uuid.New().String(),
	}
	if err := s.db.Create(invite).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	joinURL := fmt.Sprintf("%s?token=%s", config.Get().JoinURLBase, invite.Token)
	return invite, joinURL, nil
}

// JoinFamily redeems an invite token. The joining user proves ownership
// of the invited email by presenting their password.
func (s *familyService) JoinFamily(token, email, password string) (*models.Family, error) {
	if token == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "token, email, and password are required")
	}
	email = strings.ToLower(email)

	var invite models.FamilyInvite
	if err := s.db.Where("token = ? AND used = ?", token, false).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInviteNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if invite.Email != email {
		return nil, apperrors.ErrInviteNotFound
	}

	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	existing, err := familyIDOf(s.db, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != 0 {
		return nil, apperrors.ErrAlreadyInFamily
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		member := &models.FamilyMember{FamilyID: invite.FamilyID, UserID: user.ID}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		now := time.Now()
		updates := map[string]interface{}{"used": true, "used_at": &now}
		if err := tx.Model(&invite).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var family models.Family
	if err := s.db.First(&family, invite.FamilyID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &family, nil
}

// LeaveFamily removes the caller from their family. The owner cannot
// leave; they own the family record.
func (s *familyService) LeaveFamily(userID uint) error {
	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return err
	}

	var family models.Family
	if err := s.db.First(&family, familyID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if family.OwnerID == userID {
		return apperrors.ErrOwnerCannotLeave
	}

	// Hard delete: a soft-deleted row would keep occupying the unique
	// user index and block a later rejoin.
	if err := s.db.Unscoped().Where("family_id = ? AND user_id = ?", familyID, userID).Delete(&models.FamilyMember{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RemoveMember removes a member from the owner's family. Only the owner
// may remove members, and the owner cannot remove themselves.
func (s *familyService) RemoveMember(ownerID, memberUserID uint) error {
	familyID, err := requireMembership(s.db, ownerID)
	if err != nil {
		return err
	}

	var family models.Family
	if err := s.db.First(&family, familyID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if family.OwnerID != ownerID {
		return apperrors.ErrForbidden
	}
	if memberUserID == ownerID {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "the family owner cannot be removed")
	}

	result := s.db.Unscoped().Where("family_id = ? AND user_id = ?", familyID, memberUserID).Delete(&models.FamilyMember{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrUserNotFound, "User is not a member of your family")
	}
	return nil
}

// ListInvites returns the unused invites addressed to an email.
func (s *familyService) ListInvites(email string) ([]models.FamilyInvite, error) {
	var invites []models.FamilyInvite
	err := s.db.Preload("Family").
		Where("email = ? AND used = ?", strings.ToLower(email), false).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invites, nil
}
