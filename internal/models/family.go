package models

import "time"

// Family represents a shared household. Members of the same family can
// see and manage each other's family-scoped resources.
type Family struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	OwnerID uint   `gorm:"not null;index" json:"owner_id"`

	// Relationships
	Owner   User           `gorm:"foreignKey:OwnerID" json:"-"`
	Members []FamilyMember `gorm:"foreignKey:FamilyID" json:"members,omitempty"`
}

// FamilyMember links a user to a family. A user belongs to at most one
// family at a time.
type FamilyMember struct {
	Base
	FamilyID uint `gorm:"not null;index" json:"family_id"`
	UserID   uint `gorm:"not null;uniqueIndex" json:"user_id"`

	// Relationships
	Family Family `gorm:"foreignKey:FamilyID" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// FamilyInvite is a single-use invitation token addressed to an email.
type FamilyInvite struct {
	Base
	FamilyID  uint       `gorm:"not null;index" json:"family_id"`
	InviterID uint       `gorm:"not null" json:"inviter_id"`
	Email     string     `gorm:"not null;index" json:"email"`
	Token     string     `gorm:"uniqueIndex;not null" json:"token"`
	Used      bool       `gorm:"not null;default:false" json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`

	// Relationships
	Family  Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
	Inviter User   `gorm:"foreignKey:InviterID" json:"-"`
}
