package models

import (
	"gorm.io/gorm"
)

// User represents a registered account. Accounts are never deleted by the
// application; tasks reference them through memberships only.
type User struct {
	gorm.Model

	Name         string `gorm:"not null" json:"name"`
	Surname      string `gorm:"not null" json:"surname"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Invitations []Invitation `gorm:"foreignKey:InvitedUserID" json:"invitations,omitempty"`
}
