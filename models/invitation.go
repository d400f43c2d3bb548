package models

import "gorm.io/gorm"

// Invitation is a pending offer of membership. It exists only between being
// sent and being resolved: acceptance turns it into a membership carrying
// AsAdmin, decline or withdrawal just removes it. The composite unique index
// keeps a user from holding two pending invitations for the same task.
type Invitation struct {
	gorm.Model
	TaskID        uint `gorm:"not null;uniqueIndex:idx_invitations_task_invitee" json:"task_id"`
	InvitedUserID uint `gorm:"not null;uniqueIndex:idx_invitations_task_invitee" json:"invited_user_id"`
	InviterUserID uint `gorm:"not null" json:"inviter_user_id"`
	AsAdmin       bool `gorm:"default:false" json:"as_admin"`

	// Relations
	Task        Task `json:"-"`
	InvitedUser User `gorm:"foreignKey:InvitedUserID" json:"-"`
	InviterUser User `gorm:"foreignKey:InviterUserID" json:"-"`
}
