package models

import "gorm.io/gorm"

// Membership links a user to a task. The composite unique index keeps a
// (task, user) pair from appearing twice. A task that still has members must
// always keep at least one membership with IsAdmin set; the controllers
// enforce that before any removal or downgrade.
type Membership struct {
	gorm.Model
	TaskID  uint `gorm:"not null;uniqueIndex:idx_memberships_task_user" json:"task_id"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_memberships_task_user" json:"user_id"`
	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	// Relations
	Task Task `json:"-"`
	User User `json:"-"`
}
