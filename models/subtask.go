package models

import (
	"time"

	"gorm.io/gorm"
)

// SubTask is a unit of work under a task. Deleting it removes its
// assignments and comments in the same transaction.
type SubTask struct {
	gorm.Model
	TaskID      uint       `gorm:"not null;index" json:"task_id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	StatusID    uint       `gorm:"not null;default:1" json:"status_id"`

	// Relations
	Status      TaskStatus   `json:"status,omitempty"`
	Assignments []Assignment `gorm:"foreignKey:SubTaskID" json:"assignments,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:SubTaskID" json:"comments,omitempty"`
}

// Assignment puts a task member on a sub-task. The assigned user must hold a
// membership on the parent task, checked at assignment time.
type Assignment struct {
	gorm.Model
	SubTaskID uint `gorm:"not null;uniqueIndex:idx_assignments_subtask_user" json:"sub_task_id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_assignments_subtask_user" json:"user_id"`

	// Relations
	SubTask SubTask `json:"-"`
	User    User    `json:"-"`
}

// Comment is authored by a task member on a sub-task
type Comment struct {
	gorm.Model
	SubTaskID uint   `gorm:"not null;index" json:"sub_task_id"`
	UserID    uint   `gorm:"not null" json:"user_id"`
	Text      string `gorm:"not null" json:"text"`

	// Relations
	SubTask SubTask `json:"-"`
	User    User    `json:"-"`
}
