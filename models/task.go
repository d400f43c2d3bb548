package models

import (
	"time"

	"gorm.io/gorm"
)

// Status ids match the seeded rows in CreateDefaultStatuses. New tasks and
// sub-tasks always start as StatusOpen.
const (
	StatusOpen       uint = 1
	StatusInProgress uint = 2
	StatusDone       uint = 3
)

// TaskStatus is a lookup table shared by tasks and sub-tasks
type TaskStatus struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Task is the top-level collaborative unit. Everything below it (memberships,
// sub-tasks, assignments, comments, invitations) is owned by the task and is
// removed through an explicit transactional cascade, never left behind.
type Task struct {
	gorm.Model
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	StatusID    uint       `gorm:"not null;default:1" json:"status_id"`

	// Relations
	Status      TaskStatus   `json:"status,omitempty"`
	Members     []Membership `gorm:"foreignKey:TaskID" json:"members,omitempty"`
	SubTasks    []SubTask    `gorm:"foreignKey:TaskID" json:"sub_tasks,omitempty"`
	Invitations []Invitation `gorm:"foreignKey:TaskID" json:"-"`
}

// CreateDefaultStatuses seeds the status lookup table during migration
func CreateDefaultStatuses(db *gorm.DB) error {
	defaultStatuses := []TaskStatus{
		{Model: gorm.Model{ID: StatusOpen}, Name: "open"},
		{Model: gorm.Model{ID: StatusInProgress}, Name: "in progress"},
		{Model: gorm.Model{ID: StatusDone}, Name: "done"},
	}
	for _, status := range defaultStatuses {
		if err := db.FirstOrCreate(&status, "name = ?", status.Name).Error; err != nil {
			return err
		}
	}
	return nil
}
