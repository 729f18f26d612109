package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

type Task struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	Title        string     `gorm:"size:255;not null"`
	ActivityType string     `gorm:"size:64;index"` // concrete_pour, roofing, ...
	Status       TaskStatus `gorm:"type:varchar(20);not null"`

	StartDate *time.Time
	DueDate   *time.Time

	AssigneeID uint
}

// IsOverdue: срок прошёл, а задача не закрыта.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskCompleted
}
