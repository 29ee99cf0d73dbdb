package models

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusNotStarted is the initial state of a task.
	TaskStatusNotStarted TaskStatus = "not_started"
	// TaskStatusInProgress marks a task being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted marks a finished task.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusCancelled marks an abandoned task.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Task represents a task owned by a user. Deleting the creator cascades to
// their tasks, and deleting a task cascades to its attributes row.
type Task struct {
	// ID is the opaque unique identifier for the task.
	ID string `gorm:"primaryKey;size:64"`
	// CreatorID is the id of the user that owns this task.
	CreatorID string `gorm:"column:creator_id;size:64;not null;index"`
	// CreatedAt is the timestamp when the task was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the task was last updated (managed by GORM).
	UpdatedAt time.Time
	// Version counts mutating updates, starting at 1. Informational only.
	Version int `gorm:"default:1"`
	// Creator is the owning user (loaded via foreign key).
	Creator User `gorm:"foreignKey:CreatorID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	// Attributes is the 1:1 attribute row (loaded via foreign key).
	Attributes TaskAttributes `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
}

// TableName specifies the database table name for the Task model.
// This overrides GORM's default pluralized table naming.
func (Task) TableName() string {
	return "tasks"
}

// TaskAttributes holds the mutable attribute data of a task, keyed by the
// task id. Deleted together with the task via the FK cascade.
type TaskAttributes struct {
	// TaskID is the id of the owning task.
	TaskID string `gorm:"primaryKey;size:64"`
	// Name is the display name of the task.
	Name string `gorm:"size:256"`
	// Visibility controls whether other users can see this task.
	Visibility Visibility `gorm:"type:varchar(16);not null;default:'private'"`
	// Status is the lifecycle state of the task.
	Status TaskStatus `gorm:"type:varchar(16);not null;default:'not_started'"`
}

// TableName specifies the database table name for the TaskAttributes model.
// This overrides GORM's default pluralized table naming.
func (TaskAttributes) TableName() string {
	return "task_attributes"
}
