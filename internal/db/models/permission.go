package models

import "time"

// Permission represents a grantable permission in the authorization system.
// The name is the identity: permissions have no surrogate id and are joined
// by name everywhere. Rows are created and removed only by catalog
// reconciliation at startup, never by request handlers.
type Permission struct {
	// Name is the unique permission identifier in resource.action format (e.g., "task.admin").
	Name string `gorm:"primaryKey;size:64"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
	// Version counts updates, starting at 1. It is informational only and
	// not enforced as a compare-and-set check.
	Version int `gorm:"default:1"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
