package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Like Permission, the unique name is the identity and the join key.
// The set of roles is declared by the permission catalog; users are linked
// to roles imperatively through UserRole edges.
type Role struct {
	// Name is the unique name of the role (e.g., "admin", "user").
	Name string `gorm:"primaryKey;size:64"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
	// Version counts updates, starting at 1. Informational only.
	Version int `gorm:"default:1"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
