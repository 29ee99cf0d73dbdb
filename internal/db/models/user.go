package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether a record shows up in unauthenticated listings.
type Visibility string

const (
	// VisibilityPublic makes the record discoverable by anyone.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate hides the record from everyone but its owner.
	VisibilityPrivate Visibility = "private"
)

// User represents a user account in the system.
// The id is an opaque string generated at registration; roles are attached
// through UserRole edges and profile data lives in a separate
// UserAttributes row that cascades on delete.
type User struct {
	// ID is the opaque unique identifier for the user.
	ID string `gorm:"primaryKey;size:64"`
	// Username is the unique username for login.
	Username string `gorm:"unique;size:32;not null"`
	// PasswordHash is the Argon2id hashed password.
	PasswordHash string `gorm:"size:128;not null"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// Version counts mutating updates, starting at 1. It is bumped on every
	// write but never used to reject stale writes.
	Version int `gorm:"default:1"`
	// Attributes is the 1:1 profile row (loaded via foreign key).
	Attributes UserAttributes `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
}

// TableName specifies the database table name for the User model.
// This overrides GORM's default pluralized table naming.
func (User) TableName() string {
	return "users"
}

// UserAttributes holds the mutable profile data of a user, keyed by the
// user id. Deleted together with the user via the FK cascade.
type UserAttributes struct {
	// UserID is the id of the owning user.
	UserID string `gorm:"primaryKey;size:64"`
	// Email is the user's email address, unique when set.
	Email *string `gorm:"size:128;unique"`
	// Visibility controls discovery of the account in public search.
	Visibility Visibility `gorm:"type:varchar(16);not null;default:'private'"`
}

// TableName specifies the database table name for the UserAttributes model.
// This overrides GORM's default pluralized table naming.
func (UserAttributes) TableName() string {
	return "user_attributes"
}

// NewEntityID generates an opaque record identifier: a UUIDv4 with the
// creation unix time appended.
func NewEntityID() string {
	return fmt.Sprintf("%s-%d", uuid.NewString(), time.Now().Unix())
}
