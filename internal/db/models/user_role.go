package models

// UserRole represents the many-to-many relationship between users and roles.
// Unlike role/permission assignment this is not declarative: edges are
// mutated by account lifecycle operations (registration, admin role-set
// calls). Deleting a user or a role removes its edges (CASCADE).
type UserRole struct {
	// ID is the surrogate key of the edge.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the id of the user in this membership.
	UserID string `gorm:"column:user_id;size:64;not null;index;uniqueIndex:idx_user_role"`
	// RoleName is the name of the role in this membership.
	RoleName string `gorm:"column:role_name;size:64;not null;index;uniqueIndex:idx_user_role"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleName;references:Name;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
}

// TableName specifies the database table name for the UserRole model.
// This overrides GORM's default pluralized table naming.
func (UserRole) TableName() string {
	return "user_roles"
}
