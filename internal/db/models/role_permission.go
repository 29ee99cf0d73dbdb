package models

// RolePermission represents the many-to-many relationship between roles and
// permissions. This junction table maps which permissions are assigned to
// which roles. When either endpoint is deleted, the edge is automatically
// removed (CASCADE), so reconciliation never has to clean edges by hand.
type RolePermission struct {
	// ID is the surrogate key of the edge.
	ID uint64 `gorm:"primaryKey"`
	// RoleName is the name of the role in this mapping.
	RoleName string `gorm:"column:role_name;size:64;not null;index;uniqueIndex:idx_role_permission"`
	// PermissionName is the name of the permission in this mapping.
	PermissionName string `gorm:"column:permission_name;size:64;not null;index;uniqueIndex:idx_role_permission"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleName;references:Name;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionName;references:Name;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
}

// TableName specifies the database table name for the RolePermission model.
// This overrides GORM's default pluralized table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}
