package auth

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/db/models"
)

// Service answers authorization questions against the reconciled store.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasPermission checks if a user holds a permission through any of their
// roles. Unknown users and unknown permissions simply yield false.
func (s *Service) HasPermission(userID, permission string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_name = permissions.name").
		Joins("JOIN user_roles ON user_roles.role_name = role_permissions.role_name").
		Where("user_roles.user_id = ? AND permissions.name = ?", userID, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user holds at least one of the given permissions.
func (s *Service) HasAnyPermission(userID string, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// GetUserPermissions retrieves the distinct permissions a user holds
// across all their roles.
func (s *Service) GetUserPermissions(userID string) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_name = permissions.name").
		Joins("JOIN user_roles ON user_roles.role_name = role_permissions.role_name").
		Where("user_roles.user_id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// GetUserRoles retrieves the roles assigned to a user.
func (s *Service) GetUserRoles(userID string) ([]string, error) {
	var roles []string

	err := s.db.Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Order("role_name").
		Pluck("role_name", &roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return roles, nil
}

// SetUserRoles replaces a user's role memberships with the given set.
// Every role must already exist in the store or the whole call fails
// with ErrUnknownRole and no memberships change.
func (s *Service) SetUserRoles(userID string, roles []string) error {
	desired := asSet(roles)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if len(desired) > 0 {
			var known int64

			names := make([]string, 0, len(desired))
			for role := range desired {
				names = append(names, role)
			}

			err := tx.Model(&models.Role{}).Where("name IN ?", names).Count(&known).Error
			if err != nil {
				return fmt.Errorf("failed to validate roles: %w", err)
			}

			if known != int64(len(desired)) {
				return ErrUnknownRole
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to clear user roles: %w", err)
		}

		if len(desired) == 0 {
			return nil
		}

		rows := make([]models.UserRole, 0, len(desired))
		for role := range desired {
			rows = append(rows, models.UserRole{UserID: userID, RoleName: role})
		}

		sort.Slice(rows, func(i, j int) bool { return rows[i].RoleName < rows[j].RoleName })

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to assign user roles: %w", err)
		}

		return nil
	})
}

// GetRolePermissions retrieves the permissions assigned to a role.
func (s *Service) GetRolePermissions(role string) ([]string, error) {
	var permissions []string

	err := s.db.Model(&models.RolePermission{}).
		Where("role_name = ?", role).
		Order("permission_name").
		Pluck("permission_name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions of role %s: %w", role, err)
	}

	return permissions, nil
}
