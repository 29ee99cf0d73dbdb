package auth

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/db/models"
)

// diff computes the minimal change set turning current into desired.
// One algorithm serves permissions, roles and every per-role edge set.
func diff(current, desired map[string]struct{}) (toAdd, toRemove []string) {
	for key := range desired {
		if _, ok := current[key]; !ok {
			toAdd = append(toAdd, key)
		}
	}

	for key := range current {
		if _, ok := desired[key]; !ok {
			toRemove = append(toRemove, key)
		}
	}

	return toAdd, toRemove
}

// Reconcile mutates the permissions, roles and role_permissions tables to
// match the catalog. The three phases (permission set, role set, per-role
// assignment) run inside one transaction: either the store ends up matching
// the catalog exactly, or it is left untouched. Running Reconcile again
// with the same catalog performs zero writes.
func Reconcile(db *gorm.DB, cat *catalog.Catalog) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := reconcilePermissions(tx, cat); err != nil {
			return err
		}

		if err := reconcileRoles(tx, cat); err != nil {
			return err
		}

		return reconcileAssignments(tx, cat)
	})
}

func reconcilePermissions(tx *gorm.DB, cat *catalog.Catalog) error {
	var names []string
	if err := tx.Model(&models.Permission{}).Pluck("name", &names).Error; err != nil {
		return fmt.Errorf("failed to list permissions: %w", err)
	}

	toAdd, toRemove := diff(asSet(names), cat.Permissions())

	if len(toRemove) > 0 {
		log.Info().Strs("permissions", toRemove).Msg("removing stale permissions")

		// Edges referencing these permissions go with them via FK cascade.
		if err := tx.Where("name IN ?", toRemove).Delete(&models.Permission{}).Error; err != nil {
			return fmt.Errorf("failed to remove permissions: %w", err)
		}
	}

	if len(toAdd) > 0 {
		log.Info().Strs("permissions", toAdd).Msg("adding catalog permissions")

		rows := make([]models.Permission, 0, len(toAdd))
		for _, name := range toAdd {
			rows = append(rows, models.Permission{Name: name})
		}

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to add permissions: %w", err)
		}
	}

	return nil
}

func reconcileRoles(tx *gorm.DB, cat *catalog.Catalog) error {
	var names []string
	if err := tx.Model(&models.Role{}).Pluck("name", &names).Error; err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}

	desired := make(map[string]struct{}, len(cat.Roles()))
	for role := range cat.Roles() {
		desired[role] = struct{}{}
	}

	toAdd, toRemove := diff(asSet(names), desired)

	if len(toRemove) > 0 {
		log.Info().Strs("roles", toRemove).Msg("removing stale roles")

		// User memberships and permission assignments cascade away.
		if err := tx.Where("name IN ?", toRemove).Delete(&models.Role{}).Error; err != nil {
			return fmt.Errorf("failed to remove roles: %w", err)
		}
	}

	if len(toAdd) > 0 {
		log.Info().Strs("roles", toAdd).Msg("adding catalog roles")

		rows := make([]models.Role, 0, len(toAdd))
		for _, name := range toAdd {
			rows = append(rows, models.Role{Name: name})
		}

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to add roles: %w", err)
		}
	}

	return nil
}

// reconcileAssignments diffs each catalog role's permission edges. It runs
// after the set phases so every edge endpoint already exists and stale
// roles are gone.
func reconcileAssignments(tx *gorm.DB, cat *catalog.Catalog) error {
	for role, desired := range cat.Roles() {
		var assigned []string

		err := tx.Model(&models.RolePermission{}).
			Where("role_name = ?", role).
			Pluck("permission_name", &assigned).Error
		if err != nil {
			return fmt.Errorf("failed to list permissions of role %s: %w", role, err)
		}

		toAdd, toRemove := diff(asSet(assigned), desired)

		if len(toRemove) > 0 {
			log.Info().Str("role", role).Strs("permissions", toRemove).
				Msg("removing stale role permissions")

			err = tx.Where("role_name = ? AND permission_name IN ?", role, toRemove).
				Delete(&models.RolePermission{}).Error
			if err != nil {
				return fmt.Errorf("failed to remove permissions of role %s: %w", role, err)
			}
		}

		if len(toAdd) > 0 {
			log.Info().Str("role", role).Strs("permissions", toAdd).
				Msg("adding role permissions")

			rows := make([]models.RolePermission, 0, len(toAdd))
			for _, perm := range toAdd {
				rows = append(rows, models.RolePermission{RoleName: role, PermissionName: perm})
			}

			if err = tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to add permissions of role %s: %w", role, err)
			}
		}
	}

	return nil
}

func asSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}

	return set
}
