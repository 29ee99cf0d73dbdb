package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/db/models"
)

// seed creates the bootstrap admin account when the user table is empty.
// Roles come from the catalog option bootstrap_roles, falling back to
// default_role.
func seed(cfg *config.Config, db *gorm.DB, cat *catalog.Catalog) error {
	if cfg.Seed.Username == "" || cfg.Seed.Password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	roles := cat.OptionStrings("bootstrap_roles", nil)
	if len(roles) == 0 {
		if defaultRole := cat.OptionString("default_role", ""); defaultRole != "" {
			roles = []string{defaultRole}
		}
	}

	user, err := auth.NewLocalProvider(db).CreateUser(
		cfg.Seed.Username,
		cfg.Seed.Password,
		nil,
		models.VisibilityPrivate,
		roles,
	)
	if err != nil {
		return err
	}

	log.Warn().Str("user_id", user.ID).Str("username", user.Username).Strs("roles", roles).
		Msg("seeded bootstrap admin user, change its password after first login")

	return nil
}
