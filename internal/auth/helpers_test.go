package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing. Foreign
// keys are switched on so cascade behavior matches production engines.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
		&models.UserAttributes{},
		&models.UserRole{},
		&models.Task{},
		&models.TaskAttributes{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// parseCatalog builds a catalog from raw JSON, failing the test on error.
func parseCatalog(t *testing.T, raw string) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Parse([]byte(raw))
	require.NoError(t, err, "failed to parse test catalog")

	return cat
}

// seedUser inserts a user with the given roles, creating any missing roles
// first.
func seedUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()

	user := models.User{
		ID:           models.NewEntityID(),
		Username:     username,
		PasswordHash: "x",
		Attributes:   models.UserAttributes{Visibility: models.VisibilityPrivate},
	}
	require.NoError(t, db.Create(&user).Error)

	for _, role := range roles {
		require.NoError(t, db.FirstOrCreate(&models.Role{}, models.Role{Name: role}).Error)
		require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleName: role}).Error)
	}

	return &user
}
