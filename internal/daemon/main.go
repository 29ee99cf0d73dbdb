// Package daemon bootstraps TaskVault: logging, database, catalog
// reconciliation, seeding and the web service.
package daemon

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/db/dsn"
	"github.com/taskvault/taskvault/internal/db/models"
	"github.com/taskvault/taskvault/internal/logger"
	"github.com/taskvault/taskvault/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a Daemon from the given configuration. Startup is strict:
// a store, catalog or reconciliation failure aborts before the service
// ever listens, so no request is served against a half-synced store.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = db.AutoMigrate(
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
		&models.UserAttributes{},
		&models.UserRole{},
		&models.Task{},
		&models.TaskAttributes{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission catalog: %w", err)
	}

	if err = auth.Reconcile(db, cat); err != nil {
		return nil, fmt.Errorf("failed to reconcile permission catalog: %w", err)
	}

	log.Info().Int("permissions", len(cat.Permissions())).Int("roles", len(cat.Roles())).
		Msg("permission catalog reconciled")

	if err = seed(cfg, db, cat); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	authority, err := auth.NewTokenAuthority(
		os.Getenv(cfg.Security.SecretEnvVar),
		cfg.Security.JWTAlgorithm,
		cfg.Security.AccessTokenTTL(),
	)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, cat, authority),
	}, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DB.GormEngine {
	case "postgres":
		return gorm.Open(gormpostgres.Open(dsn.Create(cfg)), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn.Create(cfg)), &gorm.Config{})
	default: // mysql
		return gorm.Open(gormmysql.Open(dsn.Create(cfg)), &gorm.Config{})
	}
}
