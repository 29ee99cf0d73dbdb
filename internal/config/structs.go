package config

import (
	"time"

	"github.com/taskvault/taskvault/internal/logger"
)

// Security holds token signing settings. The signing secret itself is never
// part of the config file; it is read from the environment variable named by
// SecretEnvVar at startup.
type Security struct {
	JWTAlgorithm      string // signature algorithm for bearer tokens
	AccessTokenExpiry int    // token time-to-live in seconds (floor 1)
	SecretEnvVar      string // env var holding the signing secret
}

// AccessTokenTTL returns the configured token expiry as a duration.
func (s Security) AccessTokenTTL() time.Duration {
	return time.Duration(s.AccessTokenExpiry) * time.Second
}

// Catalog holds the permission catalog source settings.
type Catalog struct {
	Path string // path to the declarative permission/role catalog file
}

// Seed holds the bootstrap admin account settings, used only when the user
// table is empty at startup.
type Seed struct {
	Username string
	Password string // change after first login
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Security  Security
	Catalog   Catalog
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}
