package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormengine is not a supported engine.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be one of mysql, postgres, sqlite")

	// ErrEmptyCatalogPath error if config catalog.path is empty.
	ErrEmptyCatalogPath = errors.New("toml config catalog.path can not be empty")

	// ErrConfigNil error if a nil config is passed where one is required.
	ErrConfigNil = errors.New("config is nil")
)
