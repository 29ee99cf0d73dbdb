package config

// DB holds the database configuration settings.
type DB struct {
	Extras        string
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	GormEngine    string // "mysql", "postgres" or "sqlite"
	MaxQueryLimit int    // upper bound for the "limit" query parameter on list endpoints
}
