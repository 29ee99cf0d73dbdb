// Package main provides the entry point for the TaskVault backend.
// It runs a JSON REST API built on the Fiber framework for managing
// users and their tasks, with role-based access control whose
// role/permission graph is reconciled from a declarative catalog at
// startup. The application uses gorm for data persistence and signed
// bearer tokens for authentication.
package main
