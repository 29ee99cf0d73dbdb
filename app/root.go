// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskvault",
	Short: "TaskVault is a multi-tenant task management backend",
	Long: `TaskVault is a multi-tenant task management backend that exposes a
JSON REST API for users and tasks, with declarative role-based access
control reconciled from a permission catalog at startup.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
