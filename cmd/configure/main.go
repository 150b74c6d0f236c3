package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sproutplan/sproutplan-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "sproutplan-configure",
		Short: "Configuration tool for the SproutPlan API",
		Long:  "CLI tool for managing runtime configuration, users and connectivity checks",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewUserCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
