package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/axellelanca/shortly/internal/config"
	"github.com/spf13/cobra"
)

// Cfg is the global variable that will contain the loaded configuration.
// It is accessible to all Cobra commands throughout the application.
var Cfg *config.Config

// RootCmd is the base command for the CLI application.
// Subcommands (run-server, create, stats, migrate) register themselves via
// their own init() functions, which keeps the packages decoupled and avoids
// import cycles.
var RootCmd = &cobra.Command{
	Use:   "shortly",
	Short: "A URL shortener service",
	Long: `A URL shortener service with custom aliases, per-link statistics,
time-based expiration with archival, and a Redis-backed redirect cache.`,
}

// Execute is the main entry point for the Cobra application.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Load configuration before any command runs.
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration for every command execution.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
