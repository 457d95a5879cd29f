package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/internal/config"
	"github.com/axellelanca/shortlinks/internal/database"
	"github.com/axellelanca/shortlinks/internal/logger"
)

// Cfg is the configuration loaded before any subcommand runs.
var Cfg *config.Config

var configPath string

// RootCmd is the base command. Subcommands register themselves from their
// own init functions.
var RootCmd = &cobra.Command{
	Use:   "shortlinks",
	Short: "A URL shortener with per-region click analytics",
	Long: `shortlinks shortens URLs for registered users, records clicks per
region, renders QR codes and monitors link targets.`,
	SilenceUsage: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./configs/config.yaml)")
}

func initConfig() {
	// a local .env only fills variables the environment does not already set
	_ = godotenv.Load()

	var err error
	Cfg, err = config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(Cfg.Log.Level, Cfg.Log.Pretty)
	log.Debug().Str("database", Cfg.Database.Name).Msg("configuration loaded")
}

// OpenDatabase opens and migrates the configured database. Callers close it
// with database.Close.
func OpenDatabase() (*gorm.DB, error) {
	db, err := database.Open(Cfg.Database.Name, Cfg.Database.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}
