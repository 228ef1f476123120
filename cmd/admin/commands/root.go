package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"blogadmin/internal/config"
	"blogadmin/internal/database"
	"blogadmin/internal/i18n"
	"blogadmin/internal/repository"
	"blogadmin/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blogadmin",
	Short: "Maintenance utilities for the blog admin database",
	Long: `Maintenance utilities for the blog admin database.

Configuration is read the same way as the server: .env, config.yml and
environment variables (DB_DRIVER, DB_HOST, SQLITE_PATH, STORAGE_DIR, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// env bundles what the commands operate on.
type env struct {
	cfg   *config.Config
	db    *gorm.DB
	tr    *i18n.Translator
	posts *service.PostService
}

func bootstrap() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	tr := i18n.MustLoad().For(cfg.Locale)
	repo := repository.NewPostRepository(db)
	return &env{
		cfg:   cfg,
		db:    db,
		tr:    tr,
		posts: service.NewPostService(repo, service.NewThumbnailService(cfg, tr), tr),
	}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
