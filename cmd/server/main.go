// Package main is the entry point for the blog server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "blogd",
	Short: "Social blog server with Google sign-in",
	Long: `blogd serves the blog: Google sign-in, posts, likes, comments and a paginated feed.

Examples:
  blogd serve
  blogd migrate up
  blogd migrate down --steps 1`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns the JSON logger. DEBUG=true lowers the level to debug.
func newLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
