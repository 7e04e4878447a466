package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashlearn/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "flashlearn",
	Short: "Spaced-repetition flashcards",
	Long: "flashlearn keeps question-answer flashcards, schedules reviews with SM-2, " +
		"imports cards from Markdown notes and generates new ones from text.",
	SilenceUsage: true,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(userCmd)
}

// loadConfig reads the configuration for cmd and installs the logger it
// describes as the default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	return cfg, logger, nil
}
