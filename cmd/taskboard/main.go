package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/model"
	appsync "github.com/nhle/taskboard/internal/sync"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Personal kanban board in the terminal",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "Path to the config file")

	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(boardCmd(&configPath))
	rootCmd.AddCommand(moveCmd(&configPath))
	rootCmd.AddCommand(sweepCmd(&configPath))
	rootCmd.AddCommand(taskCmd(&configPath))
	rootCmd.AddCommand(notesCmd(&configPath))
	rootCmd.AddCommand(credentialsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(configPath string) error {
	e, err := setup(configPath, false)
	if err != nil {
		return err
	}
	defer e.Close()

	sweeper := appsync.New(e.handler, e.user.ID, e.cfg.SweepInterval(), e.logger)
	defer sweeper.Stop()

	m := app.New(app.Options{
		Store:      e.store,
		Loader:     e.loader,
		Handler:    e.handler,
		Sweeper:    sweeper,
		Config:     e.cfg,
		ConfigPath: configPath,
		UserID:     e.user.ID,
		Logger:     e.logger,
	})

	e.logger.Info().Str("user", e.user.Username).Str("driver", e.cfg.Database.Driver).Msg("starting taskboard")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
