package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/database"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "launcher",
		Short:         "Kiosk game launcher and process supervisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to config.yaml (overrides CONFIG_PATH)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			return os.Setenv("CONFIG_PATH", path)
		}
		return nil
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newLaunchCmd())
	root.AddCommand(newKillImageCmd())
	root.AddCommand(newGamesCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newHashPinCmd())

	return root
}

// loadConfig loads the configuration and starts logging. Callers defer
// logging.Close.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Logging.File) == "" {
		cfg.Logging.File = filepath.Join(cfg.Storage.DataDir, "logs", "launcher.log")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
		return nil, err
	}
	if _, err := logging.Init(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDB opens the history database and applies pending migrations.
func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, cfg.Database.MaxConnections)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newManager builds a supervisor manager from cfg with the given sinks.
func newManager(cfg *config.Config, sinks ...supervisor.EventSink) (*supervisor.Manager, error) {
	timing, err := supervisor.TimingFromConfig(cfg.Supervisor)
	if err != nil {
		return nil, err
	}
	query := procquery.New()
	client := supervisor.NewClientLauncher(
		query,
		supervisor.ClientProfileFromConfig(cfg.Client),
		supervisor.ExclusionSet(cfg.Supervisor.ExcludeImages...),
		timing,
	)

	opts := []supervisor.Option{supervisor.WithTiming(timing), supervisor.WithClientLauncher(client)}
	for _, sink := range sinks {
		opts = append(opts, supervisor.WithEventSink(sink))
	}
	return supervisor.NewManager(query, opts...), nil
}
