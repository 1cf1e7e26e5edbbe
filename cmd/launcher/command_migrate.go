package main

import (
	"fmt"

	"github.com/Migui-6/Launcher-VRacing/internal/database"
	"github.com/Migui-6/Launcher-VRacing/internal/history"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending history database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()

			db, err := database.NewDB(cfg.Database.Path, cfg.Database.MaxConnections)
			if err != nil {
				return err
			}
			defer db.Close()

			pending, err := db.Pending()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			}
			if err := db.Migrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			for _, version := range pending {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", version)
			}

			prune, _ := cmd.Flags().GetBool("prune")
			if !prune {
				return nil
			}
			pruner, err := history.NewPruner(history.NewStore(db.DB), cfg.History.PruneSchedule, cfg.History.RetentionDays)
			if err != nil {
				return err
			}
			deleted, err := pruner.PruneNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d sessions\n", deleted)
			return nil
		},
	}
	cmd.Flags().Bool("prune", false, "also delete history older than the retention window")
	return cmd
}
