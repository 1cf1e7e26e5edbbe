package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
	"github.com/spf13/cobra"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List the configured games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()

			catalog, err := config.NewGameCatalog(cfg.Storage.ConfigDir)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			games := catalog.Visible()
			if all {
				games = catalog.GetAll()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODE\tTARGET")
			for _, game := range games {
				lc := supervisor.NewLaunchConfig(game)
				target := lc.Executable
				if lc.Mode == supervisor.ModeClient {
					target = "app " + lc.ClientAppID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", game.ID, game.Name, lc.Mode, target)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("all", false, "include hidden games")
	return cmd
}
