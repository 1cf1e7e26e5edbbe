package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/history"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show recent launch sessions, or the events of one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			store := history.NewStore(db.DB)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if len(args) == 1 {
				events, err := store.Events(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "TIME\tEVENT\tPID\tIMAGE\tMESSAGE")
				for _, e := range events {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Type, e.PID, e.Image, e.Message)
				}
				return w.Flush()
			}

			limit, _ := cmd.Flags().GetInt("limit")
			sessions, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "SESSION\tGAME\tSTATUS\tSTARTED\tDURATION")
			for _, s := range sessions {
				duration := "-"
				if s.EndedAt != nil {
					duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.GameID, s.Status, s.StartedAt.Local().Format(time.DateTime), duration)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "number of sessions to show")
	return cmd
}
