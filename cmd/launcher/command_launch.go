package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/history"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
	"github.com/spf13/cobra"
)

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <game-id>",
		Short: "Launch a game in the foreground and wait for it to exit",
		Long: "Launch a game from games.yaml and wait until it exits. " +
			"Interrupting the command kills the game and its auxiliary apps.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()

			noHistory, _ := cmd.Flags().GetBool("no-history")
			return launchForeground(cmd, cfg, args[0], !noHistory)
		},
	}
	cmd.Flags().Bool("no-history", false, "do not record the session in the history database")
	return cmd
}

func launchForeground(cmd *cobra.Command, cfg *config.Config, gameID string, record bool) error {
	games, err := config.NewGameCatalog(cfg.Storage.ConfigDir)
	if err != nil {
		return err
	}
	game, ok := games.GetByID(gameID)
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	var sinks []supervisor.EventSink
	if record {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, history.NewStore(db.DB))
	}

	out := cmd.OutOrStdout()
	exited := make(chan struct{})
	var exitOnce sync.Once
	sinks = append(sinks, supervisor.EventSinkFunc(func(evt supervisor.Event) {
		fmt.Fprintln(out, formatEvent(evt))
		if evt.Type == supervisor.EventExited {
			exitOnce.Do(func() { close(exited) })
		}
	}))

	manager, err := newManager(cfg, sinks...)
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle, err := manager.Launch(ctx, supervisor.NewLaunchConfig(game))
	if err != nil {
		return err
	}

	code, err := handle.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "interrupted, killing game")
		manager.KillCurrent()
		return nil
	}
	if err != nil {
		return err
	}

	// the exit monitor polls on its own schedule; let it record the exit
	// before Close clears the session
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
	}
	fmt.Fprintf(out, "game exited with code %d\n", code)
	return nil
}

func formatEvent(evt supervisor.Event) string {
	line := fmt.Sprintf("%s %-16s %s", evt.Time.Local().Format("15:04:05"), evt.Type, evt.GameID)
	if evt.PID != 0 {
		line += fmt.Sprintf(" pid=%d", evt.PID)
	}
	if evt.Image != "" {
		line += " image=" + evt.Image
	}
	if evt.ExitCode != nil {
		line += fmt.Sprintf(" code=%d", *evt.ExitCode)
	}
	if evt.Message != "" {
		line += " " + evt.Message
	}
	return line
}
