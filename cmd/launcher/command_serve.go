package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/api"
	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/history"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/websocket"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control API and supervise launched games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	games, err := config.NewGameCatalog(cfg.Storage.ConfigDir)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store := history.NewStore(db.DB)
	pruner, err := history.NewPruner(store, cfg.History.PruneSchedule, cfg.History.RetentionDays)
	if err != nil {
		return err
	}
	pruner.Start(ctx)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	manager, err := newManager(cfg, store, hub)
	if err != nil {
		return err
	}
	// Close kills the current game and its auxiliaries on the way out.
	defer manager.Close()

	router := api.SetupRouter(cfg, manager, games, store, hub)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting control API on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Println("Shutting down control API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("Launcher exited")
	return nil
}
