package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/thedittmer/podcast-skill/internal/audio"
	"github.com/thedittmer/podcast-skill/internal/bus"
	"github.com/thedittmer/podcast-skill/internal/server"
	"github.com/thedittmer/podcast-skill/internal/skill"
	"github.com/thedittmer/podcast-skill/internal/speech"
	"github.com/thedittmer/podcast-skill/internal/storage"
	"github.com/thedittmer/podcast-skill/internal/ui"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the skill host: audio player, speech output and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := storage.NewStorage(cfg.DataDir)
			if err != nil {
				return err
			}
			lock := flock.New(store.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another skill host is already running (lock %s)", store.LockPath())
			}
			defer lock.Unlock()

			dialogs, err := loadDialogs(cfg)
			if err != nil {
				return err
			}
			loader, err := ctx.loader()
			if err != nil {
				return err
			}

			b := bus.New(logger)
			player := audio.NewMPV(audio.Config{
				Binary:    cfg.Player.Binary,
				Args:      cfg.Player.Args,
				IPCSocket: cfg.Player.IPCSocket,
			}, logger)
			// The player subscribes first so pause/resume reach the audio
			// before the skill reports on it.
			player.Register(b)

			recorder := &speech.Recorder{}
			terminal := speech.NewTerminal(speech.TerminalOptions{
				Out:     cmd.OutOrStdout(),
				Command: cfg.Speech.Command,
				Args:    cfg.Speech.Args,
				Logger:  logger,
			})

			sk, err := skill.New(skill.Options{
				Slots:   cfg.Slots(),
				Audio:   player,
				Speaker: speech.Tee{terminal, recorder},
				Loader:  loader,
				Dialogs: dialogs,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			sk.Register(b)

			configured := 0
			for _, slot := range cfg.Slots() {
				if !slot.Empty() {
					configured++
				}
			}
			if configured == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.WarningStyle.Render("No podcasts configured; run `podcast-skill config init` and edit the file."))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.HeaderStyle.Render(fmt.Sprintf("Podcast skill listening on %s", cfg.Server.Bind)))

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := server.New(sk, b, recorder, logger)
			serveErr := host.ListenAndServe(runCtx, cfg.Server.Bind)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sk.Shutdown(shutdownCtx); err != nil {
				logger.Warn("stop audio on shutdown failed", "error", err)
			}
			logger.Info("skill host stopped")
			return serveErr
		},
	}
}
